package llm

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeConfig decodes a provider config map into cfg using its mapstructure
// tags. Empty strings and zero durations mean "unset" and keep the value
// already in cfg.
func DecodeConfig(configMap map[string]any, cfg any) error {
	set := make(map[string]any, len(configMap))
	for k, v := range configMap {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if x == "" {
				continue
			}
		case time.Duration:
			if x <= 0 {
				continue
			}
		}
		set[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(set); err != nil {
		return fmt.Errorf("invalid provider config: %w", err)
	}
	return nil
}
