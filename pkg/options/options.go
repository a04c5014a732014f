// Package options holds the option sections shared by the paperqa commands.
// Every section registers its flags under "<prefix>.<section>." so the same
// struct can be embedded in several commands.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option section.
type IOptions interface {
	// Validate returns every problem found, not just the first.
	Validate() []error
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join returns the flag name prefix for prefixes, e.g. "a.b." for ("a", "b").
// Empty prefixes are ignored.
func Join(prefixes ...string) string {
	var b strings.Builder
	for _, p := range prefixes {
		if p != "" {
			b.WriteString(p)
			b.WriteByte('.')
		}
	}
	return b.String()
}
