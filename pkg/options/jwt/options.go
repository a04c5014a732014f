// Package jwt provides JWT configuration options.
//
// Configuration example (YAML):
//
//	jwt:
//	  key: "${JWT_KEY}"
//	  signing-method: "HS256"
//	  expired: "3h"
//	  max-refresh: "24h"
//	  issuer: "paperqa"
package jwt

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/paperqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

const (
	DefaultSigningMethod = "HS256"
	DefaultExpired       = 3 * time.Hour
	DefaultMaxRefresh    = 24 * time.Hour
	DefaultIssuer        = "paperqa"

	// MinKeyLength is the minimum HMAC key length.
	MinKeyLength = 32
)

// SupportedSigningMethods lists the HMAC algorithms accepted for signing.
var SupportedSigningMethods = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Options contains JWT configuration.
type Options struct {
	// Key is the HMAC secret used to sign tokens.
	Key           string `json:"-" mapstructure:"key"`
	SigningMethod string `json:"signing-method" mapstructure:"signing-method"`
	// Expired is the access token lifetime.
	Expired time.Duration `json:"expired" mapstructure:"expired"`
	// MaxRefresh is the refresh token lifetime.
	MaxRefresh time.Duration `json:"max-refresh" mapstructure:"max-refresh"`
	Issuer     string        `json:"issuer" mapstructure:"issuer"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		SigningMethod: DefaultSigningMethod,
		Expired:       DefaultExpired,
		MaxRefresh:    DefaultMaxRefresh,
		Issuer:        DefaultIssuer,
	}
}

// AddFlags adds flags for JWT options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "jwt."
	fs.StringVar(&o.Key, p+"key", o.Key, "JWT signing key, at least 32 chars (prefer JWT_KEY env var).")
	fs.StringVar(&o.SigningMethod, p+"signing-method", o.SigningMethod, "JWT signing algorithm (HS256, HS384, HS512).")
	fs.DurationVar(&o.Expired, p+"expired", o.Expired, "Access token lifetime.")
	fs.DurationVar(&o.MaxRefresh, p+"max-refresh", o.MaxRefresh, "Refresh token lifetime.")
	fs.StringVar(&o.Issuer, p+"issuer", o.Issuer, "Token issuer (iss claim).")
}

// Complete fills in default values for unset fields.
func (o *Options) Complete() error {
	if o.Key == "" {
		o.Key = os.Getenv("JWT_KEY")
	}
	if o.SigningMethod == "" {
		o.SigningMethod = DefaultSigningMethod
	}
	if o.Expired == 0 {
		o.Expired = DefaultExpired
	}
	if o.MaxRefresh == 0 {
		o.MaxRefresh = DefaultMaxRefresh
	}
	if o.Issuer == "" {
		o.Issuer = DefaultIssuer
	}
	return nil
}

// Validate validates the JWT options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if !SupportedSigningMethods[o.SigningMethod] {
		errs = append(errs, fmt.Errorf("unsupported jwt signing method: %s", o.SigningMethod))
	}
	if len(o.Key) < MinKeyLength {
		errs = append(errs, fmt.Errorf("jwt key must be at least %d characters, got %d", MinKeyLength, len(o.Key)))
	}
	if o.Expired <= 0 {
		errs = append(errs, fmt.Errorf("jwt expired must be positive, got %v", o.Expired))
	}
	if o.MaxRefresh < o.Expired {
		errs = append(errs, fmt.Errorf("jwt max-refresh (%v) must be >= expired (%v)", o.MaxRefresh, o.Expired))
	}
	return errs
}
