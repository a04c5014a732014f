// Package app defines the options contract consumed by pkg/infra/app.
package app

import (
	"github.com/kart-io/paperqa/pkg/app/cliflag"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line.
type CliOptions interface {
	// Flags returns flags grouped by section name.
	Flags() cliflag.NamedFlagSets
	// Complete fills in defaults derived from other fields.
	Complete() error
	// Validate checks the options and returns an aggregated error.
	Validate() error
}
