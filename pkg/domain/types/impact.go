package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Impact is the consequence rating of a risk, 1 (minor) to 4 (severe).
// Zero means the value was not provided.
type Impact int

// IsSet reports whether a value was provided
func (i Impact) IsSet() bool {
	return i != 0
}

// Validate checks if the Impact is within the rating scale
func (i Impact) Validate() error {
	if i < MinScale || i > MaxScale {
		return goerr.New("impact must be between 1 and 4", goerr.V("impact", int(i)))
	}
	return nil
}
