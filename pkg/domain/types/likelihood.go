package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// MinScale and MaxScale bound both likelihood and impact
const (
	MinScale = 1
	MaxScale = 4
)

// Likelihood is the probability rating of a risk, 1 (rare) to 4 (almost certain).
// Zero means the value was not provided.
type Likelihood int

// IsSet reports whether a value was provided
func (l Likelihood) IsSet() bool {
	return l != 0
}

// Validate checks if the Likelihood is within the rating scale
func (l Likelihood) Validate() error {
	if l < MinScale || l > MaxScale {
		return goerr.New("likelihood must be between 1 and 4", goerr.V("likelihood", int(l)))
	}
	return nil
}
