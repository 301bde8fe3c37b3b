package types

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
)

// maxCategoryLength bounds category names stored with a report
const maxCategoryLength = 128

// Category is the name of a risk category such as "Fraud".
// Matching is exact and case-sensitive.
type Category string

// Validate checks if the Category is usable as a classification
func (c Category) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return goerr.New("category cannot be empty")
	}
	if string(c) != strings.TrimSpace(string(c)) {
		return goerr.New("category must not have leading or trailing spaces", goerr.V("category", c))
	}
	if utf8.RuneCountInString(string(c)) > maxCategoryLength {
		return goerr.New("category is too long", goerr.V("category", c))
	}
	return nil
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}
