package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrValidation, usecase.ErrPersistence)).False()
	gt.Bool(t, errors.Is(usecase.ErrLookup, usecase.ErrPersistence)).False()
	gt.Bool(t, errors.Is(usecase.ErrIdentifier, usecase.ErrValidation)).False()
}

func TestValidationError(t *testing.T) {
	verr := &usecase.ValidationError{Field: "description", Message: "description is required"}
	gt.Value(t, verr.Error()).Equal("description: description is required")

	wrapped := goerr.Wrap(verr, "risk report rejected")
	gt.Bool(t, errors.Is(wrapped, usecase.ErrValidation)).True()
	gt.Bool(t, errors.Is(wrapped, usecase.ErrIdentifier)).False()

	var got *usecase.ValidationError
	gt.Bool(t, errors.As(wrapped, &got)).True()
	gt.Value(t, got.Field).Equal("description")
}
