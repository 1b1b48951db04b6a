// Package domain provides the domain model of the author reconciliation service.
package domain

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// InternalAuthor is a researcher from the canonical internal registry.
type InternalAuthor struct {
	// ID is the registry identifier, usually an IRI.
	ID string `json:"id" validate:"required"`
	// FirstName holds the given names, possibly several tokens.
	FirstName string `json:"first_name" validate:"required"`
	// LastName holds the family names, possibly several tokens.
	LastName string `json:"last_name" validate:"required"`
}

// FullName returns "FirstName LastName" with surrounding whitespace removed.
func (a InternalAuthor) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Validate checks that every field is present.
func (a InternalAuthor) Validate() error {
	err := validatorInstance().Struct(a)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return NewValidationError(fieldErrs[0].Field(), fieldErrs[0].Tag())
	}
	return NewValidationError("author", err.Error())
}

// CandidateQuery is one search-string variant submitted to a provider.
type CandidateQuery struct {
	// Query is the rendered provider query string.
	Query string `json:"query"`
	// Priority is 1-based; lower is more specific.
	Priority int `json:"priority"`
	// Affiliation is the affiliation filter the query was rendered with.
	Affiliation string `json:"affiliation"`
}

// IdentityLink asserts that an internal and an external identifier denote
// the same researcher.
type IdentityLink struct {
	InternalID string `json:"internal_id"`
	ExternalID string `json:"external_id"`
}
