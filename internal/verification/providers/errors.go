package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies why a provider call failed. It is logged and used as a
// metric label; the verification service treats every category as fatal.
type Category string

const (
	CategoryTimeout  Category = "timeout"
	CategoryBadInput Category = "bad_input"
	CategoryAuth     Category = "auth"
	CategoryOutage   Category = "outage"
	CategoryQuota    Category = "quota"
	CategoryInternal Category = "internal"
)

// Error is a failed call to an OCR or face comparison backend.
type Error struct {
	Provider string
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Provider + " " + e.Op
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a categorized failure for provider during op.
func NewError(category Category, provider, op string, err error) *Error {
	return &Error{Provider: provider, Category: category, Op: op, Err: err}
}

// CategoryOf returns the category of the first *Error in err's chain, or
// CategoryInternal when there is none.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}

// CategoryForStatus maps an upstream HTTP status to a category.
func CategoryForStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusTooManyRequests:
		return CategoryQuota
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status >= http.StatusInternalServerError:
		return CategoryOutage
	default:
		return CategoryBadInput
	}
}
