// Package errors provides the typed errors surfaced by the costing core.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Type identifies the category of error
type Type string

const (
	// TypeSchemaDetection indicates a required column role could not be identified
	TypeSchemaDetection Type = "SCHEMA_DETECTION_FAILURE"

	// TypeUnconfiguredProduct indicates a product has no production work item
	TypeUnconfiguredProduct Type = "UNCONFIGURED_PRODUCT"

	// TypeMissingWorkItemCost indicates a referenced work item has no unit cost
	TypeMissingWorkItemCost Type = "MISSING_WORK_ITEM_COST"

	// TypeUnresolvedItemPrice indicates an item has no usable price anywhere
	TypeUnresolvedItemPrice Type = "UNRESOLVED_ITEM_PRICE"

	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType checks if an error, or anything it wraps, is of a specific type
func IsType(err error, t Type) bool {
	e, ok := As(err)
	return ok && e.Type == t
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}

// SchemaDetection reports the roles that could not be mapped to a column of a sheet
func SchemaDetection(sheet string, roles []string) *Error {
	return Newf(TypeSchemaDetection, "sheet %q: no column found for %s", sheet, strings.Join(roles, ", ")).
		WithContext("sheet", sheet).
		WithContext("roles", roles)
}

// UnconfiguredProduct reports a product without a production work item
func UnconfiguredProduct(product string) *Error {
	return Newf(TypeUnconfiguredProduct, "product %s has no production work item configured", product).
		WithContext("product", product)
}

// MissingWorkItemCost reports every referenced work item without a unit cost
func MissingWorkItemCost(role string, workItems []string) *Error {
	return Newf(TypeMissingWorkItemCost, "no unit cost for %s work item(s): %s", role, strings.Join(workItems, ", ")).
		WithContext("role", role).
		WithContext("work_items", workItems)
}

// UnresolvedItemPrice reports item codes that have no catalog, override, or recipe price
func UnresolvedItemPrice(refs []string) *Error {
	return Newf(TypeUnresolvedItemPrice, "no price for item(s): %s", strings.Join(refs, ", ")).
		WithContext("items", refs)
}
