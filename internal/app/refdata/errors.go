package refdata

import "errors"

// Fatal errors. Business-rule failures are reported through Result instead.
var (
	ErrTenantRequired       = errors.New("tenant code not found")
	ErrOrganizationNotFound = errors.New("organization data not found")
	ErrSaveFailed           = errors.New("failed to update organization data")
)

// ValidationError reports a request whose shape is unusable: required fields
// missing or blank, or an id missing where one is needed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
