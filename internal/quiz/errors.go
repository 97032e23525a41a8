package quiz

import "fmt"

// Error taxonomy. Actions return one of these; the HTTP layer maps each to a
// status code and a {"success":false,"error":...} body. Anything else is a
// plain internal error.

// ValidationError: malformed or missing input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError: the caller does not own the resource.
type AuthorizationError struct{ Msg string }

func (e *AuthorizationError) Error() string { return e.Msg }

// StateError: the operation is not allowed in the current lifecycle state
// (test closed, attempt already completed).
type StateError struct{ Msg string }

func (e *StateError) Error() string { return e.Msg }

// NotFoundError: the referenced row does not exist.
type NotFoundError struct{ Resource string }

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// DataIntegrityError: the stored data violates an invariant, e.g. a
// single-choice question with no correct choice configured.
type DataIntegrityError struct{ Msg string }

func (e *DataIntegrityError) Error() string { return e.Msg }

// ExternalServiceError: every AI grading credential was exhausted without a
// usable result.
type ExternalServiceError struct{ Err error }

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("all grading providers failed: %v", e.Err)
	}
	return "all grading providers failed"
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
