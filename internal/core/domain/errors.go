package domain

import "errors"

// Error kinds. Every operational error unwraps to exactly one of these, which
// is what the HTTP layer uses to pick a status code.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is an operational error: an expected outcome whose Message is safe to
// show to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func BadRequest(msg string) *Error   { return &Error{Kind: ErrBadRequest, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: ErrConflict, Message: msg} }

// IsOperational reports whether err carries a client-safe message.
func IsOperational(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// Authentication and session errors.
var (
	ErrInvalidCredentials       = Unauthorized("Invalid email or password")
	ErrMissingToken             = Unauthorized("Authentication token missing")
	ErrInvalidSession           = Unauthorized("Invalid or expired token")
	ErrSessionRevoked           = Unauthorized("Session has been closed, please log in again")
	ErrAuthenticationRequired   = Unauthorized("Authentication required")
	ErrInsufficientRole         = Forbidden("You do not have permission to perform this action")
	ErrEmailTaken               = Conflict("Email is already registered")
	ErrInvalidVerificationToken = BadRequest("Invalid verification token")
	ErrInvalidResetToken        = BadRequest("Invalid or expired password reset token")
	ErrUnknownEmail             = BadRequest("No account found with that email")
	ErrDefaultRoleMissing       = errors.New("default role is not provisioned")
)

// Resource errors.
var (
	ErrAccountNotFound = NotFound("User not found")
	ErrPersonNotFound  = NotFound("Profile not found")
	ErrRoleNotFound    = NotFound("Role not found")
	ErrRoleNotAssigned = NotFound("User does not have this role")
	ErrListingNotFound = NotFound("Emprendimiento not found")
	ErrListingOwner    = Forbidden("You can only modify your own emprendimientos")
	ErrPhotoNotFound   = NotFound("Profile photo not found")
)
