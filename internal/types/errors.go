package types

import "errors"

// Sentinel errors shared across conductor packages. Using sentinels instead
// of ad-hoc fmt.Errorf allows callers to match with errors.Is.
var (
	// ErrSessionIDRequired is returned when a record is built without a session ID.
	ErrSessionIDRequired = errors.New("session ID is required")

	// ErrUnknownRole is returned when a delegation names a role outside the known set.
	ErrUnknownRole = errors.New("invalid role")

	// ErrTaskLength is returned when a delegation task description falls
	// outside the configured length range.
	ErrTaskLength = errors.New("task description length out of range")

	// ErrNoAllowedIntent is returned when a task description matches no
	// allowed-intent pattern.
	ErrNoAllowedIntent = errors.New("task description matches no allowed intent")

	// ErrBlockedIntent is returned when a task description matches a
	// blocked-intent pattern. Blocked patterns take precedence over allowed ones.
	ErrBlockedIntent = errors.New("task description matches a blocked intent")

	// ErrBundleNotFound is returned when no bundle exists for a session.
	ErrBundleNotFound = errors.New("bundle not found")
)
