package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrNoTargets     = fmt.Errorf("no sync targets configured")

	// Remote listing errors
	ErrRemoteUnavailable = fmt.Errorf("remote listing unavailable")
	ErrRemoteNotFound    = fmt.Errorf("playlist not found")

	// Sync engine errors
	ErrIdentity      = fmt.Errorf("local id could not be extracted")
	ErrDuplicateID   = fmt.Errorf("duplicate item id")
	ErrFetchFailed   = fmt.Errorf("fetch failed")
	ErrManifestWrite = fmt.Errorf("manifest write failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
