package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Language model provider errors
	ErrProvider        = fmt.Errorf("provider request failed")
	ErrSchema          = fmt.Errorf("provider returned malformed output")
	ErrUnknownProvider = fmt.Errorf("unknown provider")

	// Search tool errors
	ErrToolUnavailable = fmt.Errorf("search tool unavailable")
	ErrToolError       = fmt.Errorf("search tool failed")

	// Resolution errors
	ErrExhausted     = fmt.Errorf("resolution exhausted")
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Queue and storage errors
	ErrNotFound  = fmt.Errorf("not found")
	ErrDuplicate = fmt.Errorf("duplicate")
	ErrDatabase  = fmt.Errorf("database error")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
