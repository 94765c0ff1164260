package shared

import "fmt"

var (
	// Configuration errors. Only these are fatal.
	ErrConfig             = fmt.Errorf("configuration error")
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrAuthRejected     = fmt.Errorf("credential rejected by server")
	ErrAuthTimeout      = fmt.Errorf("authentication timed out")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Transport and API errors
	ErrTransport          = fmt.Errorf("transport error")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrItemNotFound       = fmt.Errorf("item not found")

	// Translation errors
	ErrMissingID    = fmt.Errorf("missing source item id")
	ErrLookupFailed = fmt.Errorf("item lookup failed")
	ErrNoExternalID = fmt.Errorf("no external id")

	// Publish errors
	ErrPublishFailed = fmt.Errorf("publish failed")

	ErrAlreadyRunning = fmt.Errorf("already running")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
