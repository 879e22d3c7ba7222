package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrRemoteUnconfigured = fmt.Errorf("remote host is not configured")

	// Panel state errors
	ErrSettingsLoad      = fmt.Errorf("settings load failed")
	ErrSettingsCommit    = fmt.Errorf("settings save failed")
	ErrNoDraft           = fmt.Errorf("no settings draft loaded")
	ErrRefresh           = fmt.Errorf("library refresh failed")
	ErrOperation         = fmt.Errorf("operation failed")
	ErrOperationInFlight = fmt.Errorf("operation already in flight")

	// Backend and transfer errors
	ErrBackendUnavailable = fmt.Errorf("backend unavailable")
	ErrGameNotFound       = fmt.Errorf("game not found")
	ErrGameInstalled      = fmt.Errorf("game already installed")
	ErrGameNotInstalled   = fmt.Errorf("game is not installed")
	ErrRsyncUnavailable   = fmt.Errorf("rsync is not available on this system")
	ErrNoSyncPaths        = fmt.Errorf("no save sync paths configured")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
