package classifier

import "errors"

// Sentinel error kinds for the classifier.
var (
	ErrClassCountMismatch = errors.New("class name count does not match model output")
	ErrNotInitialized     = errors.New("classifier not initialized")
	ErrEmptyBatch         = errors.New("no valid slots to classify")
	ErrDecode             = errors.New("decode screenshot")
)
