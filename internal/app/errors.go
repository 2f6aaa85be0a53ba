package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted            = errors.New("service not started")
	ErrScanInProgress        = errors.New("scan in progress")
	ErrUnsupportedResolution = errors.New("unsupported resolution")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrInvalidScreenshot     = errors.New("invalid screenshot")
	ErrNoSession             = errors.New("no draft session")
	ErrNoSessionFactory      = errors.New("no inference session factory")
)
