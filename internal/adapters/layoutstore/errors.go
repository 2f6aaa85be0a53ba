package layoutstore

import "errors"

// Sentinel kinds for layout store errors.
var (
	ErrRedisURL   = errors.New("invalid redis url")
	ErrRedisPing  = errors.New("redis unreachable")
	ErrBadPayload = errors.New("stored layout is not valid json")
)
