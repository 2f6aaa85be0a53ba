package inference

import "errors"

// Sentinel kinds for inference errors.
var (
	ErrLoadModel   = errors.New("load onnx model")
	ErrEmptyOutput = errors.New("forward pass returned no output")
	ErrBatchSize   = errors.New("input length does not match batch")
	ErrNoCUDA      = errors.New("no cuda device available")
)
