// Package inference runs the ability classifier through the OpenCV DNN
// module.
package inference

import (
	"fmt"
	"unsafe"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/cuda"

	"github.com/okian/draftlens/internal/domain/classifier"
)

// Execution provider names reported to callers.
const (
	ProviderCUDA = "cuda"
	ProviderCPU  = "cpu"
)

// Session wraps a gocv DNN network. It is not safe for concurrent use;
// the classifier worker owns it.
type Session struct {
	net      gocv.Net
	provider string
}

var _ classifier.Session = (*Session)(nil)

// selectProvider picks the execution provider. OpenCV builds without CUDA
// accept the CUDA backend and silently run on the CPU, so acceleration is
// refused unless a device is visible.
func selectProvider(accelerate bool, devices int) (string, error) {
	if !accelerate {
		return ProviderCPU, nil
	}
	if devices <= 0 {
		return "", ErrNoCUDA
	}
	return ProviderCUDA, nil
}

// Open is a classifier.SessionFactory. With accelerate it requires a CUDA
// device, targets the CUDA backend and runs one empty image through it so
// a broken GPU setup surfaces here rather than on the first scan.
func Open(modelPath string, accelerate bool) (classifier.Session, error) {
	devices := 0
	if accelerate {
		devices = cuda.GetCudaEnabledDeviceCount()
	}
	provider, err := selectProvider(accelerate, devices)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrLoadModel, modelPath)
	}

	s := &Session{net: net, provider: provider}
	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if provider == ProviderCUDA {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("set backend %s: %w", s.provider, err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("set target %s: %w", s.provider, err)
	}

	if accelerate {
		if _, err := s.Run(make([]float32, classifier.ImageLen), 1); err != nil {
			_ = net.Close()
			return nil, fmt.Errorf("warm up %s: %w", s.provider, err)
		}
	}
	return s, nil
}

// Run executes one forward pass over an NHWC [batch,96,96,3] tensor.
func (s *Session) Run(input []float32, batch int) ([]float32, error) {
	if batch <= 0 || len(input) != batch*classifier.ImageLen {
		return nil, fmt.Errorf("%w: %d values for batch %d", ErrBatchSize, len(input), batch)
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&input[0])), len(input)*4) //nolint:gosec // float32 view of the tensor
	blob, err := gocv.NewMatWithSizesFromBytes(
		[]int{batch, classifier.InputSize, classifier.InputSize, classifier.Channels},
		gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("build input blob: %w", err)
	}
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, ErrEmptyOutput
	}

	probs, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return append([]float32(nil), probs...), nil
}

// Provider reports the execution provider the network targets.
func (s *Session) Provider() string { return s.provider }

// Close releases the network.
func (s *Session) Close() error {
	return s.net.Close()
}
