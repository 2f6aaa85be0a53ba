package classifier

import (
	"github.com/google/uuid"

	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
)

// RequestType tags a worker request.
type RequestType string

// Worker request types.
const (
	RequestInit    RequestType = "init"
	RequestScan    RequestType = "scan"
	RequestDispose RequestType = "dispose"
)

// Status tags a worker response.
type Status string

// Worker response statuses.
const (
	StatusReady   Status = "ready"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request is one message to the classifier worker. Only the fields of its
// Type are meaningful.
type Request struct {
	ID   uuid.UUID
	Type RequestType

	Init InitOptions

	Screenshot          []byte
	Layout              layout.Layout
	ConfidenceThreshold float64
	IsInitialScan       bool

	reply chan Response
}

// Response answers exactly one Request.
type Response struct {
	ID                uuid.UUID
	Status            Status
	ExecutionProvider string
	Results           model.RawScan
	IsInitialScan     bool
	Err               error
}

func newRequest(t RequestType) Request {
	return Request{ID: uuid.New(), Type: t, reply: make(chan Response, 1)}
}

// NewInitRequest loads the model and class names.
func NewInitRequest(o InitOptions) Request {
	r := newRequest(RequestInit)
	r.Init = o
	return r
}

// NewScanRequest classifies one screenshot against a resolved layout.
func NewScanRequest(screenshot []byte, l layout.Layout, threshold float64, initial bool) Request {
	r := newRequest(RequestScan)
	r.Screenshot = screenshot
	r.Layout = l
	r.ConfidenceThreshold = threshold
	r.IsInitialScan = initial
	return r
}

// NewDisposeRequest releases the session.
func NewDisposeRequest() Request {
	return newRequest(RequestDispose)
}

// Reply returns the channel the single Response arrives on.
func (r Request) Reply() <-chan Response { return r.reply }

// Respond delivers resp once. Later calls are dropped.
func (r Request) Respond(resp Response) {
	resp.ID = r.ID
	select {
	case r.reply <- resp:
	default:
	}
}
