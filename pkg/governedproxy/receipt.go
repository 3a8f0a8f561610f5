package governedproxy

import (
	"time"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// Receipt is the immutable audit record emitted once per governed
// execution.
type Receipt struct {
	ReceiptID   string
	Timestamp   time.Time
	ConnectorID string
	OperationID string
	Capability  string
	Tier        string
	StatusCode  int
	Success     bool
}

// ReceiptSink accepts receipts for one tier band. Implementations must be
// thread-safe or externally serialized; the governed proxy calls them
// from concurrent goroutines.
type ReceiptSink interface {
	Emit(r Receipt) error
}
