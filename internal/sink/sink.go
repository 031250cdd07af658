// internal/sink/sink.go
package sink

import (
	"context"
	"time"

	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
)

// Variant tags the kind of backend behind a Sink.
type Variant string

const (
	VariantMessageQueue  Variant = "message_queue"
	VariantDocumentStore Variant = "document_store"
	VariantObjectStore   Variant = "object_store"
)

// StoredRecord is what a sink persisted on a previous write.
// A sink fills Fingerprint, Payload, or both; the detector uses
// whichever is present.
type StoredRecord struct {
	ID          string
	Fingerprint fingerprint.Fingerprint
	Timestamp   time.Time
	Payload     []byte
}

// Record is one snapshot to persist.
type Record struct {
	Payload     []byte
	Fingerprint fingerprint.Fingerprint
	Timestamp   time.Time
}

// Ack confirms a durable write. ID is sink-assigned.
type Ack struct {
	ID string
}

// Sink is the capability every downstream backend implements.
type Sink interface {
	// EnsureReady is idempotent. Backends that need a collection create it.
	EnsureReady(ctx context.Context) error

	// ReadLast returns nil, nil when the backend has never stored anything.
	ReadLast(ctx context.Context) (*StoredRecord, error)

	// Write durably persists rec.
	Write(ctx context.Context, rec Record) (Ack, error)
}
