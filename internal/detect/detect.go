// internal/detect/detect.go
package detect

import (
	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

// Verdict is the outcome of comparing a new snapshot with a sink's last record.
type Verdict uint8

const (
	// NoPriorData: a last record exists but carries neither a fingerprint
	// nor a payload to compare against.
	NoPriorData Verdict = iota + 1
	Unchanged
	Changed
)

func (v Verdict) String() string {
	switch v {
	case NoPriorData:
		return "no_prior_data"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// ShouldWrite reports whether the dispatcher must write the snapshot.
func (v Verdict) ShouldWrite() bool {
	return v == Changed || v == NoPriorData
}

// Detector compares snapshots by fingerprint only.
type Detector struct {
	hasher fingerprint.Hasher
}

// New returns a Detector. A nil hasher falls back to MD5.
func New(h fingerprint.Hasher) *Detector {
	if h == nil {
		h = fingerprint.MD5()
	}
	return &Detector{hasher: h}
}

// Detect fingerprints payload and compares it with last.
func (d *Detector) Detect(payload []byte, last *sink.StoredRecord) Verdict {
	return d.DetectFingerprint(d.hasher.Sum(payload), last)
}

// DetectFingerprint compares an already computed fingerprint with last.
// A nil last record means the backend is empty: the first write always proceeds.
func (d *Detector) DetectFingerprint(fp fingerprint.Fingerprint, last *sink.StoredRecord) Verdict {
	if last == nil {
		return Changed
	}

	var prev fingerprint.Fingerprint
	switch {
	case last.Fingerprint != "":
		prev = last.Fingerprint
	case last.Payload != nil:
		// sink keeps only the raw payload
		prev = d.hasher.Sum(last.Payload)
	default:
		return NoPriorData
	}

	if prev == fp {
		return Unchanged
	}
	return Changed
}
