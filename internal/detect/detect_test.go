package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

func TestDetect_NoLastRecordIsChanged(t *testing.T) {
	d := New(nil)

	for _, p := range [][]byte{nil, {}, []byte("X"), []byte(`{"a":1}`)} {
		v := d.Detect(p, nil)
		require.Equal(t, Changed, v)
		require.True(t, v.ShouldWrite())
	}
}

func TestDetect_SameFingerprintIsUnchanged(t *testing.T) {
	d := New(fingerprint.MD5())
	p := []byte("X")

	last := &sink.StoredRecord{Fingerprint: fingerprint.MD5().Sum(p), Timestamp: time.Now()}
	v := d.Detect(p, last)

	require.Equal(t, Unchanged, v)
	require.False(t, v.ShouldWrite())
}

func TestDetect_DifferentFingerprintIsChanged(t *testing.T) {
	d := New(fingerprint.MD5())

	last := &sink.StoredRecord{Fingerprint: fingerprint.MD5().Sum([]byte("Y"))}
	require.Equal(t, Changed, d.Detect([]byte("X"), last))
}

func TestDetect_StoredPayloadIsRehashed(t *testing.T) {
	d := New(fingerprint.MD5())

	require.Equal(t, Unchanged, d.Detect([]byte("X"), &sink.StoredRecord{Payload: []byte("X")}))
	require.Equal(t, Changed, d.Detect([]byte("X"), &sink.StoredRecord{Payload: []byte("Y")}))
}

func TestDetect_BothStrategiesAgree(t *testing.T) {
	d := New(fingerprint.MD5())
	payloads := [][]byte{{}, []byte("X"), []byte("Y"), []byte(`{"permits":[]}`)}

	for _, newP := range payloads {
		for _, oldP := range payloads {
			byFP := d.Detect(newP, &sink.StoredRecord{Fingerprint: fingerprint.MD5().Sum(oldP)})
			byPayload := d.Detect(newP, &sink.StoredRecord{Payload: oldP})
			require.Equal(t, byFP, byPayload, "new=%q old=%q", newP, oldP)
		}
	}
}

func TestDetect_EmptyPayloadComparedLikeAnyOther(t *testing.T) {
	d := New(nil)

	require.Equal(t, Unchanged, d.Detect([]byte{}, &sink.StoredRecord{Payload: []byte{}}))
	require.Equal(t, Changed, d.Detect([]byte{}, &sink.StoredRecord{Payload: []byte("X")}))
}

func TestDetect_TimestampIgnored(t *testing.T) {
	d := New(nil)
	fp := fingerprint.MD5().Sum([]byte("X"))

	a := &sink.StoredRecord{Fingerprint: fp, Timestamp: time.Unix(0, 0)}
	b := &sink.StoredRecord{Fingerprint: fp, Timestamp: time.Now()}

	require.Equal(t, Unchanged, d.DetectFingerprint(fp, a))
	require.Equal(t, Unchanged, d.DetectFingerprint(fp, b))
}

func TestDetect_RecordWithoutComparableDataIsNoPriorData(t *testing.T) {
	d := New(nil)

	v := d.Detect([]byte("X"), &sink.StoredRecord{ID: "legacy"})
	require.Equal(t, NoPriorData, v)
	require.True(t, v.ShouldWrite())
}
