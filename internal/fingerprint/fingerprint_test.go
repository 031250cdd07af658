package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestMD5_KnownDigests(t *testing.T) {
	h := MD5()

	// RFC 1321 test vectors.
	require.Equal(t, Fingerprint("d41d8cd98f00b204e9800998ecf8427e"), h.Sum(nil))
	require.Equal(t, Fingerprint("d41d8cd98f00b204e9800998ecf8427e"), h.Sum([]byte{}))
	require.Equal(t, Fingerprint("0cc175b9c0f1b6a831c399e269772661"), h.Sum([]byte("a")))
}

func TestHashers_Deterministic(t *testing.T) {
	hw, err := New(AlgorithmHighwayHash, testKey)
	require.NoError(t, err)

	for _, h := range []Hasher{MD5(), hw} {
		t.Run(h.Name(), func(t *testing.T) {
			payloads := [][]byte{nil, {}, []byte("X"), []byte(`{"permits":[1,2,3]}`), make([]byte, 1<<16)}
			for _, p := range payloads {
				a := h.Sum(p)
				b := h.Sum(append([]byte(nil), p...))
				require.Equal(t, a, b)
				require.Len(t, string(a), 32)
				require.Equal(t, strings.ToLower(string(a)), string(a))
			}
		})
	}
}

func TestHashers_DifferentPayloadsDiffer(t *testing.T) {
	hw, err := New(AlgorithmHighwayHash, testKey)
	require.NoError(t, err)

	for _, h := range []Hasher{MD5(), hw} {
		require.NotEqual(t, h.Sum([]byte("X")), h.Sum([]byte("Y")))
		require.NotEqual(t, h.Sum([]byte("")), h.Sum([]byte(" ")))
		require.NotEqual(t, h.Sum([]byte(`{"a":1}`)), h.Sum([]byte(`{"a": 1}`)))
	}
}

func TestNew(t *testing.T) {
	h, err := New("", "")
	require.NoError(t, err)
	require.Equal(t, AlgorithmMD5, h.Name())

	h, err = New("MD5", "")
	require.NoError(t, err)
	require.Equal(t, AlgorithmMD5, h.Name())

	_, err = New(AlgorithmHighwayHash, "abcd")
	require.Error(t, err)

	_, err = New(AlgorithmHighwayHash, "not-hex")
	require.Error(t, err)

	_, err = New("sha1", "")
	require.Error(t, err)
}

func TestHighwayHash_KeyMatters(t *testing.T) {
	a, err := New(AlgorithmHighwayHash, testKey)
	require.NoError(t, err)
	b, err := New(AlgorithmHighwayHash, strings.Repeat("ff", KeySize))
	require.NoError(t, err)

	require.NotEqual(t, a.Sum([]byte("X")), b.Sum([]byte("X")))
}
