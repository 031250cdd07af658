package sink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	boom := errors.New("boom")

	require.Equal(t, Kind(0), KindOf(nil))
	require.Equal(t, KindTransient, KindOf(Transient(OpRead, boom)))
	require.Equal(t, KindStructural, KindOf(Structural(OpWrite, boom)))
	require.Equal(t, KindNotReady, KindOf(NotReady(OpEnsure, boom)))

	wrapped := fmt.Errorf("outer: %w", Structural(OpWrite, boom))
	require.Equal(t, KindStructural, KindOf(wrapped))

	require.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
	require.Equal(t, KindTransient, KindOf(fmt.Errorf("call: %w", context.Canceled)))
	require.Equal(t, KindTransient, KindOf(&net.OpError{Op: "dial", Err: boom}))
	require.Equal(t, KindStructural, KindOf(boom))
}

func TestError_UnwrapsAndFormats(t *testing.T) {
	boom := errors.New("boom")
	err := Transient(OpWrite, boom)

	require.ErrorIs(t, err, boom)
	require.Equal(t, "sink write (transient): boom", err.Error())

	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, "transient", se.Class())
}
