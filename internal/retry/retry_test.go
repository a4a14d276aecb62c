package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), "fetch", 3, 0, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, Always)

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("still broken")
	err := Do(context.Background(), "fetch", 3, 0, func() error {
		attempts++
		return boom
	}, Always)

	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, attempts)
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), "upload", 5, time.Hour, func() error {
		attempts++
		return nil
	}, Always)

	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestDo_PermanentErrorStopsEarly(t *testing.T) {
	attempts := 0
	fatal := errors.New("bad request")
	err := Do(context.Background(), "upload", 5, 0, func() error {
		attempts++
		return fatal
	}, func(error) bool { return false })

	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, attempts)
}

func TestDo_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, "fetch", 10, 50*time.Millisecond, func() error {
		attempts++
		cancel()
		return errors.New("transient")
	}, Always)

	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestAlways(t *testing.T) {
	require.True(t, Always(errors.New("anything")))
	require.False(t, Always(context.Canceled))
}
