package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalcBackoff_Bounds(t *testing.T) {
	initial := time.Second
	maxBackoff := 10 * time.Second

	for failures := 1; failures <= 10; failures++ {
		base := min(time.Duration(float64(initial)*float64(int(1)<<(failures-1))), maxBackoff)
		for range 50 {
			got := calcBackoff(initial, maxBackoff, failures)
			require.GreaterOrEqual(t, got, time.Duration(0.8*float64(base)), "failures=%d", failures)
			require.LessOrEqual(t, got, time.Duration(1.2*float64(base)), "failures=%d", failures)
		}
	}
}

func TestCalcBackoff_Overflow(t *testing.T) {
	got := calcBackoff(time.Second, time.Minute, 200)
	require.LessOrEqual(t, got, time.Duration(1.2*float64(time.Minute)))
	require.Positive(t, got)
}

func TestStart_RunsImmediatelyAndRepeats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	err := Start(ctx, Config{Interval: time.Millisecond}, func(context.Context) error {
		if runs.Add(1) == 3 {
			cancel()
		}

		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(3), runs.Load())
}

func TestStart_BacksOffThenRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	cfg := Config{Interval: time.Millisecond, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
	err := Start(ctx, cfg, func(context.Context) error {
		n := runs.Add(1)
		switch {
		case n <= 3:
			return errors.New("upstream unavailable")
		case n == 5:
			cancel()
		}

		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(5), runs.Load())
}

func TestStart_StopsWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var runs atomic.Int32
	err := Start(ctx, Config{Interval: time.Hour}, func(context.Context) error {
		runs.Add(1)

		return nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, int32(1), runs.Load())
}
