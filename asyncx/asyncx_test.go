package asyncx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncAll_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 3}
	got, err := AsyncAll(context.Background(), items, 0, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 30}, got)
}

func TestAsyncAll_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Int32

	_, err := AsyncAll(context.Background(), []int{0, 1, 2}, 0, func(ctx context.Context, n int) (int, error) {
		if n == 0 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
			return n, nil
		}
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), cancelled.Load())
}

func TestAsyncAll_Limit(t *testing.T) {
	var running, peak atomic.Int32
	_, err := AsyncAll(context.Background(), make([]int, 8), 2, func(context.Context, int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestAsyncAllSettled(t *testing.T) {
	out := AsyncAllSettled(context.Background(), []string{"ok", "bad"}, 0, func(_ context.Context, s string) (int, error) {
		if s == "bad" {
			return 0, errors.New("bad item")
		}
		return len(s), nil
	})
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].Value)
	assert.NoError(t, out[0].Err)
	assert.EqualError(t, out[1].Err, "bad item")
	assert.Equal(t, "bad", out[1].Item)
}
