package indexing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an operation failing n times before succeeding.
func failing(n int, attempts *int) func(context.Context) error {
	return func(context.Context) error {
		*attempts++
		if *attempts <= n {
			return errors.New("embedding service unavailable")
		}
		return nil
	}
}

func TestBackoff_Do(t *testing.T) {
	tests := []struct {
		name         string
		attempts     int
		failures     int
		wantAttempts int
		wantErr      bool
	}{
		{name: "first try", attempts: 3, failures: 0, wantAttempts: 1},
		{name: "eventual success", attempts: 5, failures: 2, wantAttempts: 3},
		{name: "all attempts fail", attempts: 3, failures: 10, wantAttempts: 3, wantErr: true},
		{name: "single attempt", attempts: 1, failures: 1, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			b := Backoff{Attempts: tt.attempts, BaseDelay: time.Millisecond}
			err := b.Do(context.Background(), failing(tt.failures, &attempts))
			if tt.wantErr {
				assert.EqualError(t, err, "embedding service unavailable")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestBackoff_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		err := Backoff{Attempts: n}.Do(context.Background(), failing(0, &attempts))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, attempts)
	}
}

func TestBackoff_Permanent(t *testing.T) {
	attempts := 0
	err := Backoff{Attempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(ErrEmbeddingMismatch)
	})
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, Permanent(nil))
}

func TestBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Backoff{Attempts: 10, BaseDelay: 10 * time.Millisecond}.Do(ctx, func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestBackoff_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := Backoff{Attempts: 10, BaseDelay: 10 * time.Millisecond}.Do(ctx, func(context.Context) error {
		attempts++
		time.Sleep(30 * time.Millisecond)
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, attempts, 3)
}

func TestBackoff_DelayGrowsUpToCap(t *testing.T) {
	var gaps []time.Duration
	last := time.Now()
	attempts := 0

	b := Backoff{Attempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond}
	err := b.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts > 1 {
			gaps = append(gaps, time.Since(last))
		}
		last = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, gaps, 3)

	assert.GreaterOrEqual(t, gaps[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 20*time.Millisecond)
	assert.Less(t, gaps[2], 40*time.Millisecond, "delay should be capped")
}
