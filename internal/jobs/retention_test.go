package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPruner struct {
	mu      sync.Mutex
	calls   []time.Duration
	deleted int64
	err     error
}

func (m *mockPruner) DeleteOldDeliveries(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, olderThan)
	return m.deleted, m.err
}

func (m *mockPruner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestNewRetentionJob_Defaults(t *testing.T) {
	job := NewRetentionJob(&mockPruner{}, RetentionConfig{})

	assert.Equal(t, 30*24*time.Hour, job.config.Retention)
	assert.Equal(t, 24*time.Hour, job.config.Interval)
	assert.NotNil(t, job.config.Logger)
}

func TestRetentionJob_Run(t *testing.T) {
	store := &mockPruner{deleted: 12}
	var buf bytes.Buffer
	job := NewRetentionJob(store, RetentionConfig{
		Retention: 48 * time.Hour,
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})

	result, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(12), result.Deleted)
	assert.Equal(t, []time.Duration{48 * time.Hour}, store.calls)
	assert.Contains(t, buf.String(), "deleted=12")
}

func TestRetentionJob_RunError(t *testing.T) {
	job := NewRetentionJob(&mockPruner{err: errors.New("db down")}, RetentionConfig{})

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestRetentionJob_StartRunsUntilCancelled(t *testing.T) {
	store := &mockPruner{err: errors.New("transient")}
	job := NewRetentionJob(store, RetentionConfig{
		Interval: 10 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
