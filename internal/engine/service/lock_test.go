package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesSession(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "s1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionBusy)

	other, err := l.Acquire(ctx, "s2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(ctx, "s1")
	require.NoError(t, err)
	again()
}

func TestNewSessionLocker(t *testing.T) {
	l, err := NewSessionLocker("", nil, 0)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLocker{}, l)

	l, err = NewSessionLocker(LockNone, nil, 0)
	require.NoError(t, err)
	r1, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	r2, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	r1()
	r2()

	_, err = NewSessionLocker(LockRedis, nil, 0)
	assert.Error(t, err)

	_, err = NewSessionLocker("zookeeper", nil, 0)
	assert.Error(t, err)
}
