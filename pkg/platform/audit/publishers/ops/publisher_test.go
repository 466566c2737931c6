package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
)

type flakySink struct {
	err   error
	calls int
}

func (s *flakySink) Emit(ctx context.Context, _ audit.Event) error {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	return s.err
}

func (s *flakySink) Close() error { return nil }

func testEvent() audit.Event {
	return audit.Event{
		ID:            uuid.New(),
		Type:          audit.EventVerificationCompleted,
		ApplicationID: "1001",
		Status:        "verified",
	}
}

func TestPublisher_ForwardsEvents(t *testing.T) {
	sink := memory.NewInMemoryStore()
	p := New(sink)

	require.NoError(t, p.Emit(context.Background(), testEvent()))

	events, err := sink.ListByApplication(context.Background(), "1001")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_CircuitBreaker(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	sink := &flakySink{err: errors.New("broker unreachable")}
	p := New(sink, WithBreaker(breaker), WithTimeout(time.Second))
	ctx := context.Background()

	assert.Error(t, p.Emit(ctx, testEvent()))
	assert.Error(t, p.Emit(ctx, testEvent()))
	require.True(t, breaker.IsOpen())

	err := p.Emit(ctx, testEvent())
	assert.ErrorIs(t, err, sentinel.ErrCircuitOpen)
	assert.Equal(t, 2, sink.calls, "open circuit skips delivery")

	now = now.Add(time.Minute)
	sink.err = nil
	require.NoError(t, p.Emit(ctx, testEvent()))
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 3, sink.calls)
}
