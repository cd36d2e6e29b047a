package relay_test

import (
	"context"
	"testing"

	"github.com/ausculto/ausculto/internal/relay"
)

func TestTracker_AddRemoveCount(t *testing.T) {
	pipeline, _ := newTestPipeline(t, 100)
	tr := relay.NewTracker(nil)
	ctx := context.Background()

	a := relay.NewSession(relay.NewChannel(newFakeConn()), pipeline, nil)
	b := relay.NewSession(relay.NewChannel(newFakeConn()), pipeline, nil)

	tr.Add(ctx, a)
	tr.Add(ctx, b)
	if got := tr.Count(); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}

	tr.Remove(ctx, a)
	if got := tr.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}

	// Removing twice is a no-op.
	tr.Remove(ctx, a)
	if got := tr.Count(); got != 1 {
		t.Errorf("Count after double remove = %d, want 1", got)
	}
}

func TestTracker_CloseAll(t *testing.T) {
	pipeline, _ := newTestPipeline(t, 100)
	tr := relay.NewTracker(nil)
	ctx := context.Background()

	connA, connB := newFakeConn(), newFakeConn()
	a := relay.NewSession(relay.NewChannel(connA), pipeline, nil)
	b := relay.NewSession(relay.NewChannel(connB), pipeline, nil)
	tr.Add(ctx, a)
	tr.Add(ctx, b)

	tr.CloseAll()

	if connA.closeCalls != 1 {
		t.Errorf("first session close calls = %d, want 1", connA.closeCalls)
	}
	if connB.closeCalls != 1 {
		t.Errorf("second session close calls = %d, want 1", connB.closeCalls)
	}
}
