package editor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistryCreateAndGet(t *testing.T) {
	previews := newFakePreviews()
	reg := NewRegistry(func() *Controller {
		return NewController(Options{Generator: &fixedGenerator{}, Previews: previews})
	}, time.Hour, nil)

	id, ctrl := reg.Create()
	if id == "" || ctrl == nil {
		t.Fatalf("Create() = %q, %v", id, ctrl)
	}
	got, ok := reg.Get(id)
	if !ok || got != ctrl {
		t.Fatalf("Get(%q) = %v, %v; want the created controller", id, got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("Get(missing) reported a session")
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	previews := newFakePreviews()
	reg := NewRegistry(func() *Controller {
		return NewController(Options{Generator: &fixedGenerator{}, Previews: previews})
	}, 30*time.Minute, nil)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idleID, idle := reg.Create()
	if err := idle.SelectFile(context.Background(), photo); err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}
	activeID, _ := reg.Create()

	now = now.Add(20 * time.Minute)
	reg.Get(activeID)
	now = now.Add(15 * time.Minute)

	if evicted := reg.Sweep(); evicted != 1 {
		t.Fatalf("Sweep() = %d, want 1", evicted)
	}
	if _, ok := reg.Get(idleID); ok {
		t.Fatal("idle session survived the sweep")
	}
	if _, ok := reg.Get(activeID); !ok {
		t.Fatal("active session was evicted")
	}
	if previews.Live() != 0 {
		t.Fatalf("live previews = %d, want evicted session's preview released", previews.Live())
	}
	assertEmpty(t, idle.Snapshot())
}

func TestRegistrySweepDisabled(t *testing.T) {
	reg := NewRegistry(func() *Controller { return NewController(Options{}) }, 0, nil)
	reg.Create()
	reg.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if evicted := reg.Sweep(); evicted != 0 {
		t.Fatalf("Sweep() = %d, want 0 when eviction is disabled", evicted)
	}
}

func TestRegistryCloseResetsSessions(t *testing.T) {
	previews := newFakePreviews()
	reg := NewRegistry(func() *Controller {
		return NewController(Options{Generator: &fixedGenerator{}, Previews: previews})
	}, time.Hour, nil)
	_, ctrl := reg.Create()
	_ = ctrl.SelectFile(context.Background(), photo)

	reg.Close()
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d after Close", reg.Len())
	}
	if previews.Live() != 0 {
		t.Fatalf("live previews = %d after Close", previews.Live())
	}
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	reg := NewRegistry(func() *Controller { return NewController(Options{}) }, time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistryRunSweepsOnSchedule(t *testing.T) {
	previews := newFakePreviews()
	reg := NewRegistry(func() *Controller {
		return NewController(Options{Generator: &fixedGenerator{}, Previews: previews})
	}, time.Minute, nil)
	_, ctrl := reg.Create()
	_ = ctrl.SelectFile(context.Background(), photo)

	later := time.Now().Add(time.Hour)
	reg.now = func() time.Time { return later }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.Run(ctx, time.Second)

	deadline := time.After(5 * time.Second)
	for reg.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never evicted the idle session")
		case <-time.After(50 * time.Millisecond):
		}
	}
	if previews.Live() != 0 {
		t.Fatalf("live previews = %d after scheduled sweep", previews.Live())
	}
}

func TestRegistrySweepClosesEvictedControllers(t *testing.T) {
	previews := newFakePreviews()
	reg := NewRegistry(func() *Controller {
		return NewController(Options{Generator: &fixedGenerator{}, Previews: previews})
	}, time.Minute, nil)
	_, ctrl := reg.Create()
	later := time.Now().Add(time.Hour)
	reg.now = func() time.Time { return later }
	if evicted := reg.Sweep(); evicted != 1 {
		t.Fatalf("Sweep() = %d, want 1", evicted)
	}

	// A handler that fetched the controller before eviction may still select a file.
	if err := ctrl.SelectFile(context.Background(), photo); !errors.Is(err, ErrClosed) {
		t.Fatalf("SelectFile error = %v, want ErrClosed", err)
	}
	if previews.Live() != 0 {
		t.Fatalf("live previews = %d after selecting on an evicted session", previews.Live())
	}
}
