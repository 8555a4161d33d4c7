package memory

import (
	"sync"
	"testing"
)

func TestPendingLifecycle(t *testing.T) {
	repo := NewSessionStateRepository()

	if _, found := repo.GetPending("s1"); found {
		t.Fatal("fresh repo reports a pending turn")
	}

	repo.SetPending("s1", "hello")
	state, found := repo.GetPending("s1")
	if !found {
		t.Fatal("pending turn not found after SetPending")
	}
	if state.PendingMessage != "hello" {
		t.Errorf("PendingMessage = %q, want %q", state.PendingMessage, "hello")
	}
	if state.PendingSince.IsZero() {
		t.Error("PendingSince not stamped")
	}

	repo.ClearPending("s1")
	if _, found := repo.GetPending("s1"); found {
		t.Error("pending turn survives ClearPending")
	}
}

func TestPendingIsolatedPerSession(t *testing.T) {
	repo := NewSessionStateRepository()

	repo.SetPending("s1", "first")
	repo.SetPending("s2", "second")
	repo.ClearPending("s1")

	if _, found := repo.GetPending("s1"); found {
		t.Error("s1 still pending")
	}
	if state, found := repo.GetPending("s2"); !found || state.PendingMessage != "second" {
		t.Error("s2 lost its pending turn")
	}
}

func TestLockStablePerSession(t *testing.T) {
	repo := NewSessionStateRepository()

	if repo.Lock("s1") != repo.Lock("s1") {
		t.Error("same session returned different mutexes")
	}
	if repo.Lock("s1") == repo.Lock("s2") {
		t.Error("different sessions share a mutex")
	}
}

func TestLockSerializes(t *testing.T) {
	repo := NewSessionStateRepository()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := repo.Lock("s1")
			l.Lock()
			counter++
			l.Unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestForgetDropsStateAndLock(t *testing.T) {
	repo := NewSessionStateRepository()

	repo.SetPending("s1", "pending")
	before := repo.Lock("s1")
	repo.Forget("s1")

	if _, found := repo.GetPending("s1"); found {
		t.Error("pending state survives Forget")
	}
	if before == repo.Lock("s1") {
		t.Error("lock survives Forget")
	}
}
