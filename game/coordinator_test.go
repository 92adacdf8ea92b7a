package game

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinatorSerializes(t *testing.T) {
	c := newCoordinator()

	// A plain counter is only safe if do() really serializes callers.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.do("game-1", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestCoordinatorSessionsIndependent(t *testing.T) {
	c := newCoordinator()

	hold := make(chan struct{})
	started := make(chan struct{})
	go c.do("game-a", func() error {
		close(started)
		<-hold
		return nil
	})
	<-started

	// game-b must not wait on game-a's lock.
	done := make(chan struct{})
	go func() {
		c.do("game-b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("intent for an unrelated session blocked")
	}
	close(hold)
}

func TestCoordinatorRejectsBacklog(t *testing.T) {
	c := newCoordinator()

	hold := make(chan struct{})
	started := make(chan struct{})
	go c.do("game-1", func() error {
		close(started)
		<-hold
		return nil
	})
	<-started

	// Fill the queue behind the held lock.
	var wg sync.WaitGroup
	for i := 0; i < maxPending-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.do("game-1", func() error { return nil })
		}()
	}

	g := c.guard("game-1")
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&g.pending) < maxPending {
		if time.Now().After(deadline) {
			t.Fatal("backlog never filled")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.do("game-1", func() error { return nil }); !errors.Is(err, ErrBusy) {
		t.Errorf("over-limit intent = %v, want ErrBusy", err)
	}

	close(hold)
	wg.Wait()
}
