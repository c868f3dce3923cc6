package util

import (
	"testing"
	"time"
)

func TestEvent(t *testing.T) {
	e := NewEvent()
	if e.HasBeenNotified() {
		t.Fatalf("new event should not be notified")
	}

	done := make(chan bool)
	go func() {
		e.Wait()
		done <- true
	}()

	e.Notify()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after Notify")
	}
	if !e.HasBeenNotified() {
		t.Errorf("HasBeenNotified = false after Notify")
	}

	// Notify is idempotent and Wait returns immediately once notified.
	e.Notify()
	e.Wait()
}
