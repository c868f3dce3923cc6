package util

import (
	"sync"
)

// Event is a one-shot notification that can be waited on by any number of
// goroutines.
type Event struct {
	notified bool
	c        *sync.Cond
}

func NewEvent() *Event {
	return &Event{
		c: sync.NewCond(&sync.Mutex{}),
	}
}

func (e *Event) Notify() {
	e.c.L.Lock()
	defer e.c.L.Unlock()
	if !e.notified {
		e.notified = true
		e.c.Broadcast()
	}
}

func (e *Event) Wait() {
	e.c.L.Lock()
	defer e.c.L.Unlock()
	for !e.notified {
		e.c.Wait()
	}
}

func (e *Event) HasBeenNotified() bool {
	e.c.L.Lock()
	defer e.c.L.Unlock()
	return e.notified
}
