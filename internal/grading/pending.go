package grading

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Tracker keeps the in-flight background grading operations per participant.
// Starting one is non-blocking for the submitter; completing a test joins on
// every operation registered for that participant first. There is no
// cancellation: if the test completes while grades are still in flight, the
// completion waits.
//
// An entry whose operations all succeeded is pruned as soon as the last one
// finishes, so participants who never complete don't accumulate. An entry
// holding an error stays until Wait collects it.
type Tracker struct {
	mu     sync.Mutex
	groups map[string]*pendingGroup
}

type pendingGroup struct {
	g      errgroup.Group
	active int
	failed bool
}

func NewTracker() *Tracker {
	return &Tracker{groups: map[string]*pendingGroup{}}
}

// Go registers fn as a pending operation for the participant and runs it.
func (t *Tracker) Go(participantID string, fn func() error) {
	t.mu.Lock()
	pg, ok := t.groups[participantID]
	if !ok {
		pg = &pendingGroup{}
		t.groups[participantID] = pg
	}
	pg.active++
	t.mu.Unlock()

	pg.g.Go(func() error {
		err := fn()
		t.mu.Lock()
		pg.active--
		if err != nil {
			pg.failed = true
		}
		if pg.active == 0 && !pg.failed && t.groups[participantID] == pg {
			delete(t.groups, participantID)
		}
		t.mu.Unlock()
		return err
	})
}

// Wait blocks until every operation registered for the participant has
// finished and returns the first error among them. Safe to call with no
// pending operations.
func (t *Tracker) Wait(participantID string) error {
	t.mu.Lock()
	pg, ok := t.groups[participantID]
	delete(t.groups, participantID)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return pg.g.Wait()
}
