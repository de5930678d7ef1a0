package receiver

import (
	"sync"

	"github.com/cwsl/wwvsync/internal/syncfsm"
)

// Combiner picks the best available Epoch across N independent Receivers,
// one per HF carrier WWV/WWVH broadcasts the same timebase on. It is purely
// additive: it never mutates a member Receiver's own sync machine or
// epoch, it only reads snapshots and ranks them, modeled on the teacher's
// AudioExtensionManager registry-of-active-members pattern (register,
// unregister, look up by ID under an RWMutex).
type Combiner struct {
	mu      sync.RWMutex
	members map[string]*Receiver
}

// NewCombiner builds an empty Combiner. Receivers register themselves (or
// are registered by the caller wiring up multiple carriers) as they start.
func NewCombiner() *Combiner {
	return &Combiner{members: make(map[string]*Receiver)}
}

// Register adds a Receiver to the pool the Combiner ranks over.
func (c *Combiner) Register(r *Receiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[r.ID()] = r
}

// Unregister removes a Receiver, e.g. when its carrier is torn down.
func (c *Combiner) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members, id)
}

// Len reports how many receivers are currently registered.
func (c *Combiner) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Best returns the best-ranked Epoch among registered receivers and the ID
// of the receiver that produced it. A receiver still in SEARCHING
// (Epoch.Source == SourceNone) never wins. A LOCKED receiver outranks an
// ACQUIRING one whatever their confidences; within the same state the
// higher Epoch.Confidence wins. This lets the combiner fall back
// to a fading band's ACQUIRING estimate only when nothing is LOCKED.
func (c *Combiner) Best() (epoch syncfsm.Epoch, receiverID string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var bestState syncfsm.State
	for id, r := range c.members {
		ep := r.Epoch()
		if ep.Source == syncfsm.SourceNone {
			continue
		}
		st := r.State()
		switch {
		case !ok:
			epoch, receiverID, bestState, ok = ep, id, st, true
		case st > bestState:
			epoch, receiverID, bestState = ep, id, st
		case st == bestState && ep.Confidence > epoch.Confidence:
			epoch, receiverID = ep, id
		}
	}
	return epoch, receiverID, ok
}
