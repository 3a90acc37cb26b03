package generator

import (
	"sync"

	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// Slot is the per-provider result holder: the latest generated text or
// error message, and whether a request is in flight.
type Slot struct {
	Text    string `json:"text"`
	Loading bool   `json:"loading"`
}

// Snapshot is a consistent copy of the whole State.
type Snapshot struct {
	Visible bool                 `json:"visible"`
	Cycle   uint64               `json:"cycle"`
	Slots   map[provider.ID]Slot `json:"slots"`
}

// State holds the three result slots of one session. Each generation task
// writes only its own slot. A write from a cycle older than the one that
// currently owns the slot is dropped, so only one cycle's results are ever
// visible. All methods are safe for concurrent use.
type State struct {
	mu        sync.Mutex
	visible   bool
	cycle     uint64
	slots     map[provider.ID]Slot
	owner     map[provider.ID]uint64
	listeners map[int]func(provider.ID)
	nextID    int
}

// NewState creates a State with every slot showing its placeholder text.
func NewState() *State {
	s := &State{
		slots:     make(map[provider.ID]Slot),
		owner:     make(map[provider.ID]uint64),
		listeners: make(map[int]func(provider.ID)),
	}
	for _, id := range provider.IDs() {
		s.slots[id] = Slot{Text: PlaceholderText(id)}
	}
	return s
}

// Slot returns the current contents of one slot.
func (s *State) Slot(id provider.ID) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id]
}

// Visible reports whether the result area has been revealed.
func (s *State) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Visible: s.visible,
		Cycle:   s.cycle,
		Slots:   make(map[provider.ID]Slot, len(s.slots)),
	}
	for id, slot := range s.slots {
		snap.Slots[id] = slot
	}
	return snap
}

// OnChange registers fn to be called after any slot changes. fn runs on the
// goroutine that made the change and must not block. The returned function
// removes the listener.
func (s *State) OnChange(fn func(provider.ID)) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// begin reveals the result area and starts a new cycle that owns every slot.
func (s *State) begin() uint64 {
	s.mu.Lock()
	s.visible = true
	s.cycle++
	cycle := s.cycle
	for _, id := range provider.IDs() {
		s.owner[id] = cycle
	}
	s.mu.Unlock()

	s.notify("")
	return cycle
}

func (s *State) startLoading(cycle uint64, id provider.ID) {
	s.update(cycle, id, func(slot *Slot) { slot.Loading = true })
}

// settle stores the final text for a slot and clears its loading flag.
func (s *State) settle(cycle uint64, id provider.ID, text string) {
	s.update(cycle, id, func(slot *Slot) {
		slot.Text = text
		slot.Loading = false
	})
}

func (s *State) update(cycle uint64, id provider.ID, fn func(*Slot)) {
	s.mu.Lock()
	if s.owner[id] != cycle {
		s.mu.Unlock()
		return
	}
	slot := s.slots[id]
	fn(&slot)
	s.slots[id] = slot
	s.mu.Unlock()

	s.notify(id)
}

func (s *State) notify(id provider.ID) {
	s.mu.Lock()
	fns := make([]func(provider.ID), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
