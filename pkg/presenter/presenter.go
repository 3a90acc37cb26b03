// Package presenter turns generation state into the three result panes and
// tracks each pane's transient "copied" acknowledgment.
package presenter

import (
	"errors"
	"sync"
	"time"

	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// CopiedWindow is how long a pane shows its copied acknowledgment.
const CopiedWindow = 2 * time.Second

const (
	copyLabel   = "복사"
	copiedLabel = "복사됨"
)

// ErrNothingToCopy is returned by MarkCopied when the pane has no text.
var ErrNothingToCopy = errors.New("pane has no text to copy")

// Pane is the display state of one provider's result pane. Error strings are
// shown exactly like generated text.
type Pane struct {
	Provider  provider.ID `json:"provider"`
	Label     string      `json:"label"`
	Text      string      `json:"text"`
	Loading   bool        `json:"loading"`
	Copied    bool        `json:"copied"`
	CopyLabel string      `json:"copy_label"`
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithCopiedWindow overrides CopiedWindow.
func WithCopiedWindow(d time.Duration) Option {
	return func(p *Presenter) { p.window = d }
}

// WithOnChange registers a callback run whenever a pane's copied flag
// changes, including when it reverts.
func WithOnChange(fn func(provider.ID)) Option {
	return func(p *Presenter) { p.onChange = fn }
}

// Presenter renders panes from a generator.State. It is safe for concurrent
// use.
type Presenter struct {
	state    *generator.State
	window   time.Duration
	onChange func(provider.ID)

	mu    sync.Mutex
	seq   uint64
	marks map[provider.ID]copyMark
}

type copyMark struct {
	timer *time.Timer
	seq   uint64
}

// New creates a Presenter over state.
func New(state *generator.State, opts ...Option) *Presenter {
	p := &Presenter{
		state:  state,
		window: CopiedWindow,
		marks:  make(map[provider.ID]copyMark),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Panes returns every pane in display order.
func (p *Presenter) Panes() []Pane {
	snap := p.state.Snapshot()
	out := make([]Pane, 0, len(snap.Slots))
	for _, id := range provider.IDs() {
		slot := snap.Slots[id]
		copied := p.Copied(id)
		label := copyLabel
		if copied {
			label = copiedLabel
		}
		out = append(out, Pane{
			Provider:  id,
			Label:     id.Label(),
			Text:      slot.Text,
			Loading:   slot.Loading,
			Copied:    copied,
			CopyLabel: label,
		})
	}
	return out
}

// Text returns the text a copy action on id would place on the clipboard.
func (p *Presenter) Text(id provider.ID) string {
	return p.state.Slot(id).Text
}

// MarkCopied records that the pane's text reached the clipboard. The pane
// shows its acknowledgment for the copied window; copying again restarts the
// window. Other panes are unaffected.
func (p *Presenter) MarkCopied(id provider.ID) error {
	if p.Text(id) == "" {
		return ErrNothingToCopy
	}

	p.mu.Lock()
	if m, ok := p.marks[id]; ok {
		m.timer.Stop()
	}
	p.seq++
	seq := p.seq
	p.marks[id] = copyMark{
		timer: time.AfterFunc(p.window, func() { p.revert(id, seq) }),
		seq:   seq,
	}
	p.mu.Unlock()

	p.changed(id)
	return nil
}

// Copied reports whether id is inside its copied window.
func (p *Presenter) Copied(id provider.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.marks[id]
	return ok
}

// Close stops all pending revert timers.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, m := range p.marks {
		m.timer.Stop()
		delete(p.marks, id)
	}
}

// revert clears the acknowledgment unless a newer copy replaced mark seq.
func (p *Presenter) revert(id provider.ID, seq uint64) {
	p.mu.Lock()
	if m, ok := p.marks[id]; !ok || m.seq != seq {
		p.mu.Unlock()
		return
	}
	delete(p.marks, id)
	p.mu.Unlock()

	p.changed(id)
}

func (p *Presenter) changed(id provider.ID) {
	if p.onChange != nil {
		p.onChange(id)
	}
}
