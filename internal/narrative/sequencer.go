// Package narrative drives the pre-game cut-scene: each narrative page
// is shown for a fixed dwell time or until the player advances it
// manually, fades out, and gives way to the next. The sequencer is a
// pure state machine; the TUI schedules the actual timers.
package narrative

import "time"

const (
	// DwellDuration is how long a page is shown before auto-advancing.
	DwellDuration = 8 * time.Second
	// FadeDuration is the fade-out before the next page appears.
	FadeDuration = time.Second
)

// Sequencer tracks the current page, the fade state, and an epoch
// counter that invalidates pending dwell timers. Both the dwell timer
// and a manual click can try to advance in the same tick; the first
// one wins and the other is a no-op.
type Sequencer struct {
	pages  int
	index  int
	epoch  int
	fading bool
	done   bool
}

// NewSequencer returns a sequencer over the given page count,
// positioned on the first page.
func NewSequencer(pages int) *Sequencer {
	return &Sequencer{pages: pages}
}

// Index is the current page index.
func (s *Sequencer) Index() int { return s.index }

// Fading reports whether a fade-out is in progress.
func (s *Sequencer) Fading() bool { return s.fading }

// Done reports whether the sequence has advanced past the last page.
func (s *Sequencer) Done() bool { return s.done }

// Epoch tags a scheduled dwell timer. A timer that fires with a stale
// epoch must be ignored.
func (s *Sequencer) Epoch() int { return s.epoch }

// Advance begins the fade-out for the current page. It reports whether
// the advance was accepted: a second advance during a fade, or any
// advance after the sequence is done, is rejected. Accepting an
// advance invalidates the pending dwell timer.
func (s *Sequencer) Advance() bool {
	if s.fading || s.done {
		return false
	}
	s.fading = true
	s.epoch++
	return true
}

// DwellElapsed is the timer-driven variant of Advance. The timer's
// epoch must match the current one; a timer that outlived a manual
// advance fires with a stale epoch and is dropped.
func (s *Sequencer) DwellElapsed(epoch int) bool {
	if epoch != s.epoch {
		return false
	}
	return s.Advance()
}

// FinishFade commits a completed fade: either moves to the next page
// or, on the last page, marks the sequence done. The caller restarts
// the dwell timer with the new epoch unless the sequence is done.
func (s *Sequencer) FinishFade() {
	if !s.fading {
		return
	}
	s.fading = false
	if s.index >= s.pages-1 {
		s.done = true
		return
	}
	s.index++
}
