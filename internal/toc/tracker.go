package toc

import (
	"net/url"
	"sync"
	"time"
)

// HeaderOffset is the vertical space, in pixels, reserved for the sticky
// header. A heading counts as passed once its top edge reaches this line.
const HeaderOffset = 140

// DefaultSuppression is how long scroll-driven recomputation is skipped
// after a programmatic scroll, so the smooth scroll's intermediate frames
// don't fight the clicked target.
const DefaultSuppression = time.Second

// Surface abstracts the rendered document the tracker observes: heading
// geometry, programmatic scrolling, and URL-fragment updates.
type Surface interface {
	// HeadingTop reports the top edge of the heading with the given id,
	// relative to the viewport. ok is false when the anchor no longer
	// exists in the rendered document.
	HeadingTop(id string) (top int, ok bool)
	// ScrollTo smooth-scrolls the heading to the top of the viewport.
	ScrollTo(id string)
	// ReplaceFragment swaps the visible URL fragment without adding a
	// history entry. The fragment is already percent-encoded.
	ReplaceFragment(fragment string)
}

// Tracker owns the active-heading state for one rendered document. Build a
// fresh Tracker whenever the displayed post changes; stale trackers must be
// discarded together with their scroll listeners.
type Tracker struct {
	headings []Heading
	surface  Surface
	now      func() time.Time
	suppress time.Duration

	mu            sync.Mutex
	activeID      string
	suppressUntil time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the tracker's time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithSuppression overrides the post-click suppression window.
func WithSuppression(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.suppress = d }
}

// NewTracker creates a tracker for the given outline and evaluates the
// active heading once, mirroring the initial computation on mount.
func NewTracker(headings []Heading, surface Surface, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		headings: headings,
		surface:  surface,
		now:      time.Now,
		suppress: DefaultSuppression,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.OnScroll()
	return t
}

// ActiveID returns the current active heading id, or "" when the document
// has no headings.
func (t *Tracker) ActiveID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeID
}

// OnScroll recomputes the active heading from current geometry: the last
// heading whose top edge is at or above the header offset wins; if none
// qualify the first heading does. Resize events share this handler. During
// a suppression window the call is a no-op.
func (t *Tracker) OnScroll() {
	if len(t.headings) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.now().Before(t.suppressUntil) {
		return
	}

	current := ""
	for _, h := range t.headings {
		top, ok := t.surface.HeadingTop(h.ID)
		if !ok {
			continue
		}
		if top-HeaderOffset <= 0 {
			current = h.ID
		} else {
			break
		}
	}
	if current == "" {
		current = t.headings[0].ID
	}
	if current != "" {
		t.activeID = current
	}
}

// Click handles a table-of-contents click: scroll to the heading, mark it
// active immediately regardless of scroll position, replace the URL
// fragment, and open the suppression window. A stale id is a no-op.
func (t *Tracker) Click(id string) {
	if _, ok := t.surface.HeadingTop(id); !ok {
		return
	}

	t.surface.ScrollTo(id)

	t.mu.Lock()
	t.activeID = id
	t.suppressUntil = t.now().Add(t.suppress)
	t.mu.Unlock()

	t.surface.ReplaceFragment(url.PathEscape(id))
}
