// Package row binds one history entry to its gesture state machine and its
// inline rename editor, and turns what they resolve into store calls or a
// selection.
package row

import (
	"github.com/comigor/guruchat/internal/gesture"
	"github.com/comigor/guruchat/internal/history"
	"github.com/comigor/guruchat/internal/logger"
	"github.com/comigor/guruchat/internal/rename"
)

// dimmedOpacity is the delete action's opacity while the row is closed.
const dimmedOpacity = 0.5

// Store is the part of the history store a row mutates.
type Store interface {
	Rename(id, title string) bool
	Delete(id string) bool
}

// View is what a host needs to draw a row.
type View struct {
	ID            string
	Title         string
	Phase         gesture.Phase
	Offset        float64
	Pressed       bool
	Editing       bool
	Draft         string
	DeleteOpacity float64
}

// Controller drives one row.
type Controller struct {
	id       string
	store    Store
	gesture  *gesture.Controller
	rename   *rename.Session
	onSelect func(id string)
	focused  bool
}

// Option configures a Controller.
type Option func(*controllerOptions)

type controllerOptions struct {
	gesture  []gesture.Option
	onSelect func(id string)
	onFocus  func(id string)
}

// WithGestureOptions configures the row's gesture controller.
func WithGestureOptions(opts ...gesture.Option) Option {
	return func(o *controllerOptions) { o.gesture = append(o.gesture, opts...) }
}

// OnSelect is called with the entry id when a tap selects the row.
func OnSelect(f func(id string)) Option {
	return func(o *controllerOptions) { o.onSelect = f }
}

// OnFocus is called with the entry id when the rename editor wants focus.
func OnFocus(f func(id string)) Option {
	return func(o *controllerOptions) { o.onFocus = f }
}

// New returns a controller for entry.
func New(entry history.Entry, store Store, opts ...Option) *Controller {
	var o controllerOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		id:       entry.ID,
		store:    store,
		gesture:  gesture.NewController(o.gesture...),
		onSelect: o.onSelect,
	}
	c.rename = rename.New(c.gesture, entry.Title, func() {
		c.focused = true
		if o.onFocus != nil {
			o.onFocus(c.id)
		}
	})
	return c
}

// ID returns the entry id.
func (c *Controller) ID() string { return c.id }

// Sync refreshes the displayed title from a store snapshot.
func (c *Controller) Sync(entry history.Entry) {
	c.rename.SetTitle(entry.Title)
}

// PointerDown starts a press at x.
func (c *Controller) PointerDown(x float64) { c.gesture.PointerDown(x) }

// PointerMove follows a held press to x.
func (c *Controller) PointerMove(x float64) { c.gesture.PointerMove(x) }

// PointerUp ends the gesture and selects the row when it was a tap.
func (c *Controller) PointerUp() gesture.Resolution {
	res := c.gesture.PointerUp()
	if gesture.IsTap(res, c.gesture.Thresholds()) {
		logger.L.Debug("history row selected", "id", c.id)
		if c.onSelect != nil {
			c.onSelect(c.id)
		}
	}
	return res
}

// PointerCancel ends a press the platform interrupted.
func (c *Controller) PointerCancel() gesture.Resolution { return c.gesture.PointerCancel() }

// PointerLeave ends a press whose pointer left the row.
func (c *Controller) PointerLeave() gesture.Resolution { return c.gesture.PointerLeave() }

// Delete removes the entry from the store whatever the row's phase.
func (c *Controller) Delete() bool {
	ok := c.store.Delete(c.id)
	logger.L.Debug("history row delete", "id", c.id, "applied", ok)
	return ok
}

// BeginEdit opens the rename editor on the current title.
func (c *Controller) BeginEdit() bool {
	return c.rename.Begin(c.rename.Title())
}

// UpdateDraft replaces the editor text.
func (c *Controller) UpdateDraft(text string) {
	c.rename.Update(text)
}

// CommitEdit closes the editor, renaming the entry when the draft is a real
// change.
func (c *Controller) CommitEdit() bool {
	c.focused = false
	next, ok := c.rename.Commit()
	if !ok {
		return false
	}
	applied := c.store.Rename(c.id, next)
	logger.L.Debug("history row rename", "id", c.id, "applied", applied)
	return applied
}

// BlurEdit is a loss of editor focus; it saves like CommitEdit.
func (c *Controller) BlurEdit() bool {
	if !c.rename.Active() {
		return false
	}
	return c.CommitEdit()
}

// CancelEdit closes the editor without saving.
func (c *Controller) CancelEdit() {
	c.focused = false
	c.rename.Cancel()
}

// Editing reports whether the rename editor is open.
func (c *Controller) Editing() bool {
	return c.rename.Active()
}

// Focused reports whether the rename editor asked for and still holds focus.
func (c *Controller) Focused() bool {
	return c.focused && c.rename.Active()
}

// View returns the current render snapshot.
func (c *Controller) View() View {
	phase := c.gesture.Phase()
	offset := c.gesture.Offset()
	opacity := dimmedOpacity
	if phase == gesture.Revealed || offset > c.gesture.Thresholds().DeleteVisible {
		opacity = 1
	}
	return View{
		ID:            c.id,
		Title:         c.rename.Title(),
		Phase:         phase,
		Offset:        offset,
		Pressed:       c.gesture.Pressed(),
		Editing:       c.rename.Active(),
		Draft:         c.rename.Draft(),
		DeleteOpacity: opacity,
	}
}
