package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/comigor/guruchat/internal/gesture"
	"github.com/comigor/guruchat/internal/history"
	"github.com/comigor/guruchat/internal/row"
)

// Hit zones of a drawer row, in cells. The delete action sits under the row
// on the left and is uncovered as the row slides right; the edit action is a
// separate target at the right edge.
const (
	deleteLabel = "[x] "
	editLabel   = " [e]"
	deleteWidth = len(deleteLabel)
	editWidth   = len(editLabel)

	drawerHeaderLines = 2
)

var (
	drawerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f4f7ff"))
	groupStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9a9a9a"))
	deleteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#d64a1e"))
	deleteDimStyle   = deleteStyle.Faint(true)
	pressedStyle     = lipgloss.NewStyle().Reverse(true)
	readyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c26b"))
	editBtnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#c4cedf"))
)

type drawerLine struct {
	id    string
	group history.Group
}

// drawer is the history overlay. It owns one row controller per entry and
// routes terminal mouse events to them as pointer events.
type drawer struct {
	store     *history.Store
	rowOpts   []row.Option
	cellWidth float64
	width     int

	rows  map[string]*row.Controller
	lines []drawerLine

	active  string
	activeY int

	editor  textinput.Model
	editing string

	selected string
}

func newDrawer(store *history.Store, cellWidth float64, gestureOpts []gesture.Option) *drawer {
	editor := textinput.New()
	editor.Prompt = ""
	editor.CharLimit = 120

	d := &drawer{
		store:     store,
		cellWidth: cellWidth,
		width:     80,
		rows:      make(map[string]*row.Controller),
		editor:    editor,
	}
	d.rowOpts = []row.Option{
		row.WithGestureOptions(gestureOpts...),
		row.OnSelect(func(id string) { d.selected = id }),
		row.OnFocus(func(id string) { d.editing = id }),
	}
	d.sync()
	return d
}

// sync rebuilds the layout from the store, keeping each surviving row's
// interaction state.
func (d *drawer) sync() {
	listing := d.store.ListByGroup()
	seen := make(map[string]bool, len(d.rows))
	d.lines = d.lines[:0]

	for i, g := range d.store.Groups() {
		if i > 0 {
			d.lines = append(d.lines, drawerLine{})
		}
		d.lines = append(d.lines, drawerLine{group: g})
		for _, e := range listing[g] {
			seen[e.ID] = true
			if r, ok := d.rows[e.ID]; ok {
				r.Sync(e)
			} else {
				d.rows[e.ID] = row.New(e, d.store, d.rowOpts...)
			}
			d.lines = append(d.lines, drawerLine{id: e.ID})
		}
	}
	for id := range d.rows {
		if !seen[id] {
			delete(d.rows, id)
		}
	}
	if d.active != "" && !seen[d.active] {
		d.active = ""
	}
	if d.editing != "" && !seen[d.editing] {
		d.editing = ""
		d.editor.Blur()
	}
}

// rowAt returns the row id drawn on screen line y.
func (d *drawer) rowAt(y int) string {
	i := y - drawerHeaderLines
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i].id
}

// lineOf returns the screen line of row id, or -1.
func (d *drawer) lineOf(id string) int {
	for i, l := range d.lines {
		if l.id == id && id != "" {
			return i + drawerHeaderLines
		}
	}
	return -1
}

func (d *drawer) px(x int) float64 {
	return float64(x) * d.cellWidth
}

func (d *drawer) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		return d.press(msg.X, msg.Y)
	case tea.MouseActionMotion:
		if d.active == "" {
			return nil
		}
		r := d.rows[d.active]
		if msg.Y != d.activeY {
			r.PointerLeave()
			d.active = ""
			return nil
		}
		r.PointerMove(d.px(msg.X))
	case tea.MouseActionRelease:
		if d.active == "" {
			return nil
		}
		d.rows[d.active].PointerUp()
		d.active = ""
	}
	return nil
}

func (d *drawer) press(x, y int) tea.Cmd {
	// A release the terminal dropped leaves the last press held.
	d.cancelPointer()
	id := d.rowAt(y)
	if d.editing != "" && (id != d.editing || x < deleteWidth) {
		d.blur()
	}
	if id == "" {
		return nil
	}
	r := d.rows[id]

	switch {
	case x < deleteWidth:
		r.Delete()
		d.sync()
		return nil
	case x >= d.width-editWidth:
		return d.beginEdit(id)
	}
	if r.Editing() {
		return nil
	}
	r.PointerDown(d.px(x))
	d.active, d.activeY = id, y
	return nil
}

// cancelPointer ends a held press the terminal will not finish, e.g. on
// focus loss.
func (d *drawer) cancelPointer() {
	if d.active == "" {
		return
	}
	d.rows[d.active].PointerCancel()
	d.active = ""
}

func (d *drawer) beginEdit(id string) tea.Cmd {
	r := d.rows[id]
	if r == nil || !r.BeginEdit() {
		return nil
	}
	d.editor.SetValue(r.View().Draft)
	d.editor.CursorEnd()
	return d.editor.Focus()
}

// blur commits the open editor, as losing focus does.
func (d *drawer) blur() {
	if d.editing == "" {
		return
	}
	if r := d.rows[d.editing]; r != nil {
		r.BlurEdit()
	}
	d.endEdit()
}

func (d *drawer) endEdit() {
	d.editing = ""
	d.editor.Blur()
	d.sync()
}

// handleKey feeds the open editor. It reports false when no editor is open.
func (d *drawer) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if d.editing == "" {
		return nil, false
	}
	r := d.rows[d.editing]
	switch msg.Type {
	case tea.KeyEnter:
		r.CommitEdit()
		d.endEdit()
		return nil, true
	case tea.KeyEsc:
		r.CancelEdit()
		d.endEdit()
		return nil, true
	}
	var cmd tea.Cmd
	d.editor, cmd = d.editor.Update(msg)
	r.UpdateDraft(d.editor.Value())
	return cmd, true
}

// close ends any held press and saves any open editor.
func (d *drawer) close() {
	d.cancelPointer()
	d.blur()
}

// takeSelected returns and clears the id chosen by a tap.
func (d *drawer) takeSelected() string {
	id := d.selected
	d.selected = ""
	return id
}

func (d *drawer) view() string {
	out := []string{
		drawerTitleStyle.Render("History") + groupStyle.Render("   esc back · drag a row right to delete"),
		"",
	}
	for _, l := range d.lines {
		switch {
		case l.id != "":
			out = append(out, d.renderRow(d.rows[l.id].View()))
		case l.group != "":
			out = append(out, groupStyle.Render(string(l.group)))
		default:
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

func (d *drawer) renderRow(v row.View) string {
	del := deleteDimStyle
	if v.DeleteOpacity >= 1 {
		del = deleteStyle
	}

	shift := int(v.Offset / d.cellWidth)
	bodyWidth := max(d.width-deleteWidth-editWidth-shift, 1)

	var body string
	if v.Editing {
		d.editor.Width = bodyWidth - 1
		body = d.editor.View()
	} else {
		title := runewidth.FillRight(runewidth.Truncate(v.Title, bodyWidth, "…"), bodyWidth)
		switch {
		case v.Pressed:
			body = pressedStyle.Render(title)
		case v.Phase == gesture.Revealed:
			body = readyStyle.Render(title)
		default:
			body = title
		}
	}
	return del.Render(deleteLabel) + strings.Repeat(" ", shift) + body + editBtnStyle.Render(editLabel)
}
