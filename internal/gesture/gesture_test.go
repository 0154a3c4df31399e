package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drag presses at 0, moves through xs and releases with up.
func drag(c *Controller, xs ...float64) Resolution {
	c.PointerDown(0)
	for _, x := range xs {
		c.PointerMove(x)
	}
	return c.PointerUp()
}

func reveal(t *testing.T, c *Controller) {
	t.Helper()
	drag(c, 60)
	require.Equal(t, Revealed, c.Phase())
}

func TestTapBelowJitter(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	require.Equal(t, Pressing, c.Phase())
	require.True(t, c.Pressed())

	c.PointerMove(3)
	require.Equal(t, Pressing, c.Phase())
	require.Equal(t, 3.0, c.Offset(), "offset follows the finger before the jitter threshold")

	res := c.PointerUp()
	require.Equal(t, Idle, c.Phase())
	require.Zero(t, c.Offset())
	require.False(t, c.Pressed())
	require.True(t, IsTap(res, c.Thresholds()))
}

func TestDragPastCommitReveals(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	c.PointerMove(60)
	require.Equal(t, Dragging, c.Phase())
	require.False(t, c.Pressed())

	res := c.PointerUp()
	require.Equal(t, Revealed, c.Phase())
	require.Equal(t, 70.0, c.Offset())
	require.Equal(t, 60.0, res.ReleaseOffset)
	require.False(t, IsTap(res, c.Thresholds()))
}

func TestReleaseThresholds(t *testing.T) {
	tests := []struct {
		at         float64
		wantPhase  Phase
		wantOffset float64
	}{
		{49, Idle, 0},
		{50, Idle, 0},
		{51, Revealed, 70},
		{200, Revealed, 70},
	}
	for _, tt := range tests {
		c := NewController()
		drag(c, tt.at)
		assert.Equal(t, tt.wantPhase, c.Phase(), "release at %v", tt.at)
		assert.Equal(t, tt.wantOffset, c.Offset(), "release at %v", tt.at)
	}
}

func TestOffsetClamped(t *testing.T) {
	c := NewController()
	c.PointerDown(100)
	c.PointerMove(40)
	require.Zero(t, c.Offset(), "leftward movement never goes negative")
	c.PointerMove(1000)
	require.Equal(t, 90.0, c.Offset())
	c.PointerMove(120)
	require.Equal(t, 20.0, c.Offset())
	require.Equal(t, Dragging, c.Phase())
}

func TestMovesWithoutPressIgnored(t *testing.T) {
	c := NewController()
	c.PointerMove(80)
	require.Equal(t, Idle, c.Phase())
	require.Zero(t, c.Offset())

	res := c.PointerUp()
	require.False(t, res.Tracked)
	require.False(t, IsTap(res, c.Thresholds()))
}

func TestTapOnRevealedKeepsItOpen(t *testing.T) {
	c := NewController()
	reveal(t, c)

	c.PointerDown(10)
	require.Equal(t, Pressing, c.Phase())
	require.Equal(t, 70.0, c.Offset())
	res := c.PointerUp()

	require.Equal(t, Revealed, c.Phase())
	require.Equal(t, 70.0, c.Offset())
	require.Equal(t, Revealed, res.Origin)
	require.False(t, IsTap(res, c.Thresholds()))
}

func TestRedragFromRevealedCloses(t *testing.T) {
	c := NewController()
	reveal(t, c)

	res := drag(c, 2)
	require.Equal(t, Idle, c.Phase())
	require.Zero(t, c.Offset())
	require.False(t, IsTap(res, c.Thresholds()), "closing an open row is not a selection")
}

func TestTerminalEventsResolveAlike(t *testing.T) {
	for _, end := range []func(*Controller) Resolution{
		(*Controller).PointerUp,
		(*Controller).PointerCancel,
		(*Controller).PointerLeave,
	} {
		c := NewController()
		c.PointerDown(0)
		c.PointerMove(60)
		res := end(c)
		require.True(t, res.Tracked)
		require.Equal(t, Revealed, c.Phase())
		require.Equal(t, 70.0, c.Offset())
	}
}

func TestOnlyUpCountsAsTap(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	res := c.PointerLeave()
	require.Equal(t, Idle, c.Phase())
	require.False(t, IsTap(res, c.Thresholds()))
}

func TestRevertOnInterruptPolicy(t *testing.T) {
	c := NewController(WithTerminalPolicy(RevertOnInterrupt))
	c.PointerDown(0)
	c.PointerMove(80)
	res := c.PointerCancel()
	require.True(t, res.Tracked)
	require.Equal(t, Idle, c.Phase())
	require.Zero(t, c.Offset())

	drag(c, 80)
	require.Equal(t, Revealed, c.Phase(), "a deliberate release still commits")
}

func TestDefaultPolicyCommitsAllTerminals(t *testing.T) {
	require.True(t, AllTerminalEventsCommit)
}

func TestEditingIgnoresPointerEvents(t *testing.T) {
	c := NewController()
	reveal(t, c)
	require.True(t, c.BeginEdit())
	require.True(t, c.Editing())

	c.PointerDown(0)
	c.PointerMove(10)
	res := c.PointerUp()
	c.PointerLeave()

	require.False(t, res.Tracked)
	require.Equal(t, Editing, c.Phase())
	require.Equal(t, 70.0, c.Offset())
	require.False(t, c.BeginEdit(), "already editing")

	c.EndEdit()
	require.Equal(t, Idle, c.Phase())
	require.Zero(t, c.Offset())
}

func TestNoEditWhileDragging(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	c.PointerMove(30)
	require.False(t, c.BeginEdit())
	require.Equal(t, Dragging, c.Phase())
	require.Equal(t, 30.0, c.Offset())
}

func TestEditFromPressAbandonsGesture(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	require.True(t, c.BeginEdit())

	c.PointerMove(60)
	c.PointerUp()
	require.Equal(t, Editing, c.Phase())

	c.EndEdit()
	c.PointerMove(60)
	require.Equal(t, Idle, c.Phase(), "the abandoned press is not resumed")
	require.Zero(t, c.Offset())
}

func TestCustomThresholds(t *testing.T) {
	th := Thresholds{Jitter: 1, MaxReveal: 40, RevealCommit: 20, RestingOpen: 30, TapMax: 2, DeleteVisible: 5}
	c := NewController(WithThresholds(th))
	drag(c, 21)
	require.Equal(t, Revealed, c.Phase())
	require.Equal(t, 30.0, c.Offset())
}

func TestNonFiniteMoveIsIgnored(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		c := NewController()
		c.PointerDown(0)
		c.PointerMove(x)
		assert.Equal(t, Pressing, c.Phase())
		assert.Zero(t, c.Offset())

		res := c.PointerUp()
		assert.True(t, res.Tracked)
		assert.Equal(t, Idle, c.Phase())

		c.PointerDown(0)
		assert.Equal(t, Pressing, c.Phase(), "the next press is honoured")
	}
}

func TestNonFinitePressNeverSticks(t *testing.T) {
	c := NewController()
	c.PointerDown(math.NaN())
	c.PointerMove(80)
	require.Zero(t, c.Offset())

	c.PointerUp()
	require.Equal(t, Idle, c.Phase())
}

func TestDraggedMoveAfterNonFiniteKeepsOffset(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	c.PointerMove(60)
	c.PointerMove(math.NaN())
	require.Equal(t, 60.0, c.Offset())

	c.PointerUp()
	require.Equal(t, Revealed, c.Phase())
	require.Equal(t, 70.0, c.Offset())
}
