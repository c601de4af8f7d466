package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLifecycle(hooks Hooks) (*Lifecycle, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	return New(Options{SettleDelay: DefaultSettleDelay, Now: clk.Now, Hooks: hooks}), clk
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disabled", Disabled.String())
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "enabled", Enabled.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestLifecycle_InitiallyDisabled(t *testing.T) {
	l, _ := newTestLifecycle(Hooks{})
	assert.Equal(t, Disabled, l.State())
	assert.False(t, l.Enabled())
	assert.False(t, l.Pending())
}

func TestLifecycle_EnableSettlesAfterDelay(t *testing.T) {
	starts := 0
	l, clk := newTestLifecycle(Hooks{Starting: func() { starts++ }})

	l.Enable()
	assert.Equal(t, Starting, l.State())
	assert.Equal(t, 1, starts)
	assert.True(t, l.Pending())

	clk.Advance(DefaultSettleDelay - time.Millisecond)
	assert.False(t, l.Advance(clk.Now()))
	assert.Equal(t, Starting, l.State())

	clk.Advance(time.Millisecond)
	assert.True(t, l.Advance(clk.Now()))
	assert.Equal(t, Enabled, l.State())
	assert.True(t, l.Enabled())
	assert.False(t, l.Pending())

	// Nothing left to advance.
	assert.False(t, l.Advance(clk.Now().Add(time.Hour)))
}

func TestLifecycle_DisableIsIdempotent(t *testing.T) {
	disables := 0
	l, _ := newTestLifecycle(Hooks{Disabled: func() { disables++ }})

	assert.False(t, l.Disable())
	assert.Equal(t, 0, disables)

	l.Enable()
	assert.True(t, l.Disable())
	assert.Equal(t, 1, disables)
	assert.False(t, l.Disable())
	assert.Equal(t, 1, disables)
	assert.Equal(t, Disabled, l.State())
}

func TestLifecycle_DisableCancelsPendingSettle(t *testing.T) {
	l, clk := newTestLifecycle(Hooks{})
	l.Enable()
	require.True(t, l.Disable())
	assert.False(t, l.Pending())

	clk.Advance(time.Second)
	assert.False(t, l.Advance(clk.Now()))
	assert.Equal(t, Disabled, l.State())
}

func TestLifecycle_ReEnableRestartsDelay(t *testing.T) {
	l, clk := newTestLifecycle(Hooks{})
	l.Enable()
	clk.Advance(400 * time.Millisecond)

	l.Enable()
	clk.Advance(200 * time.Millisecond)
	// The first deadline has passed but it was superseded.
	assert.False(t, l.Advance(clk.Now()))
	assert.Equal(t, Starting, l.State())

	clk.Advance(300 * time.Millisecond)
	assert.True(t, l.Advance(clk.Now()))
	assert.Equal(t, Enabled, l.State())
}

func TestLifecycle_EnableWhileEnabledRestarts(t *testing.T) {
	starts := 0
	l, clk := newTestLifecycle(Hooks{Starting: func() { starts++ }})
	l.Enable()
	clk.Advance(DefaultSettleDelay)
	require.True(t, l.Advance(clk.Now()))

	l.Enable()
	assert.Equal(t, Starting, l.State())
	assert.Equal(t, 2, starts)
	assert.True(t, l.Pending())
}

func TestLifecycle_RapidEnableDisableEnable(t *testing.T) {
	var transitions []State
	l, clk := newTestLifecycle(Hooks{Transition: func(_, to State) { transitions = append(transitions, to) }})

	l.Enable()
	l.Disable()
	l.Enable()

	assert.Equal(t, Starting, l.State())
	assert.True(t, l.Pending())

	clk.Advance(DefaultSettleDelay)
	assert.True(t, l.Advance(clk.Now()))
	assert.False(t, l.Advance(clk.Now()), "only one settle delay may complete")

	enabledCount := 0
	for _, s := range transitions {
		if s == Enabled {
			enabledCount++
		}
	}
	assert.Equal(t, 1, enabledCount)
	assert.Equal(t, []State{Starting, Disabled, Starting, Enabled}, transitions)
}

func TestLifecycle_ZeroSettleDelay(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	l := New(Options{Now: clk.Now})
	l.Enable()
	assert.Equal(t, Starting, l.State())
	assert.True(t, l.Advance(clk.Now()))
	assert.Equal(t, Enabled, l.State())
}

func TestLifecycle_GenerationIncrements(t *testing.T) {
	l, _ := newTestLifecycle(Hooks{})
	assert.Zero(t, l.Generation())
	l.Enable()
	l.Enable()
	l.Disable()
	l.Disable() // no-op
	assert.Equal(t, uint64(3), l.Generation())
}
