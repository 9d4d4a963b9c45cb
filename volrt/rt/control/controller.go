package control

import (
	"sync"
	"sync/atomic"

	volray "github.com/gekko3d/volray"
)

// Source selects the target the presentation stage shows.
type Source int32

const (
	SourceComposited Source = iota
	SourceExitPoints
)

func (s Source) String() string {
	if s == SourceExitPoints {
		return "exit-points"
	}
	return "composited"
}

// Controller turns key events into parameter changes. Held keys act once
// per Poll; toggles act on release. It is safe to feed it from several
// goroutines (window callbacks and preview connections).
type Controller struct {
	mu       sync.Mutex
	keys     KeySet
	bindings map[int]float32

	step     *StepSize
	source   atomic.Int32
	quit     atomic.Bool
	snapshot atomic.Bool

	log volray.Logger
}

func NewController(step *StepSize, increment float32, log volray.Logger) *Controller {
	if step == nil {
		step = NewStepSize(DefaultStep, DefaultBounds)
	}
	if increment <= 0 {
		increment = DefaultIncrement
	}
	return &Controller{
		step: step,
		bindings: map[int]float32{
			KeyStepUp:   increment,
			KeyStepDown: -increment,
		},
		log: volray.OrNop(log),
	}
}

func (c *Controller) Step() *StepSize {
	return c.step
}

func (c *Controller) KeyDown(key int) {
	key = Normalize(key)
	c.mu.Lock()
	c.keys.Press(key)
	c.mu.Unlock()
}

func (c *Controller) KeyUp(key int) {
	key = Normalize(key)
	c.mu.Lock()
	held := c.keys.Held(key)
	c.keys.Release(key)
	c.mu.Unlock()
	if !held {
		return
	}

	switch key {
	case KeySpace:
		s := c.ToggleSource()
		c.log.Infof("presenting %s", s)
	case KeyEscape:
		c.quit.Store(true)
	case KeySnapshot:
		c.snapshot.Store(true)
	}
}

// Poll applies the effect of every held, bound key exactly once and
// reports whether the step size changed.
func (c *Controller) Poll() bool {
	var deltas []float32
	c.mu.Lock()
	c.keys.Each(func(key int) {
		if d, ok := c.bindings[key]; ok {
			deltas = append(deltas, d)
		}
	})
	c.mu.Unlock()

	if len(deltas) == 0 {
		return false
	}
	// each key is its own clamped step, in ascending key order
	before := c.step.Get()
	after := before
	for _, d := range deltas {
		after = c.step.Adjust(d)
	}
	if after != before {
		c.log.Debugf("step size %.6f", after)
	}
	return after != before
}

func (c *Controller) Source() Source {
	return Source(c.source.Load())
}

func (c *Controller) SetSource(s Source) {
	c.source.Store(int32(s))
}

func (c *Controller) ToggleSource() Source {
	for {
		old := c.source.Load()
		next := int32(SourceExitPoints)
		if Source(old) == SourceExitPoints {
			next = int32(SourceComposited)
		}
		if c.source.CompareAndSwap(old, next) {
			return Source(next)
		}
	}
}

// Quit reports whether escape was released.
func (c *Controller) Quit() bool {
	return c.quit.Load()
}

// TakeSnapshot reports and clears a pending snapshot request.
func (c *Controller) TakeSnapshot() bool {
	return c.snapshot.Swap(false)
}
