package app

import (
	"fmt"
	"strings"
	"time"

	volray "github.com/gekko3d/volray"
)

const defaultProfileWindow = 60

// Profiler keeps a moving average of named CPU timings over the last
// Window frames. Scopes are reported in first-seen order.
type Profiler struct {
	Window int

	scopes map[string]*timing
	starts map[string]time.Time
	order  []string

	lastReport time.Time
	now        func() time.Time
}

type timing struct {
	samples []time.Duration
	next    int
	sum     time.Duration
}

func NewProfiler() *Profiler {
	return &Profiler{
		Window: defaultProfileWindow,
		scopes: make(map[string]*timing),
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.starts[name] = p.now()
}

// EndScope records the time since the matching BeginScope. Unmatched calls
// are ignored.
func (p *Profiler) EndScope(name string) {
	start, ok := p.starts[name]
	if !ok {
		return
	}
	delete(p.starts, name)
	p.Record(name, p.now().Sub(start))
}

func (p *Profiler) Record(name string, d time.Duration) {
	t, ok := p.scopes[name]
	if !ok {
		window := p.Window
		if window <= 0 {
			window = defaultProfileWindow
		}
		t = &timing{samples: make([]time.Duration, 0, window)}
		p.scopes[name] = t
		p.order = append(p.order, name)
	}
	if len(t.samples) < cap(t.samples) {
		t.samples = append(t.samples, d)
	} else {
		t.sum -= t.samples[t.next]
		t.samples[t.next] = d
		t.next = (t.next + 1) % len(t.samples)
	}
	t.sum += d
}

func (p *Profiler) Average(name string) time.Duration {
	t, ok := p.scopes[name]
	if !ok || len(t.samples) == 0 {
		return 0
	}
	return t.sum / time.Duration(len(t.samples))
}

func (p *Profiler) Stats() string {
	var sb strings.Builder
	for _, name := range p.order {
		ms := float64(p.Average(name).Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "%-10s %6.2f ms\n", name, ms)
	}
	return sb.String()
}

// MaybeReport logs the averages at debug level at most once per interval
// and reports whether it did.
func (p *Profiler) MaybeReport(log volray.Logger, interval time.Duration) bool {
	now := p.now()
	if p.lastReport.IsZero() {
		p.lastReport = now
		return false
	}
	if now.Sub(p.lastReport) < interval {
		return false
	}
	p.lastReport = now
	for _, name := range p.order {
		log.Debugf("profile %s: %s", name, p.Average(name))
	}
	return true
}
