// Package report provides assertion sinks for datacheck results.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Assertion is one recorded pass/fail outcome with optional diagnostic.
type Assertion struct {
	Description string
	Passed      bool
	Diagnostic  string
}

// Sink records named assertion outcomes. Implementations own aggregation
// and formatting; validation routines only append.
type Sink interface {
	Record(description string, passed bool, diagnostic string)
}

// Collector is an in-memory sink used by the runner and by tests.
type Collector struct {
	mu         sync.Mutex
	assertions []Assertion
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record appends one assertion outcome.
func (c *Collector) Record(description string, passed bool, diagnostic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assertions = append(c.assertions, Assertion{
		Description: description,
		Passed:      passed,
		Diagnostic:  diagnostic,
	})
}

// Assertions returns a copy of everything recorded so far.
func (c *Collector) Assertions() []Assertion {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Assertion, len(c.assertions))
	copy(out, c.assertions)
	return out
}

// Failed returns the failed assertions only.
func (c *Collector) Failed() []Assertion {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Assertion
	for _, a := range c.assertions {
		if !a.Passed {
			out = append(out, a)
		}
	}
	return out
}

// Counts returns (passed, failed) totals.
func (c *Collector) Counts() (passed, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.assertions {
		if a.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// LogSink emits each assertion as a structured log event.
type LogSink struct {
	logger zerolog.Logger
	check  string
}

// NewLogSink returns a sink logging under the given check name.
func NewLogSink(logger zerolog.Logger, check string) *LogSink {
	return &LogSink{logger: logger, check: check}
}

// Record logs the assertion at info (pass) or warn (fail) level.
func (s *LogSink) Record(description string, passed bool, diagnostic string) {
	ev := s.logger.Info()
	if !passed {
		ev = s.logger.Warn()
	}
	if s.check != "" {
		ev = ev.Str("check", s.check)
	}
	ev.Bool("ok", passed).
		Str("diagnostic", diagnostic).
		Msg(description)
}

// TAPWriter streams assertions in TAP format. The plan line is written by
// Flush once the total is known.
type TAPWriter struct {
	mu    sync.Mutex
	w     io.Writer
	count int
}

// NewTAPWriter returns a TAP sink writing to w.
func NewTAPWriter(w io.Writer) *TAPWriter {
	return &TAPWriter{w: w}
}

// Record writes one "ok"/"not ok" TAP line, diagnostics as comments.
func (t *TAPWriter) Record(description string, passed bool, diagnostic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	status := "ok"
	if !passed {
		status = "not ok"
	}
	fmt.Fprintf(t.w, "%s %d - %s\n", status, t.count, description)
	if diagnostic != "" {
		for _, line := range strings.Split(diagnostic, "\n") {
			fmt.Fprintf(t.w, "# %s\n", line)
		}
	}
}

// Skip writes a TAP skip directive for a check that did not run.
func (t *TAPWriter) Skip(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	fmt.Fprintf(t.w, "ok %d # SKIP %s\n", t.count, reason)
}

// Flush writes the trailing plan line.
func (t *TAPWriter) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "1..%d\n", t.count)
}

// Tee fans one assertion stream out to several sinks.
type Tee []Sink

// Record forwards to every sink in order.
func (t Tee) Record(description string, passed bool, diagnostic string) {
	for _, s := range t {
		s.Record(description, passed, diagnostic)
	}
}
