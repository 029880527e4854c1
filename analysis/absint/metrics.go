package absint

import (
	"fmt"
	"time"
)

// Metrics encodes mechanisms for logging execution metrics.
type Metrics struct {
	steps     int
	created   int
	subsumed  int
	merges    int
	peakSpecs int
	retained  int
	time      time.Duration
	timer     time.Time
	Outcome   string
	errorMsg  interface{}
}

// Encoding of metric outcomes.
var (
	OUTCOME_SAFE   = "Safe"
	OUTCOME_UNSAFE = "Fail reachable"
	OUTCOME_PANIC  = "Panicked"
)

// initMetrics returns nil unless metrics are enabled.
func (c Config) initMetrics() *Metrics {
	if c.Metrics {
		return &Metrics{}
	}
	return nil
}

// Enabled checks whether the Metrics object is available.
func (m *Metrics) Enabled() bool {
	return m != nil
}

// TimerStart starts a timer before the analysis runs.
func (m *Metrics) TimerStart() {
	if m == nil {
		return
	}

	m.timer = time.Now()
}

func (m *Metrics) timerStop() {
	if m == nil {
		return
	}

	m.time = time.Since(m.timer)
}

// Step registers that a specialization was stepped.
func (m *Metrics) Step() {
	if m == nil {
		return
	}
	m.steps++
}

// AddSpec registers a new specialization, and the number of retained ones.
func (m *Metrics) AddSpec(retained int) {
	if m == nil {
		return
	}
	m.created++
	if retained > m.peakSpecs {
		m.peakSpecs = retained
	}
}

// Subsumed registers that a specialization was replaced by a subsuming one.
func (m *Metrics) Subsumed() {
	if m == nil {
		return
	}
	m.subsumed++
}

func (m *Metrics) Merge() {
	if m == nil {
		return
	}
	m.merges++
}

// Done instructs that the analysis reached a fixpoint.
func (m *Metrics) Done(safe bool, retained int) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.timerStop()
	m.retained = retained
	if safe {
		m.Outcome = OUTCOME_SAFE
	} else {
		m.Outcome = OUTCOME_UNSAFE
	}
}

// Panic instructs that the analysis threw an exception.
func (m *Metrics) Panic(err interface{}) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.Outcome = OUTCOME_PANIC
	m.timerStop()
	m.errorMsg = err
}

// Performance logs how fast the analysis ran.
func (m *Metrics) Performance() string {
	if m == nil {
		return "- no metrics gathered -"
	}

	return m.time.String()
}

// Error prints the error message resulting from running the analysis.
func (m *Metrics) Error() string {
	if m == nil {
		return ""
	}

	return fmt.Sprint(m.errorMsg)
}

func (m *Metrics) Steps() int {
	if m == nil {
		return 0
	}
	return m.steps
}

func (m *Metrics) Merges() int {
	if m == nil {
		return 0
	}
	return m.merges
}

func (m *Metrics) String() string {
	if m == nil {
		return "- no metrics gathered -"
	}

	return fmt.Sprintf(
		"Outcome: %s\nTime: %s\nSteps: %d\nSpecializations: %d created, %d retained, %d at peak\nSubsumed: %d\nMerges: %d\n",
		m.Outcome, m.Performance(), m.steps,
		m.created, m.retained, m.peakSpecs,
		m.subsumed, m.merges)
}
