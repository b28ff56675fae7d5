package faildetector

import (
	"time"

	"github.com/maxpoletaev/siloring/membership"
)

type ProbeStatus uint8

const (
	// ProbeUnknown means the outcome says nothing about the target, for
	// example when the intermediary itself is degraded.
	ProbeUnknown ProbeStatus = iota
	ProbeFailed
	ProbeSucceeded
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeFailed:
		return "failed"
	case ProbeSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// IndirectProbeResponse is returned by an intermediary that probed the
// target on behalf of another silo.
type IndirectProbeResponse struct {
	Succeeded               bool          `json:"succeeded"`
	IntermediaryHealthScore int           `json:"intermediary_health_score"`
	ProbeResponseTime       time.Duration `json:"probe_response_time"`
	FailureMessage          string        `json:"failure_message,omitempty"`
}

// ProbeResult is reported to the cluster monitor after every probe.
type ProbeResult struct {
	Status           ProbeStatus
	FailedProbeCount int
	Direct           bool

	// Set for indirect probes only.
	Intermediary            membership.SiloAddress
	IntermediaryHealthScore int
}
