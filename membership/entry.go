package membership

import (
	"time"
)

// SuspectVote records that Voter suspected the silo at Time.
type SuspectVote struct {
	Voter SiloAddress `json:"voter"`
	Time  time.Time   `json:"time"`
}

// Entry is a single row of the membership table.
type Entry struct {
	Address      SiloAddress   `json:"address"`
	Name         string        `json:"name"`
	HostName     string        `json:"host_name"`
	Role         string        `json:"role,omitempty"`
	Status       SiloStatus    `json:"status"`
	StartTime    time.Time     `json:"start_time"`
	IAmAliveTime time.Time     `json:"i_am_alive_time"`
	Suspicions   []SuspectVote `json:"suspicions,omitempty"`
}

// Copy returns a deep copy of the entry. Entries shared through snapshots
// are never mutated in place, so every write starts from a copy.
func (e *Entry) Copy() *Entry {
	c := *e

	if e.Suspicions != nil {
		c.Suspicions = make([]SuspectVote, len(e.Suspicions))
		copy(c.Suspicions, e.Suspicions)
	}

	return &c
}

// AddSuspector appends a vote without any capacity check. It is used when
// declaring a silo dead, where the killer is recorded in addition to the
// votes that led to the decision.
func (e *Entry) AddSuspector(voter SiloAddress, at time.Time) {
	e.Suspicions = append(e.Suspicions, SuspectVote{Voter: voter, Time: at})
}

// AddOrUpdateSuspector records a vote from voter. An existing vote from the
// same voter is refreshed. When the list already holds maxVotes entries the
// oldest vote is overwritten, so the list never grows past maxVotes.
func (e *Entry) AddOrUpdateSuspector(voter SiloAddress, at time.Time, maxVotes int) {
	for i := range e.Suspicions {
		if e.Suspicions[i].Voter == voter {
			e.Suspicions[i].Time = at
			return
		}
	}

	if len(e.Suspicions) < maxVotes {
		e.AddSuspector(voter, at)
		return
	}

	oldest := 0
	for i := range e.Suspicions {
		if e.Suspicions[i].Time.Before(e.Suspicions[oldest].Time) {
			oldest = i
		}
	}

	e.Suspicions[oldest] = SuspectVote{Voter: voter, Time: at}
}

// FreshVotes returns the votes that have not expired at now. Votes with a
// timestamp in the future are considered fresh.
func (e *Entry) FreshVotes(now time.Time, expiration time.Duration) []SuspectVote {
	var fresh []SuspectVote

	for _, vote := range e.Suspicions {
		if now.Before(vote.Time) || now.Sub(vote.Time) <= expiration {
			fresh = append(fresh, vote)
		}
	}

	return fresh
}

// EffectiveIAmAliveTime is the last moment the silo is known to have been
// alive. A freshly started silo has not written a liveness timestamp yet,
// so its start time is used instead.
func (e *Entry) EffectiveIAmAliveTime() time.Time {
	if e.IAmAliveTime.After(e.StartTime) {
		return e.IAmAliveTime
	}

	return e.StartTime
}

// HasMissedIAmAlives reports whether the silo failed to refresh its liveness
// timestamp within the allowed period.
func (e *Entry) HasMissedIAmAlives(opts Options, now time.Time) bool {
	return now.Sub(e.EffectiveIAmAliveTime()) > opts.AllowedIAmAliveMissPeriod
}
