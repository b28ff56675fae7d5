package membership

import (
	"time"
)

// Snapshot is an immutable, versioned view of the membership table. Entries
// must not be modified by readers; writers copy the entry first.
type Snapshot struct {
	Version int64
	Entries map[SiloAddress]*Entry
}

// NewSnapshot builds a snapshot from a table read. If the table contains the
// local silo, its status is replaced with the locally known one, since the
// local silo is always the authority on its own status.
func NewSnapshot(table *TableData, self SiloAddress, localStatus SiloStatus) *Snapshot {
	entries := make(map[SiloAddress]*Entry, len(table.Rows))

	for _, row := range table.Rows {
		entry := row.Entry

		if entry.Address == self && localStatus != StatusNone && entry.Status != localStatus {
			entry = entry.Copy()
			entry.Status = localStatus
		}

		entries[entry.Address] = entry
	}

	return &Snapshot{
		Version: table.Version.Version,
		Entries: entries,
	}
}

// initialSnapshot is published before the first table read. It contains only
// the local silo.
func initialSnapshot(self *Entry) *Snapshot {
	return &Snapshot{
		Version: -1,
		Entries: map[SiloAddress]*Entry{self.Address: self},
	}
}

func (s *Snapshot) Entry(addr SiloAddress) (*Entry, bool) {
	e, ok := s.Entries[addr]
	return e, ok
}

// Status returns the status of the silo, or StatusNone if it is unknown.
func (s *Snapshot) Status(addr SiloAddress) SiloStatus {
	if e, ok := s.Entries[addr]; ok {
		return e.Status
	}

	return StatusNone
}

// IsSuccessorTo reports whether s may replace other. A higher version always
// wins. Liveness writes do not bump the version, so at the same version s
// wins when it moves some entry forward and no entry backward.
func (s *Snapshot) IsSuccessorTo(other *Snapshot) bool {
	switch {
	case other == nil || s.Version > other.Version:
		return true
	case s.Version < other.Version || len(s.Entries) != len(other.Entries):
		return false
	}

	advanced := false

	for addr, entry := range s.Entries {
		prev, ok := other.Entries[addr]
		if !ok {
			return false
		}

		switch {
		case entry.Status < prev.Status || entry.IAmAliveTime.Before(prev.IAmAliveTime):
			return false
		case entry.Status > prev.Status || entry.IAmAliveTime.After(prev.IAmAliveTime):
			advanced = true
		}
	}

	return advanced
}

func (s *Snapshot) ActiveNodeCount() int {
	var n int

	for _, e := range s.Entries {
		if e.Status == StatusActive {
			n++
		}
	}

	return n
}

// ActiveNonStaleCount counts active silos that are keeping their liveness
// timestamp up to date.
func (s *Snapshot) ActiveNonStaleCount(opts Options, now time.Time) int {
	var n int

	for _, e := range s.Entries {
		if e.Status == StatusActive && !e.HasMissedIAmAlives(opts, now) {
			n++
		}
	}

	return n
}

// ClusterSnapshot projects the table snapshot onto its public form.
func (s *Snapshot) ClusterSnapshot() *ClusterSnapshot {
	members := make(map[SiloAddress]ClusterMember, len(s.Entries))

	for addr, e := range s.Entries {
		members[addr] = ClusterMember{
			Address: addr,
			Status:  e.Status,
			Name:    e.Name,
		}
	}

	return &ClusterSnapshot{
		Version: s.Version,
		Members: members,
	}
}
