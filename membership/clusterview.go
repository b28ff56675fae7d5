package membership

// ClusterMember is the public projection of a table entry.
type ClusterMember struct {
	Address SiloAddress
	Status  SiloStatus
	Name    string
}

// ClusterSnapshot is the public, reduced view of the membership table.
type ClusterSnapshot struct {
	Version int64
	Members map[SiloAddress]ClusterMember
}

// ClusterUpdate describes what changed between two cluster snapshots.
type ClusterUpdate struct {
	Changes  []ClusterMember
	Snapshot *ClusterSnapshot
}

func (u ClusterUpdate) HasChanges() bool {
	return len(u.Changes) > 0
}

func (s *ClusterSnapshot) Status(addr SiloAddress) SiloStatus {
	if m, ok := s.Members[addr]; ok {
		return m.Status
	}

	return StatusNone
}

// CreateUpdate computes the changes from previous to s. Members that were
// removed from the table are reported as dead. A nil previous snapshot means
// every member is new.
func (s *ClusterSnapshot) CreateUpdate(previous *ClusterSnapshot) ClusterUpdate {
	var changes []ClusterMember

	for addr, m := range s.Members {
		if previous != nil {
			if prev, ok := previous.Members[addr]; ok && prev == m {
				continue
			}
		}

		changes = append(changes, m)
	}

	if previous != nil {
		for addr, prev := range previous.Members {
			if _, ok := s.Members[addr]; ok || prev.Status == StatusDead {
				continue
			}

			changes = append(changes, ClusterMember{
				Address: addr,
				Status:  StatusDead,
				Name:    prev.Name,
			})
		}
	}

	return ClusterUpdate{
		Changes:  changes,
		Snapshot: s,
	}
}
