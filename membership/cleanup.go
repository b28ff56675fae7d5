package membership

import (
	"context"
	"fmt"

	"github.com/go-kit/log/level"
)

// cleanupMyTableEntries resolves conflicts between incarnations of the local
// silo. Older generations still alive on the same endpoint are killed, and a
// newer generation makes the local silo step down.
func (m *TableManager) cleanupMyTableEntries(ctx context.Context, table *TableData) error {
	if m.isStopping() {
		return nil
	}

	var stale []SiloAddress

	for _, row := range table.Rows {
		addr := row.Entry.Address

		if addr == m.self {
			if row.Entry.Status == StatusDead {
				m.killMyselfLocally("this silo is marked as dead in the membership table")
				return nil
			}

			continue
		}

		if !addr.IsSameLogicalSilo(m.self) || row.Entry.Status == StatusDead {
			continue
		}

		if addr.IsSuccessorOf(m.self) {
			level.Warn(m.logger).Log("msg", "found a newer incarnation of this silo", "silo", m.self, "newer", addr)

			err := m.UpdateStatus(ctx, StatusDead)
			m.killMyselfLocally(fmt.Sprintf("a newer incarnation %s is registered", addr))

			if err != nil {
				return fmt.Errorf("failed to mark this silo as dead: %w", err)
			}

			return nil
		}

		level.Info(m.logger).Log("msg", "found an older incarnation of this silo, declaring it dead", "silo", addr)
		stale = append(stale, addr)
	}

	for _, addr := range stale {
		m.TryKill(addr)
	}

	return nil
}
