package faildetector

import (
	"time"

	"github.com/twmb/murmur3"
	"golang.org/x/exp/slices"

	"github.com/maxpoletaev/siloring/membership"
)

type ringPosition struct {
	addr membership.SiloAddress
	key  string
	hash uint32
}

// ringOrder places the candidates on the hash ring of the given round. Every
// round uses a different seed, so each round is an independent ring.
func ringOrder(candidates []membership.SiloAddress, round int) []ringPosition {
	ring := make([]ringPosition, 0, len(candidates))

	for _, addr := range candidates {
		key := addr.String()
		ring = append(ring, ringPosition{
			addr: addr,
			key:  key,
			hash: murmur3.SeedSum32(uint32(round), []byte(key)),
		})
	}

	slices.SortFunc(ring, func(a, b ringPosition) int {
		switch {
		case a.hash < b.hash:
			return -1
		case a.hash > b.hash:
			return 1
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})

	return ring
}

// SelectMonitoredSilos picks the silos the local silo should probe. Each of
// the NumProbedSilos rounds contributes the first not yet selected successor
// of the local silo on that round's ring, which spreads the monitoring graph
// so that two silos rarely share the same monitors. Functional silos that
// are already suspected or have stopped updating their liveness timestamp
// are monitored as well. A silo that is not functional itself monitors
// nobody.
func SelectMonitoredSilos(snap *membership.Snapshot, self membership.SiloAddress, opts membership.Options, now time.Time) []membership.SiloAddress {
	if !snap.Status(self).IsFunctional() {
		return nil
	}

	var candidates []membership.SiloAddress

	for addr, entry := range snap.Entries {
		if entry.Status.IsFunctional() {
			candidates = append(candidates, addr)
		}
	}

	var (
		selected []membership.SiloAddress
		seen     = make(map[membership.SiloAddress]bool)
	)

	if len(candidates) > 1 {
		for round := 0; round < opts.NumProbedSilos; round++ {
			ring := ringOrder(candidates, round)

			pos := slices.IndexFunc(ring, func(p ringPosition) bool {
				return p.addr == self
			})

			for i := 1; i < len(ring); i++ {
				next := ring[(pos+i)%len(ring)].addr
				if !seen[next] {
					seen[next] = true
					selected = append(selected, next)

					break
				}
			}
		}
	}

	var suspected []membership.SiloAddress

	for _, addr := range candidates {
		if addr == self || seen[addr] {
			continue
		}

		entry := snap.Entries[addr]
		if len(entry.FreshVotes(now, opts.DeathVoteExpirationTimeout)) > 0 || entry.HasMissedIAmAlives(opts, now) {
			suspected = append(suspected, addr)
		}
	}

	slices.SortFunc(suspected, func(a, b membership.SiloAddress) int {
		return compareAddresses(a, b)
	})

	return append(selected, suspected...)
}

func compareAddresses(a, b membership.SiloAddress) int {
	as, bs := a.String(), b.String()

	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
