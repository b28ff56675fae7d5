package gossip

import (
	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/siloring/membership"
)

type Config struct {
	// Silo is the address of the local silo, attached to every batch.
	Silo membership.SiloAddress

	// RetransmitMult controls how many gossip rounds a notification is
	// piggybacked on after it was first sent. The number of rounds grows
	// logarithmically with the cluster size.
	RetransmitMult int

	// MaxBatchBytes limits the encoded size of piggybacked notifications
	// sent along with a new one.
	MaxBatchBytes int

	Logger kitlog.Logger
}

// DefaultConfig creates a Config with reasonable default values.
func DefaultConfig() Config {
	return Config{
		RetransmitMult: 3,
		MaxBatchBytes:  16 * 1024,
		Logger:         kitlog.NewNopLogger(),
	}
}
