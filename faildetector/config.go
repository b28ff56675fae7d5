package faildetector

import (
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/siloring/membership"
)

type Config struct {
	Options membership.Options
	Silo    membership.SiloAddress
	Logger  kitlog.Logger
	Now     func() time.Time

	// RecusalDelay is how soon the next probe is sent after an unhealthy
	// intermediary has been excluded.
	RecusalDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Options:      membership.DefaultOptions(),
		Logger:       kitlog.NewNopLogger(),
		Now:          time.Now,
		RecusalDelay: 250 * time.Millisecond,
	}
}
