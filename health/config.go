package health

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
}

func DefaultConfig() Config {
	return Config{
		Options: membership.DefaultOptions(),
		Logger:  kitlog.NewNopLogger(),
		Now:     time.Now,
	}
}
