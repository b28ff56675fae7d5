package agent

import (
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/siloring/membership"
)

type Config struct {
	Options membership.Options
	Logger  kitlog.Logger
	Now     func() time.Time

	// ValidateInitialConnectivity makes the silo probe every active silo
	// before becoming active itself.
	ValidateInitialConnectivity bool

	// ConnectivityRetryDelay is the pause between connectivity validation
	// attempts.
	ConnectivityRetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Options:                     membership.DefaultOptions(),
		Logger:                      kitlog.NewNopLogger(),
		Now:                         time.Now,
		ValidateInitialConnectivity: true,
		ConnectivityRetryDelay:      5 * time.Second,
	}
}
