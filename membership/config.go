package membership

import (
	"os"
	"time"

	kitlog "github.com/go-kit/log"
)

type Config struct {
	Options Options

	// Silo is the address of the local silo. Its generation must be unique
	// among all incarnations of the silo on the same endpoint.
	Silo     SiloAddress
	Name     string
	HostName string
	Role     string

	Logger kitlog.Logger

	// Now is used to timestamp votes and liveness updates.
	Now func() time.Time
}

func DefaultConfig() Config {
	hostname, _ := os.Hostname()

	return Config{
		Options:  DefaultOptions(),
		HostName: hostname,
		Logger:   kitlog.NewNopLogger(),
		Now:      time.Now,
	}
}
