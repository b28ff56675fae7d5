package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maxpoletaev/siloring/membership"
)

type options struct {
	Silo struct {
		Name       string `long:"name" env:"NAME" required:"true" description:"silo name"`
		Role       string `long:"role" env:"ROLE" description:"silo role"`
		Generation int64  `long:"generation" env:"GENERATION" description:"silo generation (defaults to the start time in seconds)"`
	} `group:"silo" namespace:"silo" env-namespace:"SILO"`

	GRPC struct {
		BindAddr   string `long:"bind-addr" description:"address to bind grpc server" env:"BIND_ADDR" default:":3000"`
		PublicAddr string `long:"public-addr" description:"address to advertise to other silos" env:"PUBLIC_ADDR" required:"true"`
	} `group:"grpc" namespace:"grpc" env-namespace:"GRPC"`

	RestAPI struct {
		BindAddr string `long:"bind-addr" description:"address to bind the admin api" env:"BIND_ADDR" default:":8000"`
	} `group:"rest-api" namespace:"rest-api" env-namespace:"REST_API"`

	Storage struct {
		Backend       string `long:"backend" description:"membership table backend" env:"BACKEND" choice:"inmemory" choice:"etcd" choice:"postgres" default:"inmemory"`
		ClusterID     string `long:"cluster-id" description:"cluster id, used to share one database between clusters" env:"CLUSTER_ID" default:"default"`
		EtcdEndpoints string `long:"etcd-endpoints" description:"comma-separated list of etcd endpoints" env:"ETCD_ENDPOINTS" default:"127.0.0.1:2379"`
		PostgresURL   string `long:"postgres-url" description:"postgres connection string" env:"POSTGRES_URL"`
	} `group:"storage" namespace:"storage" env-namespace:"STORAGE"`

	Membership struct {
		ConfigFile string `long:"config" description:"yaml file with membership options" env:"CONFIG"`
	} `group:"membership" namespace:"membership" env-namespace:"MEMBERSHIP"`

	Verbose bool `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

func parseAddrs(addrs string) []string {
	sl := strings.Split(addrs, ",")
	res := make([]string, 0, len(sl))

	for _, addr := range sl {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}

	return res
}

// loadMembershipOptions overlays the yaml file, if any, on top of the
// default options. Durations are written as "5s", "2m" and so on.
func loadMembershipOptions(path string) (membership.Options, error) {
	opts := membership.DefaultOptions()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("failed to read membership config: %w", err)
		}

		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("failed to parse membership config: %w", err)
		}
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}
