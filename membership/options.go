package membership

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Options holds the tunables shared by every membership component.
type Options struct {
	// NumProbedSilos is the number of silos each silo monitors.
	NumProbedSilos int `yaml:"num_probed_silos" validate:"min=1"`

	// NumMissedProbesLimit is the number of consecutive failed probes
	// after which a silo is suspected.
	NumMissedProbesLimit int `yaml:"num_missed_probes_limit" validate:"min=1"`

	// NumVotesForDeathDeclaration is the number of fresh suspicions required
	// to declare a silo dead. It also caps the size of the vote list.
	NumVotesForDeathDeclaration int `yaml:"num_votes_for_death_declaration" validate:"min=1"`

	ProbeTimeout                time.Duration `yaml:"probe_timeout" validate:"gt=0"`
	DeathVoteExpirationTimeout  time.Duration `yaml:"death_vote_expiration_timeout" validate:"gt=0"`
	TableRefreshTimeout         time.Duration `yaml:"table_refresh_timeout" validate:"gt=0"`
	IAmAliveTablePublishTimeout time.Duration `yaml:"i_am_alive_table_publish_timeout" validate:"gt=0"`
	MaxJoinAttemptTime          time.Duration `yaml:"max_join_attempt_time" validate:"gt=0"`

	// AllowedIAmAliveMissPeriod is how long a silo may go without updating
	// its liveness timestamp before it is considered stale.
	AllowedIAmAliveMissPeriod time.Duration `yaml:"allowed_i_am_alive_miss_period" validate:"gtfield=IAmAliveTablePublishTimeout"`

	UseLivenessGossip bool `yaml:"use_liveness_gossip"`

	// LivenessEnabled disables eviction writes when false. Silos are still
	// probed and suspected, but never declared dead.
	LivenessEnabled bool `yaml:"liveness_enabled"`

	EnableIndirectProbes                bool `yaml:"enable_indirect_probes"`
	ExtendProbeTimeoutDuringDegradation bool `yaml:"extend_probe_timeout_during_degradation"`
	EvictWhenMaxJoinAttemptTimeExceeded bool `yaml:"evict_when_max_join_attempt_time_exceeded"`

	// DefunctSiloCleanupPeriod is zero when defunct entries are never removed.
	DefunctSiloCleanupPeriod time.Duration `yaml:"defunct_silo_cleanup_period" validate:"gte=0"`
	DefunctSiloExpiration    time.Duration `yaml:"defunct_silo_expiration" validate:"gt=0"`

	LocalHealthDegradationMonitoringPeriod time.Duration `yaml:"local_health_degradation_monitoring_period" validate:"gt=0"`
	ShutdownGracePeriod                    time.Duration `yaml:"shutdown_grace_period" validate:"gt=0"`
}

func DefaultOptions() Options {
	return Options{
		NumProbedSilos:                         10,
		NumMissedProbesLimit:                   3,
		NumVotesForDeathDeclaration:            2,
		ProbeTimeout:                           5 * time.Second,
		DeathVoteExpirationTimeout:             2 * time.Minute,
		TableRefreshTimeout:                    time.Minute,
		IAmAliveTablePublishTimeout:            30 * time.Second,
		MaxJoinAttemptTime:                     5 * time.Minute,
		AllowedIAmAliveMissPeriod:              5 * time.Minute,
		UseLivenessGossip:                      true,
		LivenessEnabled:                        true,
		EnableIndirectProbes:                   true,
		ExtendProbeTimeoutDuringDegradation:    true,
		EvictWhenMaxJoinAttemptTimeExceeded:    true,
		DefunctSiloCleanupPeriod:               time.Hour,
		DefunctSiloExpiration:                  7 * 24 * time.Hour,
		LocalHealthDegradationMonitoringPeriod: 10 * time.Second,
		ShutdownGracePeriod:                    5 * time.Second,
	}
}

var validate = validator.New()

// Validate checks the options for values that would break the protocol.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid membership options: %w", err)
	}

	return nil
}
