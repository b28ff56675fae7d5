package membership

import "fmt"

// SiloStatus is the lifecycle state of a silo as recorded in the table.
type SiloStatus uint8

const (
	StatusNone SiloStatus = iota
	StatusCreated
	StatusJoining
	StatusActive
	StatusShuttingDown
	StatusStopping
	StatusDead
)

var statusNames = map[SiloStatus]string{
	StatusNone:         "none",
	StatusCreated:      "created",
	StatusJoining:      "joining",
	StatusActive:       "active",
	StatusShuttingDown: "shutting_down",
	StatusStopping:     "stopping",
	StatusDead:         "dead",
}

func (s SiloStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("status(%d)", uint8(s))
}

// IsFunctional reports whether the silo still takes part in the cluster.
// Terminating silos are functional until they are dead.
func (s SiloStatus) IsFunctional() bool {
	return s == StatusActive || s == StatusShuttingDown || s == StatusStopping
}

func (s SiloStatus) IsTerminating() bool {
	return s == StatusShuttingDown || s == StatusStopping || s == StatusDead
}

func ParseSiloStatus(name string) (SiloStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}

	return StatusNone, fmt.Errorf("unknown silo status %q", name)
}

func (s SiloStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SiloStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseSiloStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
