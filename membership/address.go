package membership

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid silo address")

// SiloAddress identifies a single incarnation of a silo. Host and port form
// the endpoint, and the generation distinguishes restarts of the process on
// the same endpoint. A higher generation always supersedes a lower one.
type SiloAddress struct {
	Host       string
	Port       uint16
	Generation int64
}

func NewSiloAddress(endpoint string, generation int64) (SiloAddress, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return SiloAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return SiloAddress{}, fmt.Errorf("%w: bad port %q", ErrInvalidAddress, portStr)
	}

	return SiloAddress{Host: host, Port: uint16(port), Generation: generation}, nil
}

// ParseSiloAddress parses the host:port@generation form produced by String.
func ParseSiloAddress(s string) (SiloAddress, error) {
	endpoint, genStr, ok := strings.Cut(s, "@")
	if !ok {
		return SiloAddress{}, fmt.Errorf("%w: missing generation in %q", ErrInvalidAddress, s)
	}

	gen, err := strconv.ParseInt(genStr, 10, 64)
	if err != nil {
		return SiloAddress{}, fmt.Errorf("%w: bad generation %q", ErrInvalidAddress, genStr)
	}

	return NewSiloAddress(endpoint, gen)
}

// Endpoint returns the host:port pair suitable for dialing.
func (a SiloAddress) Endpoint() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

func (a SiloAddress) String() string {
	return a.Endpoint() + "@" + strconv.FormatInt(a.Generation, 10)
}

func (a SiloAddress) IsZero() bool {
	return a == SiloAddress{}
}

// IsSameLogicalSilo reports whether both addresses point to the same
// endpoint, regardless of generation.
func (a SiloAddress) IsSameLogicalSilo(other SiloAddress) bool {
	return a.Host == other.Host && a.Port == other.Port
}

// IsSuccessorOf reports whether a is a newer incarnation of the same silo.
func (a SiloAddress) IsSuccessorOf(other SiloAddress) bool {
	return a.IsSameLogicalSilo(other) && a.Generation > other.Generation
}

func (a SiloAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *SiloAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseSiloAddress(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
