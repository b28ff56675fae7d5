package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/membership"
)

func TestIsNextVersion(t *testing.T) {
	current := membership.TableVersion{Version: 3, ETag: "a"}

	tests := map[string]struct {
		proposed membership.TableVersion
		want     bool
	}{
		"Next":          {proposed: current.Next(), want: true},
		"SameVersion":   {proposed: current, want: false},
		"OlderVersion":  {proposed: membership.TableVersion{Version: 2, ETag: "a"}, want: false},
		"StaleETag":     {proposed: membership.TableVersion{Version: 4, ETag: "b"}, want: false},
		"SkipsVersions": {proposed: membership.TableVersion{Version: 10, ETag: "a"}, want: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNextVersion(current, tt.proposed))
		})
	}
}

func TestEncodeEntry(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	voter := membership.SiloAddress{Host: "10.0.0.2", Port: 11111, Generation: 7}

	entry := &membership.Entry{
		Address:      membership.SiloAddress{Host: "10.0.0.1", Port: 11111, Generation: 5},
		Name:         "silo-1",
		Status:       membership.StatusActive,
		StartTime:    now,
		IAmAliveTime: now,
		Suspicions:   []membership.SuspectVote{{Voter: voter, Time: now}},
	}

	data, err := EncodeEntry(entry)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"active"`)
	assert.Contains(t, string(data), `"address":"10.0.0.1:11111@5"`)

	decoded, err := DecodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry.Address, decoded.Address)
	assert.Equal(t, entry.Suspicions[0].Voter, decoded.Suspicions[0].Voter)
	assert.True(t, entry.StartTime.Equal(decoded.StartTime))
}

func TestDecodeEntry_BadStatus(t *testing.T) {
	_, err := DecodeEntry([]byte(`{"address":"10.0.0.1:1@1","status":"sleeping"}`))
	assert.Error(t, err)
}
