package membership

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSiloAddress(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    SiloAddress
		wantErr bool
	}{
		"Valid":          {input: "10.0.0.1:11111@42", want: SiloAddress{Host: "10.0.0.1", Port: 11111, Generation: 42}},
		"IPv6":           {input: "[::1]:11111@7", want: SiloAddress{Host: "::1", Port: 11111, Generation: 7}},
		"NoGeneration":   {input: "10.0.0.1:11111", wantErr: true},
		"BadGeneration":  {input: "10.0.0.1:11111@x", wantErr: true},
		"BadPort":        {input: "10.0.0.1:70000@1", wantErr: true},
		"MissingPort":    {input: "10.0.0.1@1", wantErr: true},
		"EmptyString":    {input: "", wantErr: true},
		"NegativeNumber": {input: "10.0.0.1:-1@1", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseSiloAddress(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestSiloAddress_Generations(t *testing.T) {
	a := SiloAddress{Host: "10.0.0.1", Port: 11111, Generation: 1}
	b := SiloAddress{Host: "10.0.0.1", Port: 11111, Generation: 2}
	c := SiloAddress{Host: "10.0.0.2", Port: 11111, Generation: 3}

	assert.True(t, a.IsSameLogicalSilo(b))
	assert.False(t, a.IsSameLogicalSilo(c))
	assert.True(t, b.IsSuccessorOf(a))
	assert.False(t, a.IsSuccessorOf(b))
	assert.False(t, c.IsSuccessorOf(a))
	assert.Equal(t, "10.0.0.1:11111", a.Endpoint())
}

func TestSiloAddress_MapKeyJSON(t *testing.T) {
	in := map[SiloAddress]SiloStatus{silo(1): StatusActive}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"10.0.0.1:1@1":"active"}`, string(data))

	var out map[SiloAddress]SiloStatus
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestSiloStatus(t *testing.T) {
	tests := map[SiloStatus]struct {
		name        string
		functional  bool
		terminating bool
	}{
		StatusCreated:      {name: "created"},
		StatusJoining:      {name: "joining"},
		StatusActive:       {name: "active", functional: true},
		StatusShuttingDown: {name: "shutting_down", functional: true, terminating: true},
		StatusStopping:     {name: "stopping", functional: true, terminating: true},
		StatusDead:         {name: "dead", terminating: true},
	}

	for status, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, status.String())
			assert.Equal(t, tt.functional, status.IsFunctional())
			assert.Equal(t, tt.terminating, status.IsTerminating())

			parsed, err := ParseSiloStatus(tt.name)
			require.NoError(t, err)
			assert.Equal(t, status, parsed)
		})
	}

	_, err := ParseSiloStatus("zombie")
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	opts := DefaultOptions()
	opts.NumVotesForDeathDeclaration = 0
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.AllowedIAmAliveMissPeriod = opts.IAmAliveTablePublishTimeout
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.DefunctSiloCleanupPeriod = 0
	assert.NoError(t, opts.Validate())
}
