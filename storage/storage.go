package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maxpoletaev/siloring/membership"
)

var (
	// ErrNotFound is returned when the silo has no row in the table.
	ErrNotFound = errors.New("silo entry not found")

	// ErrNotInitialized is returned when the table version row is missing,
	// which means InitializeMembershipTable was never called.
	ErrNotInitialized = errors.New("membership table is not initialized")
)

// EncodeEntry serializes the entry for backends that store rows as blobs.
func EncodeEntry(entry *membership.Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %s: %w", entry.Address, err)
	}

	return data, nil
}

func DecodeEntry(data []byte) (*membership.Entry, error) {
	entry := &membership.Entry{}

	if err := json.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}

	return entry, nil
}

// IsNextVersion reports whether proposed may replace current: the writer must
// have read the current etag and must move the version forward.
func IsNextVersion(current, proposed membership.TableVersion) bool {
	return proposed.ETag == current.ETag && proposed.Version > current.Version
}
