package generic

import "sync"

// SyncMap is a typed sync.Map. It only carries the operations needed to
// track in-flight work by key.
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

// LoadOrStore returns the value already stored for the key, or stores value
// if there is none. The loaded result is true if value was not stored.
func (m *SyncMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, loaded := m.m.LoadOrStore(key, value)
	return v.(V), loaded
}

func (m *SyncMap[K, V]) Delete(key K) {
	m.m.Delete(key)
}
