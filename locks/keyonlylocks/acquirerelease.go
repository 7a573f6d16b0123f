package keyonlylocks

import (
	"slices"
	"sync"
)

// AcquireLocks takes every key or none. It never waits: a held key fails the whole set.
func AcquireLocks(lockStore *sync.Map, keys []string) ([]string, bool) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)
	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, loaded := lockStore.LoadOrStore(key, struct{}{}); loaded {
			ReleaseLocks(lockStore, acquired)
			return nil, false
		}
		acquired = append(acquired, key)
	}
	return acquired, true
}

// ReleaseLocks deletes the keys from lockStore
func ReleaseLocks(lockStore *sync.Map, keys []string) {
	for _, key := range keys {
		lockStore.Delete(key)
	}
}

// TryLock acquires keys and returns the func releasing them
func TryLock(lockStore *sync.Map, keys ...string) (release func(), ok bool) {
	acquired, ok := AcquireLocks(lockStore, keys)
	if !ok {
		return nil, false
	}
	return func() { ReleaseLocks(lockStore, acquired) }, true
}
