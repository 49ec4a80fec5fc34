package utils

import "sync"

// KeyedMutex serialises work per key. Entries are dropped once nobody holds or
// waits on them, so the map stays bounded by the number of active keys.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lk, ok := k.locks[key]
	if !ok {
		lk = &keyedLock{}
		k.locks[key] = lk
	}
	lk.refs++
	k.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		k.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or waited on.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
