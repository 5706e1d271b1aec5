// Package store holds storage-level errors and locking primitives shared by
// the in-memory and Postgres backends.
package store

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when a per-key lock cannot be acquired within the
// configured wait bound. Callers should retry with backoff.
var ErrBusy = errors.New("resource busy")

// DefaultLockWait bounds how long a caller blocks on a contended key.
const DefaultLockWait = 250 * time.Millisecond

// TimedMutex is a mutex whose Lock fails with ErrBusy instead of blocking
// past the given wait.
type TimedMutex struct {
	once sync.Once
	ch   chan struct{}
}

func (m *TimedMutex) init() {
	m.once.Do(func() { m.ch = make(chan struct{}, 1) })
}

// Lock acquires the mutex, waiting at most wait. A non-positive wait means
// try once without waiting.
func (m *TimedMutex) Lock(wait time.Duration) error {
	m.init()
	if wait <= 0 {
		select {
		case m.ch <- struct{}{}:
			return nil
		default:
			return ErrBusy
		}
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-t.C:
		return ErrBusy
	}
}

// Unlock releases the mutex. Unlocking an unheld mutex panics.
func (m *TimedMutex) Unlock() {
	m.init()
	select {
	case <-m.ch:
	default:
		panic("store: unlock of unlocked TimedMutex")
	}
}

// KeyedLocks manages one TimedMutex per key. Locks are never removed; the
// key space (users, rooms) is small enough that this does not matter.
type KeyedLocks struct {
	mu    sync.Mutex
	wait  time.Duration
	locks map[int64]*TimedMutex
}

// NewKeyedLocks returns a lock set with the given wait bound.
func NewKeyedLocks(wait time.Duration) *KeyedLocks {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &KeyedLocks{wait: wait, locks: make(map[int64]*TimedMutex)}
}

func (k *KeyedLocks) get(key int64) *TimedMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &TimedMutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the lock for key, or fails with ErrBusy.
func (k *KeyedLocks) Lock(key int64) error {
	return k.get(key).Lock(k.wait)
}

// Unlock releases the lock for key.
func (k *KeyedLocks) Unlock(key int64) {
	k.get(key).Unlock()
}

// LockPair acquires both keys in ascending order to avoid deadlock. Equal
// keys are locked once.
func (k *KeyedLocks) LockPair(a, b int64) error {
	if a == b {
		return k.Lock(a)
	}
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	if err := k.Lock(first); err != nil {
		return err
	}
	if err := k.Lock(second); err != nil {
		k.Unlock(first)
		return err
	}
	return nil
}

// UnlockPair releases both keys.
func (k *KeyedLocks) UnlockPair(a, b int64) {
	if a == b {
		k.Unlock(a)
		return
	}
	k.Unlock(a)
	k.Unlock(b)
}
