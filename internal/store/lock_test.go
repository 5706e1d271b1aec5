package store

import (
	"errors"
	"testing"
	"time"
)

func TestTimedMutexBusy(t *testing.T) {
	var m TimedMutex
	if err := m.Lock(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := m.Lock(10 * time.Millisecond); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	m.Unlock()
	if err := m.Lock(10 * time.Millisecond); err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	m.Unlock()
}

func TestTimedMutexZeroWaitTriesOnce(t *testing.T) {
	var m TimedMutex
	if err := m.Lock(0); err != nil {
		t.Fatal(err)
	}
	if err := m.Lock(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	m.Unlock()
}

func TestTimedMutexWaitsForRelease(t *testing.T) {
	var m TimedMutex
	if err := m.Lock(time.Second); err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Unlock()
	}()
	if err := m.Lock(time.Second); err != nil {
		t.Fatalf("lock should succeed once released: %v", err)
	}
	m.Unlock()
}

func TestUnlockUnheldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var m TimedMutex
	m.Unlock()
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	k := NewKeyedLocks(10 * time.Millisecond)
	if err := k.Lock(1); err != nil {
		t.Fatal(err)
	}
	defer k.Unlock(1)

	// A different key is unaffected
	if err := k.Lock(2); err != nil {
		t.Fatalf("key 2: %v", err)
	}
	k.Unlock(2)

	if err := k.Lock(1); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on held key, got %v", err)
	}
}

func TestLockPairReleasesFirstOnFailure(t *testing.T) {
	k := NewKeyedLocks(10 * time.Millisecond)
	if err := k.Lock(2); err != nil {
		t.Fatal(err)
	}

	if err := k.LockPair(1, 2); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// Key 1 must have been released when key 2 failed
	if err := k.Lock(1); err != nil {
		t.Fatalf("key 1 leaked: %v", err)
	}
	k.Unlock(1)
	k.Unlock(2)
}

func TestLockPairEqualKeysLockOnce(t *testing.T) {
	k := NewKeyedLocks(10 * time.Millisecond)
	if err := k.LockPair(7, 7); err != nil {
		t.Fatal(err)
	}
	k.UnlockPair(7, 7)

	// Fully released: locking again succeeds
	if err := k.Lock(7); err != nil {
		t.Fatalf("relock after equal-key pair: %v", err)
	}
	k.Unlock(7)
}

func TestLockPairOrderIndependent(t *testing.T) {
	k := NewKeyedLocks(10 * time.Millisecond)
	if err := k.LockPair(5, 3); err != nil {
		t.Fatal(err)
	}
	if err := k.Lock(3); !errors.Is(err, ErrBusy) {
		t.Fatal("key 3 not held")
	}
	if err := k.Lock(5); !errors.Is(err, ErrBusy) {
		t.Fatal("key 5 not held")
	}
	k.UnlockPair(5, 3)
}
