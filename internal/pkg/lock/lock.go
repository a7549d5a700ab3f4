// Package lock provides per-game locking for mutating operations.
//
// Correctness rests on the store's revision check; this lock only
// serializes same-game writers inside one process so the optimistic
// retry loop rarely has to fire.
package lock

import (
	"sync"
)

// gameMutex wraps a mutex with reference counting for cleanup.
type gameMutex struct {
	mu       sync.Mutex
	refCount int
}

// GameLock provides per-game locking keyed by game id.
type GameLock struct {
	locks sync.Map // map[string]*gameMutex
	pool  sync.Pool
}

// NewGameLock creates a new GameLock instance.
func NewGameLock() *GameLock {
	return &GameLock{
		pool: sync.Pool{
			New: func() any {
				return &gameMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given game id.
func (gl *GameLock) getLock(gameID string) *gameMutex {
	if v, ok := gl.locks.Load(gameID); ok {
		return v.(*gameMutex)
	}

	newLock := gl.pool.Get().(*gameMutex)
	newLock.refCount = 0

	// Store or load existing (handles race condition).
	actual, loaded := gl.locks.LoadOrStore(gameID, newLock)
	if loaded {
		gl.pool.Put(newLock)
	}
	return actual.(*gameMutex)
}

// Lock acquires the lock for a game.
func (gl *GameLock) Lock(gameID string) {
	lock := gl.getLock(gameID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a game.
func (gl *GameLock) Unlock(gameID string) {
	if v, ok := gl.locks.Load(gameID); ok {
		lock := v.(*gameMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (gl *GameLock) TryLock(gameID string) bool {
	lock := gl.getLock(gameID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the game's lock.
func (gl *GameLock) WithLock(gameID string, fn func() error) error {
	gl.Lock(gameID)
	defer gl.Unlock(gameID)
	return fn()
}
