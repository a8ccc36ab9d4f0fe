// Package registry maps opaque identifiers to live sessions and serializes
// use: one operation per session at a time, so callers of the HTTP API can
// never trip the engine's single-command contract. Sessions idle past the
// configured timeout are disconnected by a background reaper.
package registry

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"oltd/internal/log"
	"oltd/internal/session"
)

// ErrNotFound reports an id with no live session behind it.
var ErrNotFound = errors.New("registry: session not found")

type entry struct {
	mu       sync.Mutex // serializes operations on this session
	session  *session.Session
	lastUsed time.Time // guarded by Registry.mu
}

type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	idle     time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a registry. With idleTimeout > 0 a reaper goroutine disconnects
// sessions that stay unused for that long; Shutdown stops it.
func New(idleTimeout time.Duration) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		idle:    idleTimeout,
		stop:    make(chan struct{}),
	}
	if idleTimeout > 0 {
		go r.reap()
	}
	return r
}

// Add registers a session under a fresh opaque id.
func (r *Registry) Add(s *session.Session) string {
	id := newID()
	r.mu.Lock()
	r.entries[id] = &entry{session: s, lastUsed: time.Now()}
	r.mu.Unlock()
	return id
}

// Do runs fn with the session registered under id, holding that session's
// lock for the duration. Operations on the same session queue; operations on
// different sessions run independently. The idle clock refreshes when fn
// returns.
func (r *Registry) Do(id string, fn func(*session.Session) error) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(e.session)

	r.mu.Lock()
	if _, live := r.entries[id]; live {
		e.lastUsed = time.Now()
	}
	r.mu.Unlock()
	return err
}

// Remove disconnects and forgets the session. Unknown ids are a no-op, so
// removal is idempotent like the engine's own Disconnect.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.session.Disconnect()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns the status of every live session by id.
func (r *Registry) Snapshot() map[string]session.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]session.Status, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.session.Status()
	}
	return out
}

// Shutdown stops the reaper and disconnects every session.
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		_ = e.session.Disconnect()
		e.mu.Unlock()
	}
}

func (r *Registry) reap() {
	interval := r.idle / 4
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.idle)

			r.mu.Lock()
			var stale []string
			for id, e := range r.entries {
				if e.lastUsed.Before(cutoff) {
					stale = append(stale, id)
				}
			}
			r.mu.Unlock()

			for _, id := range stale {
				log.Info("disconnecting idle session", "session_id", id, "idle_timeout", r.idle)
				r.Remove(id)
			}
		}
	}
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
