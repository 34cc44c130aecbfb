package session

import (
	"log/slog"
	"sync"

	"github.com/alexkarpovich/multiscreencap/internal/window"
)

// Registry tracks at most one live session per window handle. The lock
// guards only map mutation; it is never held across encoder I/O.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint64]*Session)}
}

// Start begins recording a window. A second start for the same window
// fails with ErrAlreadyRecording, including while the first is still
// spawning its encoder.
func (r *Registry) Start(info window.Info, cfg *Config) (*Session, error) {
	r.mu.Lock()
	if _, exists := r.sessions[info.ID]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	// Reserve the slot before the (slow) spawn sequence runs unlocked.
	r.sessions[info.ID] = nil
	r.mu.Unlock()

	s, err := Start(info, cfg)

	r.mu.Lock()
	if err != nil {
		delete(r.sessions, info.ID)
	} else {
		r.sessions[info.ID] = s
	}
	r.mu.Unlock()
	return s, err
}

func (r *Registry) IsRecording(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.sessions[id]
	return exists
}

// Stop tears down the session for a window. Stopping a window that is
// not recording is a no-op.
func (r *Registry) Stop(id uint64) error {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Stop()
}

// StopAll stops every live session, used on process shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	var all []*Session
	for id, s := range r.sessions {
		if s != nil {
			all = append(all, s)
		}
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		if err := s.Stop(); err != nil {
			slog.Error("failed to stop session", "window", s.Window.ID, "error", err)
		}
	}
}
