package driver

import (
	"log/slog"
	"sync"

	"github.com/wanmail/webtest/logging"
)

// Factory creates a local session. Injectable so tests can run the registry
// without a browser.
type Factory func(b Browser, opts Options) (*Session, error)

// RemoteFactory creates a session against a remote hub.
type RemoteFactory func(b Browser, opts Options, hubURL string) (*Session, error)

// Registry is a worker-keyed session arena. Each worker obtains its own
// *Slot and performs every create/current/destroy through it; no API exists
// to reach another worker's session, which is what makes cross-worker
// sharing a compile-time impossibility rather than a convention.
type Registry struct {
	mu      sync.Mutex
	slots   map[string]*Slot
	factory Factory
	remote  RemoteFactory
	log     *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFactory replaces the local session factory.
func WithFactory(f Factory) RegistryOption {
	return func(r *Registry) { r.factory = f }
}

// WithRemoteFactory replaces the remote session factory.
func WithRemoteFactory(f RemoteFactory) RegistryOption {
	return func(r *Registry) { r.remote = f }
}

// NewRegistry builds a registry backed by the real session constructors.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:   make(map[string]*Slot),
		factory: New,
		remote:  NewRemote,
		log:     logging.New("driver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Slot returns the slot for the named worker, creating it on first use. The
// caller must be the worker that owns the name; the returned handle is the
// only path to that worker's session.
func (r *Registry) Slot(worker string) *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[worker]
	if !ok {
		s = &Slot{reg: r, worker: worker}
		r.slots[worker] = s
	}
	return s
}

// Close destroys every live session. Called at suite end as a safety net;
// normal teardown happens per slot.
func (r *Registry) Close() {
	r.mu.Lock()
	slots := make([]*Slot, 0, len(r.slots))
	for _, s := range r.slots {
		slots = append(slots, s)
	}
	r.mu.Unlock()

	for _, s := range slots {
		s.Destroy()
	}
}

// Slot holds at most one live session for one worker.
type Slot struct {
	reg    *Registry
	worker string

	mu   sync.Mutex
	sess *Session
}

// Worker reports the owning worker's identity.
func (s *Slot) Worker() string { return s.worker }

// Create makes a fresh local session for this worker. A live session left in
// the slot is destroyed first, keeping the one-session-per-worker invariant.
func (s *Slot) Create(b Browser, opts Options) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil && !s.sess.Closed() {
		s.reg.log.Warn("replacing live session", "worker", s.worker)
		s.sess.Quit()
	}
	sess, err := s.reg.factory(b, opts)
	if err != nil {
		return nil, err
	}
	s.sess = sess
	return sess, nil
}

// CreateRemote is Create against a remote hub.
func (s *Slot) CreateRemote(b Browser, opts Options, hubURL string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil && !s.sess.Closed() {
		s.reg.log.Warn("replacing live session", "worker", s.worker)
		s.sess.Quit()
	}
	sess, err := s.reg.remote(b, opts, hubURL)
	if err != nil {
		return nil, err
	}
	s.sess = sess
	return sess, nil
}

// Current returns this worker's live session, if any.
func (s *Slot) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.sess.Closed() {
		return nil, false
	}
	return s.sess, true
}

// Destroy releases this worker's session. Calling it with no session, or
// twice, is a no-op.
func (s *Slot) Destroy() {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()
	if sess != nil {
		sess.Quit()
	}
}
