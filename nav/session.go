package nav

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecordedRun is the runner's own path, handed to whoever persists runs
type RecordedRun struct {
	Path        []GeoPoint `json:"path"`
	DistanceKm  float64    `json:"distanceKm"`
	DurationSec float64    `json:"durationSec"`
	Calories    int        `json:"calories"`
}

// caloriesPerKm is a flat estimate for a ~70kg runner
const caloriesPerKm = 70

type sessionMsg struct {
	fix      Fix
	reply    chan Guidance
	snapshot chan RecordedRun
}

// Session is one active navigation along a guide route. Fixes are applied
// by a single goroutine in the order they arrive, so progress stays
// monotonic even when callers deliver them concurrently.
type Session struct {
	ID string

	route RouteOption
	turns []TurnPoint

	tracker   *Tracker
	recordMin float64
	now       func() time.Time

	// owned by the run goroutine
	path    []GeoPoint
	pathKm  float64
	firstAt time.Time
	lastAt  time.Time

	msgs      chan sessionMsg
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession precomputes the turn list for route and starts the session goroutine
func NewSession(id string, route RouteOption, cfg NavConfig) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := ValidateRoute(route.Route); err != nil {
		return nil, err
	}

	turns := ExtractTurns(route.Route, cfg.Turns)
	tracker, err := NewTracker(route.Route, turns, cfg.Tracker)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		route:     route,
		turns:     turns,
		tracker:   tracker,
		recordMin: cfg.Tracker.RecordMinStepM,
		now:       time.Now,
		msgs:      make(chan sessionMsg),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case msg := <-s.msgs:
			if msg.snapshot != nil {
				msg.snapshot <- s.recorded()
				continue
			}
			g := s.tracker.Update(msg.fix.Position)
			g.Heading = msg.fix.Heading
			s.record(msg.fix.Position)
			msg.reply <- g
		case <-s.quit:
			return
		}
	}
}

func (s *Session) record(pos GeoPoint) {
	now := s.now()
	if len(s.path) == 0 {
		s.path = append(s.path, pos)
		s.firstAt = now
		s.lastAt = now
		return
	}
	s.lastAt = now

	// ignore jitter while standing still
	stepKm := DistanceKm(s.path[len(s.path)-1], pos)
	if stepKm*1000 < s.recordMin {
		return
	}
	s.path = append(s.path, pos)
	s.pathKm += stepKm
}

func (s *Session) recorded() RecordedRun {
	return RecordedRun{
		Path:        append([]GeoPoint(nil), s.path...),
		DistanceKm:  s.pathKm,
		DurationSec: s.lastAt.Sub(s.firstAt).Seconds(),
		Calories:    int(s.pathKm * caloriesPerKm),
	}
}

func (s *Session) send(ctx context.Context, msg sessionMsg) error {
	select {
	case s.msgs <- msg:
		return nil
	case <-s.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Update delivers one fix and waits for its guidance
func (s *Session) Update(ctx context.Context, fix Fix) (Guidance, error) {
	reply := make(chan Guidance, 1)
	if err := s.send(ctx, sessionMsg{fix: fix, reply: reply}); err != nil {
		return Guidance{}, err
	}
	select {
	case g := <-reply:
		return g, nil
	case <-ctx.Done():
		return Guidance{}, ctx.Err()
	}
}

// Recorded returns a copy of the path the runner has actually covered
func (s *Session) Recorded(ctx context.Context) (RecordedRun, error) {
	snapshot := make(chan RecordedRun, 1)
	if err := s.send(ctx, sessionMsg{snapshot: snapshot}); err != nil {
		return RecordedRun{}, err
	}
	select {
	case r := <-snapshot:
		return r, nil
	case <-ctx.Done():
		return RecordedRun{}, ctx.Err()
	}
}

// Turns returns the session's precomputed turn list
func (s *Session) Turns() []TurnPoint {
	return append([]TurnPoint(nil), s.turns...)
}

// Route returns the guide route
func (s *Session) Route() RouteOption { return s.route }

// Close stops the session goroutine. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// SessionRegistry holds the active navigation sessions by id
type SessionRegistry struct {
	cfg NavConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(cfg NavConfig) *SessionRegistry {
	return &SessionRegistry{
		cfg:      cfg.WithDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Start begins navigating route and returns the new session
func (r *SessionRegistry) Start(route RouteOption) (*Session, error) {
	s, err := NewSession(uuid.NewString(), route, r.cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Printf("Debug: started session %s on %s (%d points, %d turns)", s.ID, route.ID, len(route.Points), len(s.turns))
	return s, nil
}

// Get returns the session with id
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Stop closes and forgets the session with id
func (r *SessionRegistry) Stop(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	log.Printf("Debug: stopped session %s", id)
	return nil
}

// Len returns the number of active sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every session
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
