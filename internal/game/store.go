package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/cache"
	"github.com/parlorgames/parlor/internal/database"
	"github.com/parlorgames/parlor/internal/models"
)

// DefaultSessionLimit caps concurrently live sessions when no explicit
// limit is configured.
const DefaultSessionLimit = 16

// Sink receives the deliveries produced by one committed mutation. It is
// invoked on its own goroutine after the session lock is released, so a
// slow or failing sink can never stall or roll back game state.
type Sink func(sessionID uuid.UUID, deliveries []Delivery)

// Option configures a Store.
type Option func(*Store)

// WithSink installs the outbound delivery sink.
func WithSink(fn Sink) Option {
	return func(st *Store) { st.sink = fn }
}

// Store owns every live session and the player-to-session index. Its own
// mutex guards only the two maps; per-session state is guarded by each
// session's lock. The store never holds its mutex while waiting on a
// session lock.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	players  map[string]uuid.UUID
	limit    int
	sink     Sink
}

// NewStore builds a store with the given live-session limit; zero or
// negative means DefaultSessionLimit.
func NewStore(limit int, opts ...Option) *Store {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	st := &Store{
		sessions: make(map[uuid.UUID]*Session),
		players:  make(map[string]uuid.UUID),
		limit:    limit,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// SessionSummary is a joinable-session listing entry.
type SessionSummary struct {
	ID       uuid.UUID `json:"id"`
	Variant  Variant   `json:"variant"`
	Capacity int       `json:"capacity"`
	Seated   int       `json:"seated"`
}

// CreateSession registers a new open session. The creator does not join
// here; callers follow up with Join so the seat gets a display name.
func (st *Store) CreateSession(actorID string, variant Variant, capacity int) (*Session, error) {
	if !variant.Valid() {
		return nil, ErrUnknownVariant
	}
	if min, max := variant.CapacityBounds(); capacity < min || capacity > max {
		return nil, ErrCapacityRange
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, taken := st.players[actorID]; taken {
		return nil, ErrAlreadyInSession
	}
	if len(st.sessions) >= st.limit {
		return nil, ErrServerFull
	}
	s := NewSession(variant, capacity)
	st.sessions[s.ID] = s
	logrus.WithFields(logrus.Fields{
		"session":  s.ID,
		"variant":  variant,
		"capacity": capacity,
	}).Info("session created")
	return s, nil
}

// Join seats a participant in an open session. Filling the last seat
// starts the game. The player mapping is reserved optimistically and
// rolled back if the seat cannot be taken.
func (st *Store) Join(sessionID uuid.UUID, actorID, name string) error {
	st.mu.Lock()
	if _, taken := st.players[actorID]; taken {
		st.mu.Unlock()
		return ErrAlreadyInSession
	}
	s, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return ErrRoomNotFound
	}
	st.players[actorID] = sessionID
	st.mu.Unlock()

	s.Mu.Lock()
	if s.Phase != PhaseOpen {
		s.Mu.Unlock()
		st.release(sessionID, []string{actorID}, false)
		return ErrRoomNotOpen
	}
	if len(s.Players) >= s.Capacity {
		s.Mu.Unlock()
		st.release(sessionID, []string{actorID}, false)
		return ErrRoomFull
	}

	p := &models.Participant{ID: actorID, Name: name, Status: models.StatusActive}
	s.Players = append(s.Players, p)
	evs := []Event{{
		Kind:      EventPlayerJoined,
		Scope:     ScopeAll,
		Actor:     p.ID,
		ActorName: p.Name,
		Payload:   map[string]interface{}{"seated": len(s.Players), "capacity": s.Capacity},
	}}
	if len(s.Players) == s.Capacity {
		evs = append(evs, s.begin()...)
	}
	st.finalize(s, evs)
	return nil
}

// Leave removes a participant. In an open session the seat is freed; in
// an active one the departure is a forced elimination and the variant
// rules unwind whatever the leaver was holding up.
func (st *Store) Leave(actorID string) error {
	s, ok := st.Locate(actorID)
	if !ok {
		return ErrRoomNotFound
	}

	s.Mu.Lock()
	p := s.participant(actorID)
	if p == nil {
		s.Mu.Unlock()
		st.release(s.ID, []string{actorID}, false)
		return nil
	}

	var evs []Event
	dropSession := false
	switch s.Phase {
	case PhaseOpen:
		for i, q := range s.Players {
			if q.ID == actorID {
				s.Players = append(s.Players[:i], s.Players[i+1:]...)
				break
			}
		}
		evs = append(evs, Event{Kind: EventPlayerLeft, Scope: ScopeAll, Actor: p.ID, ActorName: p.Name})
		dropSession = len(s.Players) == 0
	case PhaseActive:
		evs = append(evs, Event{Kind: EventPlayerLeft, Scope: ScopeAll, Actor: p.ID, ActorName: p.Name})
		if p.Status != models.StatusEliminated {
			evs = append(evs, s.eliminate(p))
			evs = append(evs, s.rules.Departed(s, p)...)
		}
	}

	sid := s.ID
	st.finalize(s, evs)
	st.release(sid, []string{actorID}, dropSession)
	return nil
}

// SubmitAction routes one action to the actor's session under its lock.
// Errors leave the session untouched and produce no deliveries.
func (st *Store) SubmitAction(actorID string, act models.Action) error {
	s, ok := st.Locate(actorID)
	if !ok {
		return ErrRoomNotFound
	}

	s.Mu.Lock()
	if s.Phase != PhaseActive {
		s.Mu.Unlock()
		return ErrSessionNotActive
	}
	evs, err := s.rules.Resolve(s, actorID, act)
	if err != nil {
		s.Mu.Unlock()
		return err
	}
	st.finalize(s, evs)
	return nil
}

// Locate returns the session the participant currently occupies.
func (st *Store) Locate(actorID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sid, ok := st.players[actorID]
	if !ok {
		return nil, false
	}
	s, ok := st.sessions[sid]
	return s, ok
}

// OpenSessions lists sessions still waiting for players.
func (st *Store) OpenSessions() []SessionSummary {
	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.Unlock()

	var open []SessionSummary
	for _, s := range all {
		s.Mu.Lock()
		if s.Phase == PhaseOpen {
			open = append(open, SessionSummary{
				ID: s.ID, Variant: s.Variant, Capacity: s.Capacity, Seated: len(s.Players),
			})
		}
		s.Mu.Unlock()
	}
	return open
}

// finalize expands the committed events into deliveries and hands them
// off. Called with s.Mu held; releases it. A finished session is
// archived and its seats and id are freed.
func (st *Store) finalize(s *Session, evs []Event) {
	var deliveries []Delivery
	records := make([]cache.SessionActionRecord, 0, len(evs))
	for seq, ev := range evs {
		for _, id := range s.expandRecipients(ev) {
			deliveries = append(deliveries, Delivery{Recipient: id, Seq: seq, Event: ev})
		}
		records = append(records, cache.SessionActionRecord{
			SessionID: s.ID.String(),
			Kind:      string(ev.Kind),
			Actor:     ev.Actor,
			Target:    ev.Target,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	var archive *database.SessionArchive
	var roster []string
	if s.Phase == PhaseFinished {
		archive = st.archiveRecord(s)
		for _, p := range s.Players {
			roster = append(roster, p.ID)
		}
	}
	sid := s.ID
	s.Mu.Unlock()

	if roster != nil {
		st.release(sid, roster, true)
	}
	if len(deliveries) == 0 && archive == nil {
		return
	}
	sink := st.sink
	go func() {
		if sink != nil && len(deliveries) > 0 {
			sink(sid, deliveries)
		}
		for _, rec := range records {
			cache.PublishSessionAction(rec)
		}
		if archive != nil {
			database.ArchiveSession(archive)
		}
	}()
}

// archiveRecord snapshots a finished session for the match archive.
// Assumes the lock is held.
func (st *Store) archiveRecord(s *Session) *database.SessionArchive {
	view, err := json.Marshal(s.publicView())
	if err != nil {
		logrus.WithField("session", s.ID).WithError(err).Warn("archive snapshot marshal failed")
		view = nil
	}
	a := &database.SessionArchive{
		SessionID: s.ID,
		Variant:   string(s.Variant),
		Snapshot:  view,
	}
	if s.Outcome != nil {
		a.Reason = s.Outcome.Reason
		a.WinnerID = s.Outcome.WinnerID
		a.Side = s.Outcome.Side
	}
	return a
}

// release frees player mappings and optionally the session id itself.
func (st *Store) release(sid uuid.UUID, actorIDs []string, dropSession bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, id := range actorIDs {
		if st.players[id] == sid {
			delete(st.players, id)
		}
	}
	if dropSession {
		delete(st.sessions, sid)
	}
}
