// Package meeting implements the in-memory discussion session registry.
//
// Each session tracks its participant roster, speaking counts, and the
// current/next speaker pointers that drive turn-taking. The registry holds
// one process-wide table keyed by session id; every mutating operation takes
// the owning session's lock, so two racing requests for the same session
// cannot corrupt its state.
package meeting

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/zulandar/roundtable/internal/roles"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

var (
	ErrSessionNotFound     = errors.New("meeting: session not found")
	ErrSessionExists       = errors.New("meeting: session already exists")
	ErrSessionEnded        = errors.New("meeting: session has ended")
	ErrParticipantNotFound = errors.New("meeting: participant not found")
	ErrParticipantInactive = errors.New("meeting: participant is paused")
)

// Participant is one persona enrolled in a session. IsActive=false means the
// participant is paused: it cannot be set as current or next speaker and is
// excluded from suggestions, but its MessageCount is retained.
type Participant struct {
	RoleID        string     `json:"roleId"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"isActive"`
	LastSpeakTime *time.Time `json:"lastSpeakTime,omitempty"`
	MessageCount  int        `json:"messageCount"`
}

// Session is a snapshot of one discussion instance. Values returned by the
// registry are copies; mutating them does not affect registry state.
type Session struct {
	ID             string        `json:"id"`
	Participants   []Participant `json:"participants"`
	CurrentSpeaker string        `json:"currentSpeaker,omitempty"`
	NextSpeaker    string        `json:"nextSpeaker,omitempty"`
	Status         Status        `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// session is the registry-owned mutable record behind Session snapshots.
type session struct {
	mu             sync.Mutex
	id             string
	participants   []*Participant
	currentSpeaker string
	nextSpeaker    string
	status         Status
	createdAt      time.Time
	updatedAt      time.Time
}

// Registry is the process-wide session table. Construct one at startup and
// inject it into handlers; there is no hidden global instance.
type Registry struct {
	roles *roles.Registry

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewRegistry creates an empty session registry. The role registry is used
// to resolve participant display names; it may be nil, in which case names
// fall back to the raw role id.
func NewRegistry(r *roles.Registry) *Registry {
	return &Registry{
		roles:    r,
		sessions: make(map[string]*session),
	}
}

// Create builds a new session with one participant per role id. Display
// names resolve through the role registry and fall back to the raw id for
// unknown personas. Returns ErrSessionExists if the id is taken; callers
// wanting get-or-create semantics should Get first.
func (r *Registry) Create(sessionID string, roleIDs []string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		return nil, ErrSessionExists
	}

	now := time.Now()
	s := &session{
		id:        sessionID,
		status:    StatusWaiting,
		createdAt: now,
		updatedAt: now,
	}
	for _, roleID := range roleIDs {
		name := roleID
		if r.roles != nil {
			if p, ok := r.roles.Get(roleID); ok {
				name = p.Name
			}
		}
		s.participants = append(s.participants, &Participant{
			RoleID:   roleID,
			Name:     name,
			IsActive: true,
		})
	}

	r.sessions[sessionID] = s
	return s.snapshot(), nil
}

// Get returns a snapshot of the session, or ErrSessionNotFound.
func (r *Registry) Get(sessionID string) (*Session, error) {
	s, ok := r.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Delete removes a session entirely. Returns false if it did not exist.
func (r *Registry) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// SetCurrentSpeaker marks roleID as the speaker currently producing output.
// The target must be an active participant of a non-ended session. First
// speech moves a waiting session to active.
func (r *Registry) SetCurrentSpeaker(sessionID, roleID string) error {
	s, ok := r.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSpeaker(roleID); err != nil {
		return err
	}
	s.currentSpeaker = roleID
	if s.status == StatusWaiting {
		s.status = StatusActive
	}
	s.touch()
	return nil
}

// SetNextSpeaker places roleID in the single-slot next-speaker mailbox.
// Same validity rules as SetCurrentSpeaker; on failure the previous value
// is left untouched.
func (r *Registry) SetNextSpeaker(sessionID, roleID string) error {
	s, ok := r.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSpeaker(roleID); err != nil {
		return err
	}
	s.nextSpeaker = roleID
	s.touch()
	return nil
}

// ConsumeNextSpeaker reads and clears the next-speaker mailbox. The slot is
// cleared even if the caller ignores the value, guaranteeing at-most-once
// delivery per set.
func (r *Registry) ConsumeNextSpeaker(sessionID string) (string, bool) {
	s, ok := r.lookup(sessionID)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextSpeaker == "" {
		return "", false
	}
	next := s.nextSpeaker
	s.nextSpeaker = ""
	s.touch()
	return next, true
}

// RecordMessage increments the participant's message count and stamps its
// last speak time. A missing session or participant is logged and ignored.
func (r *Registry) RecordMessage(sessionID, roleID string) {
	s, ok := r.lookup(sessionID)
	if !ok {
		log.Printf("meeting: record message: session %s not found", sessionID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		log.Printf("meeting: record message: session %s has ended", sessionID)
		return
	}
	p := s.participant(roleID)
	if p == nil {
		log.Printf("meeting: record message: role %s not in session %s", roleID, sessionID)
		return
	}
	now := time.Now()
	p.MessageCount++
	p.LastSpeakTime = &now
	s.touch()
}

// Pause deactivates a participant. Its message count is retained.
func (r *Registry) Pause(sessionID, roleID string) error {
	return r.setActive(sessionID, roleID, false)
}

// Resume reactivates a previously paused participant.
func (r *Registry) Resume(sessionID, roleID string) error {
	return r.setActive(sessionID, roleID, true)
}

func (r *Registry) setActive(sessionID, roleID string, active bool) error {
	s, ok := r.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	p := s.participant(roleID)
	if p == nil {
		return ErrParticipantNotFound
	}
	p.IsActive = active
	s.touch()
	return nil
}

// SpeakingStats returns roleID -> message count for every participant.
func (r *Registry) SpeakingStats(sessionID string) (map[string]int, error) {
	s, ok := r.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]int, len(s.participants))
	for _, p := range s.participants {
		stats[p.RoleID] = p.MessageCount
	}
	return stats, nil
}

// ActiveParticipants returns snapshots of all active participants.
func (r *Registry) ActiveParticipants(sessionID string) ([]Participant, error) {
	s, ok := r.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Participant
	for _, p := range s.participants {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

// SuggestNextSpeaker picks the active, non-excluded participant with the
// lowest message count, ties broken by roster order. This is the fairness
// rule: absent explicit moderator overrides, speaking counts across active
// participants stay within one of each other.
func (r *Registry) SuggestNextSpeaker(sessionID string, exclude []string) (string, bool) {
	s, ok := r.lookup(sessionID)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	var best *Participant
	for _, p := range s.participants {
		if !p.IsActive || excluded[p.RoleID] {
			continue
		}
		if best == nil || p.MessageCount < best.MessageCount {
			best = p
		}
	}
	if best == nil {
		return "", false
	}
	return best.RoleID, true
}

// End marks the session ended. Further speaker mutations are rejected; the
// session stays addressable for reads.
func (r *Registry) End(sessionID string) error {
	s, ok := r.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = StatusEnded
	s.currentSpeaker = ""
	s.nextSpeaker = ""
	s.touch()
	return nil
}

// SweepIdle ends every non-ended session whose last update is before cutoff.
// Returns the ids of sessions it ended.
func (r *Registry) SweepIdle(cutoff time.Time) []string {
	r.mu.RLock()
	all := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	var ended []string
	for _, s := range all {
		s.mu.Lock()
		if s.status != StatusEnded && s.updatedAt.Before(cutoff) {
			s.status = StatusEnded
			s.currentSpeaker = ""
			s.nextSpeaker = ""
			ended = append(ended, s.id)
		}
		s.mu.Unlock()
	}
	return ended
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) lookup(sessionID string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// checkSpeaker validates that roleID may be set as current or next speaker.
// Caller holds s.mu.
func (s *session) checkSpeaker(roleID string) error {
	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	p := s.participant(roleID)
	if p == nil {
		return ErrParticipantNotFound
	}
	if !p.IsActive {
		return ErrParticipantInactive
	}
	return nil
}

// participant finds the roster entry for roleID. Caller holds s.mu.
func (s *session) participant(roleID string) *Participant {
	for _, p := range s.participants {
		if p.RoleID == roleID {
			return p
		}
	}
	return nil
}

func (s *session) touch() {
	s.updatedAt = time.Now()
}

// snapshot copies the session for callers. Caller holds s.mu (or has
// exclusive access during Create).
func (s *session) snapshot() *Session {
	out := &Session{
		ID:             s.id,
		CurrentSpeaker: s.currentSpeaker,
		NextSpeaker:    s.nextSpeaker,
		Status:         s.status,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
	out.Participants = make([]Participant, len(s.participants))
	for i, p := range s.participants {
		out.Participants[i] = *p
	}
	return out
}
