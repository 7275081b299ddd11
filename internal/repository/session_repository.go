package repository

import (
	"sync"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/google/uuid"
)

type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
)

// Session is one user's in-memory workspace: the imported records, the
// sheet layout needed to export them again and the generation settings.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.RWMutex
	config    model.GenerationConfig
	sheetName string
	headers   []string
	records   []model.StudentRecord
	index     map[string]int
	runState  RunState
	touchedAt time.Time
}

func newSession(cfg model.GenerationConfig) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		config:    cfg,
		index:     map[string]int{},
		runState:  RunIdle,
		touchedAt: now,
	}
}

func (s *Session) Config() model.GenerationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Session) SetConfig(cfg model.GenerationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.touchedAt = time.Now()
}

// Records returns a deep copy of the records in import order.
func (s *Session) Records() []model.StudentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.StudentRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Session) Headers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.headers...)
}

func (s *Session) SheetName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheetName
}

// Replace swaps in a freshly imported record list. It refuses while a run is active.
func (s *Session) Replace(sheetName string, headers []string, records []model.StudentRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runState == RunRunning {
		return false
	}
	s.sheetName = sheetName
	s.headers = append([]string(nil), headers...)
	s.records = make([]model.StudentRecord, len(records))
	s.index = make(map[string]int, len(records))
	for i, r := range records {
		s.records[i] = r.Clone()
		s.index[r.ID] = i
	}
	s.touchedAt = time.Now()
	return true
}

// Publish merges updated records back by ID. Unknown IDs are ignored.
func (s *Session) Publish(updated []model.StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range updated {
		if i, ok := s.index[r.ID]; ok {
			s.records[i] = r.Clone()
		}
	}
	s.touchedAt = time.Now()
}

// EditComment applies a manual edit and returns the updated record.
func (s *Session) EditComment(id, comment string) (model.StudentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.StudentRecord{}, false
	}
	s.records[i].EditComment(comment)
	s.touchedAt = time.Now()
	return s.records[i].Clone(), true
}

// TryStartRun flips the session into the running state unless it already is.
func (s *Session) TryStartRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runState == RunRunning {
		return false
	}
	s.runState = RunRunning
	s.touchedAt = time.Now()
	return true
}

func (s *Session) FinishRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runState = RunIdle
	s.touchedAt = time.Now()
}

func (s *Session) RunState() RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runState
}

func (s *Session) StatusCounts() map[model.RecordStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[model.RecordStatus]int{
		model.StatusPending:    0,
		model.StatusProcessing: 0,
		model.StatusCompleted:  0,
		model.StatusError:      0,
	}
	for _, r := range s.records {
		counts[r.Status]++
	}
	return counts
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchedAt, s.runState == RunIdle
}

// SessionRepository keeps sessions in memory only; nothing survives a restart.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: map[uuid.UUID]*Session{}}
}

func (r *SessionRepository) Create(cfg model.GenerationConfig) *Session {
	s := newSession(cfg)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *SessionRepository) FindByID(id string) (*Session, bool) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[uid]
	return s, ok
}

func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PurgeIdle drops sessions untouched for longer than ttl. Running sessions are kept.
func (r *SessionRepository) PurgeIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, s := range r.sessions {
		touched, idle := s.idleSince()
		if idle && touched.Before(cutoff) {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged
}
