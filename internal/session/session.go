package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Flash kinds rendered by the views.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// payload is what a session persists between requests.
type payload struct {
	UserID   string              `json:"user_id,omitempty"`
	ReturnTo string              `json:"return_to,omitempty"`
	Flash    map[string][]string `json:"flash,omitempty"`
}

// Session is the per-request view of a client's session. It is created by
// Manager.Middleware and committed once before the response is written.
type Session struct {
	mu sync.Mutex

	id        string
	expiresAt time.Time
	userID    string
	returnTo  string

	// incoming holds flash messages loaded from the store; pending holds
	// the ones pushed during this request. Only pending survives commit.
	incoming map[string][]string
	pending  map[string][]string

	isNew bool
	dirty bool

	// staleID is a previous id whose record must be removed on commit.
	staleID string
}

func newSession(id string) *Session {
	return &Session{
		id:       id,
		isNew:    true,
		incoming: map[string][]string{},
		pending:  map[string][]string{},
	}
}

func loadSession(rec Record) (*Session, error) {
	var p payload
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, err
		}
	}
	s := &Session{
		id:        rec.ID,
		expiresAt: rec.ExpiresAt,
		userID:    p.UserID,
		returnTo:  p.ReturnTo,
		incoming:  p.Flash,
		pending:   map[string][]string{},
	}
	if s.incoming == nil {
		s.incoming = map[string][]string{}
	}
	// Delivered messages must not be stored again.
	if len(s.incoming) > 0 {
		s.dirty = true
	}
	return s, nil
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// UserID returns the authenticated principal, or "" for an anonymous session.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SetUserID binds the session to a user. Pass "" to clear it.
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return
	}
	s.userID = userID
	s.dirty = true
}

// SetReturnTo remembers where to send the client after it logs in.
func (s *Session) SetReturnTo(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.returnTo == url {
		return
	}
	s.returnTo = url
	s.dirty = true
}

// TakeReturnTo returns and clears the remembered location.
func (s *Session) TakeReturnTo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := s.returnTo
	if url != "" {
		s.returnTo = ""
		s.dirty = true
	}
	return url
}

// Push queues a flash message for the next view that renders.
func (s *Session) Push(kind, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[kind] = append(s.pending[kind], msg)
	s.dirty = true
}

// Drain returns and clears every queued message of the given kind. A second
// call returns an empty slice.
func (s *Session) Drain(kind string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.incoming[kind])+len(s.pending[kind]))
	out = append(out, s.incoming[kind]...)
	out = append(out, s.pending[kind]...)
	if len(s.pending[kind]) > 0 {
		s.dirty = true
	}
	delete(s.incoming, kind)
	delete(s.pending, kind)
	return out
}

func (s *Session) encode() ([]byte, error) {
	p := payload{UserID: s.userID, ReturnTo: s.returnTo}
	if len(s.pending) > 0 {
		p.Flash = s.pending
	}
	return json.Marshal(p)
}

type contextKey struct{}

// FromContext returns the session attached by Manager.Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// NewContext attaches s to ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}
