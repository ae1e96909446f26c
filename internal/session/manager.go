package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCookieName = "session"
	DefaultTTL        = 7 * 24 * time.Hour
	DefaultTouchAfter = 24 * time.Hour

	commitTimeout = 5 * time.Second
)

// ErrStoreUnavailable is reported when the store fails for a reason other
// than a missing record.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Options configures a Manager. Zero values fall back to the defaults.
type Options struct {
	CookieName string
	TTL        time.Duration
	TouchAfter time.Duration
	Secure     bool

	// ErrorHandler writes the response when a session cannot be loaded
	// or committed.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// Manager loads a session for every request and commits it before the
// response is written.
type Manager struct {
	store  Store
	codec  *Codec
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store Store, secret string, opts Options, logger *slog.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TouchAfter < 0 {
		opts.TouchAfter = 0
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = defaultErrorHandler
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		codec:  NewCodec(secret),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Middleware attaches a session to the request context. Requests without a
// usable cookie get a fresh anonymous session; they are never rejected.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.load(r)
		if err != nil {
			m.logger.Error("load session", "error", err)
			m.opts.ErrorHandler(w, r, err)
			return
		}

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() error { return m.commit(r.Context(), w, s) }
		cw.fail = func(err error) {
			m.logger.Error("commit session", "error", err)
			m.opts.ErrorHandler(w, r, err)
		}

		next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), s)))
		cw.commitOnce()
	})
}

func (m *Manager) load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return newSession(uuid.NewString()), nil
	}

	id, err := m.codec.Decode(cookie.Value)
	if err != nil {
		return newSession(uuid.NewString()), nil
	}

	rec, err := m.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newSession(uuid.NewString()), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s, err := loadSession(rec)
	if err != nil {
		m.logger.Warn("discarding unreadable session", "error", err)
		return newSession(uuid.NewString()), nil
	}
	return s, nil
}

// Renew moves the session to a new id, keeping its contents. The record
// under the old id is removed on commit.
func (m *Manager) Renew(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isNew && s.staleID == "" {
		s.staleID = s.id
	}
	s.id = uuid.NewString()
	s.isNew = true
}

// Destroy ends the session and replaces it with an empty anonymous one.
// Messages pushed afterwards are delivered through the new session.
func (m *Manager) Destroy(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isNew && s.staleID == "" {
		s.staleID = s.id
	}
	s.id = uuid.NewString()
	s.userID = ""
	s.returnTo = ""
	s.incoming = map[string][]string{}
	s.pending = map[string][]string{}
	s.isNew = true
	s.dirty = true
}

// commit persists the session and sets the cookie. The record under a
// rotated-away id is removed only once its replacement is saved, so a
// failed save leaves the previous session usable.
func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.now()
	expiresAt := now.Add(m.opts.TTL)

	switch {
	case s.isNew || s.dirty:
		if err := m.save(ctx, s, expiresAt); err != nil {
			return err
		}
	case now.Sub(s.expiresAt.Add(-m.opts.TTL)) >= m.opts.TouchAfter:
		if err := m.store.Touch(ctx, s.id, expiresAt); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: touch session %s: %w", ErrStoreUnavailable, s.id, err)
			}
			// Swept between load and commit.
			if err := m.save(ctx, s, expiresAt); err != nil {
				return err
			}
		}
	default:
		return nil
	}

	if s.staleID != "" {
		if err := m.store.Delete(ctx, s.staleID); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Error("delete stale session", "error", err)
		}
		s.staleID = ""
	}

	if err := m.setCookie(w, s.id, expiresAt); err != nil {
		return err
	}
	s.expiresAt = expiresAt
	s.isNew = false
	s.dirty = false
	return nil
}

func (m *Manager) save(ctx context.Context, s *Session, expiresAt time.Time) error {
	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Save(ctx, Record{ID: s.id, Data: data, ExpiresAt: expiresAt}); err != nil {
		return fmt.Errorf("%w: save session %s: %w", ErrStoreUnavailable, s.id, err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string, expiresAt time.Time) error {
	value, err := m.codec.Encode(id, expiresAt)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "session store unavailable"})
}

// commitWriter commits the session right before the first header write so
// the cookie can still be set. If the commit fails, the caller's status and
// body are dropped and fail writes the error response instead.
type commitWriter struct {
	http.ResponseWriter
	commit func() error
	fail   func(error)
	once   sync.Once
	failed bool
}

func (cw *commitWriter) commitOnce() {
	cw.once.Do(func() {
		err := cw.commit()
		if err == nil {
			return
		}
		cw.failed = true
		header := cw.ResponseWriter.Header()
		for key := range header {
			delete(header, key)
		}
		cw.fail(err)
	})
}

func (cw *commitWriter) WriteHeader(status int) {
	cw.commitOnce()
	if cw.failed {
		return
	}
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.commitOnce()
	if cw.failed {
		return len(b), nil
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) Flush() {
	cw.commitOnce()
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *commitWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
