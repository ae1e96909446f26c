package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
)

const defaultLandingPath = "/campgrounds"

// AuthHandler provides registration, login and logout.
type AuthHandler struct {
	userService *services.UserService
	sessions    *session.Manager
	views       *Views
}

func NewAuthHandler(userService *services.UserService, sessions *session.Manager, views *Views) *AuthHandler {
	return &AuthHandler{userService: userService, sessions: sessions, views: views}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, sessions *session.Manager, views *Views, gate *Gate) {
	handler := NewAuthHandler(userService, sessions, views)

	r.Get("/register", handler.RegisterForm)
	r.Post("/register", handler.Register)
	r.Get("/login", handler.LoginForm)
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
	r.Post("/logout", handler.Logout)
	r.With(gate.RequireLogin).Get("/me", handler.Me)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "users/register", nil)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "users/login", nil)
}

// Register creates an account and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := parseCredentials(w, r)
	if err != nil {
		flashRedirect(w, r, session.FlashError, err.Error(), "/register")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.views.fail(w, r, err, "/register")
		return
	}

	h.logIn(r, user.ID)
	flashRedirect(w, r, session.FlashSuccess, "Welcome to Yelp Camp!", defaultLandingPath)
}

// Login verifies credentials and binds the session to the user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseCredentials(w, r)
	if err != nil {
		flashRedirect(w, r, session.FlashError, msgBadCredentials, "/login")
		return
	}

	user, err := h.userService.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		h.views.fail(w, r, err, "/login")
		return
	}

	target := h.logIn(r, user.ID)
	flashRedirect(w, r, session.FlashSuccess, "Welcome back!", target)
}

// Logout ends the session. The goodbye message rides on the fresh
// anonymous session that replaces it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromContext(r.Context()); ok {
		h.sessions.Destroy(s)
	}
	flashRedirect(w, r, session.FlashSuccess, "Goodbye!", defaultLandingPath)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), principal(r))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.views.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// logIn rotates the session id, records the user and returns where the
// client should land.
func (h *AuthHandler) logIn(r *http.Request, userID string) string {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return defaultLandingPath
	}
	h.sessions.Renew(s)
	s.SetUserID(userID)
	if target := s.TakeReturnTo(); strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return defaultLandingPath
}

func parseCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if isJSONRequest(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			return credentialsRequest{}, err
		}
	} else {
		if err := parseForm(r); err != nil {
			return credentialsRequest{}, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	req.Username = strings.TrimSpace(req.Username)
	return req, nil
}
