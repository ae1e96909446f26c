package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
	"github.com/yelpcamp/apiserver/types"
)

const (
	msgMustSignIn         = "You must be signed in first!"
	msgNoPermission       = "You do not have permission to do that!"
	msgCampgroundNotFound = "Cannot find that campground!"
	msgReviewNotFound     = "Cannot find that review!"
	msgBadCredentials     = "Password or username is incorrect"
	msgServerError        = "Oh No, Something Went Wrong!"
)

// Views renders JSON views and carries the per-request session helpers
// shared by every handler.
type Views struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewViews(users *services.UserService, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{users: users, logger: logger}
}

// render writes a view. Every view carries the current user and drains the
// flash messages queued for it.
func (v *Views) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	view := map[string]any{}
	for key, value := range data {
		view[key] = value
	}
	view["view"] = name
	view["current_user"] = v.currentUser(r)

	success, failure := []string{}, []string{}
	if s, ok := session.FromContext(r.Context()); ok {
		success = s.Drain(session.FlashSuccess)
		failure = s.Drain(session.FlashError)
	}
	view["success"] = success
	view["error"] = failure

	writeJSON(w, status, view)
}

func (v *Views) currentUser(r *http.Request) *types.User {
	userID := principal(r)
	if userID == "" {
		return nil
	}
	user, err := v.users.GetByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			v.logger.Error("load current user", "user_id", userID, "error", err)
		}
		return nil
	}
	return &user
}

// fail maps a service error onto a flash and redirect, or a 500 page for
// failures the client cannot act on. back is where validation and
// permission failures return to.
func (v *Views) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		rememberReturnTo(r)
		flashRedirect(w, r, session.FlashError, msgMustSignIn, "/login")
	case errors.Is(err, services.ErrNotAuthorized):
		flashRedirect(w, r, session.FlashError, msgNoPermission, back)
	case errors.Is(err, services.ErrReviewNotFound):
		flashRedirect(w, r, session.FlashError, msgReviewNotFound, back)
	case errors.Is(err, services.ErrNotFound):
		flashRedirect(w, r, session.FlashError, msgCampgroundNotFound, "/campgrounds")
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrDuplicateUser):
		flashRedirect(w, r, session.FlashError, err.Error(), back)
	case errors.Is(err, services.ErrInvalidCredentials):
		flashRedirect(w, r, session.FlashError, msgBadCredentials, "/login")
	default:
		v.serverError(w, r, err)
	}
}

func (v *Views) serverError(w http.ResponseWriter, r *http.Request, err error) {
	v.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msgServerError)
}

// SessionError is the session.Options error handler.
func (v *Views) SessionError(w http.ResponseWriter, r *http.Request, err error) {
	v.serverError(w, r, err)
}

func principal(r *http.Request) string {
	if s, ok := session.FromContext(r.Context()); ok {
		return s.UserID()
	}
	return ""
}

func flash(r *http.Request, kind, msg string) {
	if s, ok := session.FromContext(r.Context()); ok {
		s.Push(kind, msg)
	}
}

func flashRedirect(w http.ResponseWriter, r *http.Request, kind, msg, to string) {
	flash(r, kind, msg)
	http.Redirect(w, r, to, http.StatusFound)
}

// rememberReturnTo stores the page an anonymous client asked for so login
// can send it back there. Only GET targets are worth returning to.
func rememberReturnTo(r *http.Request) {
	if r.Method != http.MethodGet {
		return
	}
	if s, ok := session.FromContext(r.Context()); ok {
		s.SetReturnTo(r.URL.RequestURI())
	}
}

// Home renders the landing page.
func (v *Views) Home(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, "home", nil)
}
