package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yelpcamp/apiserver/internal/services"
)

const (
	paramCampgroundID = "id"
	paramReviewID     = "reviewID"
)

// Gate holds the route guards. Every guard runs before the handler it
// protects, so a rejected request never reaches a mutation.
type Gate struct {
	campgrounds *services.CampgroundService
	reviews     *services.ReviewService
	views       *Views
}

func NewGate(campgrounds *services.CampgroundService, reviews *services.ReviewService, views *Views) *Gate {
	return &Gate{campgrounds: campgrounds, reviews: reviews, views: views}
}

// RequireLogin sends anonymous clients to the login page.
func (g *Gate) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal(r) == "" {
			g.views.fail(w, r, services.ErrNotAuthenticated, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCampgroundAuthor lets only the campground's author through.
func (g *Gate) RequireCampgroundAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, paramCampgroundID)
		user := principal(r)
		if user == "" {
			g.views.fail(w, r, services.ErrNotAuthenticated, "/login")
			return
		}

		campground, err := g.campgrounds.Get(r.Context(), id)
		if err != nil {
			g.views.fail(w, r, err, "/campgrounds")
			return
		}
		if err := services.Authorize(user, campground.AuthorID); err != nil {
			g.views.fail(w, r, err, campgroundPath(id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireReviewAuthor lets only the review's author through. The review
// must be listed by the campground in the route.
func (g *Gate) RequireReviewAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, paramCampgroundID)
		user := principal(r)
		if user == "" {
			g.views.fail(w, r, services.ErrNotAuthenticated, "/login")
			return
		}

		review, err := g.reviews.Get(r.Context(), id, chi.URLParam(r, paramReviewID))
		if err != nil {
			g.views.fail(w, r, err, campgroundPath(id))
			return
		}
		if err := services.Authorize(user, review.AuthorID); err != nil {
			g.views.fail(w, r, err, campgroundPath(id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func campgroundPath(id string) string {
	return "/campgrounds/" + id
}
