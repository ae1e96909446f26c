package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
)

const formGroupReview = "review"

// ReviewHandler provides HTTP handlers for reviews nested under a
// campground.
type ReviewHandler struct {
	reviewService *services.ReviewService
	views         *Views
}

func NewReviewHandler(reviewService *services.ReviewService, views *Views) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, views: views}
}

type reviewJSON struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Rating int    `json:"rating"`
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviewService.Get(r.Context(), chi.URLParam(r, paramCampgroundID), chi.URLParam(r, paramReviewID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		h.views.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, paramCampgroundID)
	input, err := parseReviewRequest(w, r)
	if err != nil {
		flashRedirect(w, r, session.FlashError, err.Error(), campgroundPath(id))
		return
	}

	if _, err := h.reviewService.Create(r.Context(), principal(r), id, input); err != nil {
		h.views.fail(w, r, err, campgroundPath(id))
		return
	}
	flashRedirect(w, r, session.FlashSuccess, "Created new review!", campgroundPath(id))
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, paramCampgroundID)
	if err := h.reviewService.Delete(r.Context(), principal(r), id, chi.URLParam(r, paramReviewID)); err != nil {
		h.views.fail(w, r, err, campgroundPath(id))
		return
	}
	flashRedirect(w, r, session.FlashSuccess, "Successfully deleted review", campgroundPath(id))
}

func parseReviewRequest(w http.ResponseWriter, r *http.Request) (services.ReviewInput, error) {
	if isJSONRequest(r) {
		var body reviewJSON
		if err := decodeJSON(w, r, &body); err != nil {
			return services.ReviewInput{}, err
		}
		return services.ReviewInput{Title: body.Title, Body: body.Body, Rating: body.Rating}, nil
	}

	if err := parseForm(r); err != nil {
		return services.ReviewInput{}, err
	}
	rating, err := parseOptionalInt(formValue(r, formGroupReview, "rating"))
	if err != nil {
		return services.ReviewInput{}, errors.New("invalid rating")
	}
	return services.ReviewInput{
		Title:  formValue(r, formGroupReview, "title"),
		Body:   formValue(r, formGroupReview, "body"),
		Rating: rating,
	}, nil
}
