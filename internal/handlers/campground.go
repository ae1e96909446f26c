package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
	"github.com/yelpcamp/apiserver/types"
)

const (
	formGroupCampground = "campground"
	formFieldImage      = "image"
	maxImagesPerRequest = 10
	maxImageBytes       = 10 << 20
)

// CampgroundHandler provides HTTP handlers for campgrounds.
type CampgroundHandler struct {
	campgroundService *services.CampgroundService
	views             *Views
}

func NewCampgroundHandler(campgroundService *services.CampgroundService, views *Views) *CampgroundHandler {
	return &CampgroundHandler{campgroundService: campgroundService, views: views}
}

// CampgroundRouter registers campground and review routes on the given
// router.
func CampgroundRouter(
	r chi.Router,
	campgroundService *services.CampgroundService,
	reviewService *services.ReviewService,
	views *Views,
	gate *Gate,
) {
	handler := NewCampgroundHandler(campgroundService, views)
	reviews := NewReviewHandler(reviewService, views)

	r.Get("/", handler.ListCampgrounds)
	r.With(gate.RequireLogin).Post("/", handler.CreateCampground)
	r.With(gate.RequireLogin).Get("/new", handler.NewCampgroundForm)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.ShowCampground)
		r.With(gate.RequireCampgroundAuthor).Get("/edit", handler.EditCampgroundForm)
		r.With(gate.RequireCampgroundAuthor).Put("/", handler.UpdateCampground)
		r.With(gate.RequireCampgroundAuthor).Delete("/", handler.DeleteCampground)

		r.Route("/reviews", func(r chi.Router) {
			r.With(gate.RequireLogin).Post("/", reviews.CreateReview)
			r.Get("/{reviewID}", reviews.GetReview)
			r.With(gate.RequireReviewAuthor).Delete("/{reviewID}", reviews.DeleteReview)
		})
	})
}

// CampgroundListResponse is the paginated index view payload.
type CampgroundListResponse struct {
	Items    []campgroundView  `json:"items"`
	Features featureCollection `json:"features"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int               `json:"total"`
}

type imageView struct {
	types.Image
	Thumbnail string `json:"thumbnail"`
}

type campgroundView struct {
	types.Campground
	Images []imageView `json:"images"`
}

type campgroundDetailView struct {
	services.CampgroundDetail
	Images []imageView `json:"images"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   *types.Geometry   `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	ID          string `json:"id"`
	PopUpMarkup string `json:"popUpMarkup"`
}

func (h *CampgroundHandler) ListCampgrounds(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.campgroundService.List(r.Context(), offset, limit)
	if err != nil {
		h.views.serverError(w, r, err)
		return
	}

	resp := CampgroundListResponse{
		Items:    make([]campgroundView, 0, len(items)),
		Features: featureCollection{Type: "FeatureCollection", Features: []feature{}},
		Page:     page,
		Limit:    limit,
		Total:    total,
	}
	for _, c := range items {
		resp.Items = append(resp.Items, campgroundView{Campground: c, Images: toImageViews(c.Images)})
		if c.Geometry != nil {
			resp.Features.Features = append(resp.Features.Features, feature{
				Type:       "Feature",
				Geometry:   c.Geometry,
				Properties: featureProperties{ID: c.ID, PopUpMarkup: c.PopUpMarkup()},
			})
		}
	}
	h.views.render(w, r, http.StatusOK, "campgrounds/index", map[string]any{"campgrounds": resp})
}

func (h *CampgroundHandler) NewCampgroundForm(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "campgrounds/new", nil)
}

func (h *CampgroundHandler) ShowCampground(w http.ResponseWriter, r *http.Request) {
	detail, err := h.campgroundService.GetDetail(r.Context(), chi.URLParam(r, paramCampgroundID))
	if err != nil {
		h.views.fail(w, r, err, "/campgrounds")
		return
	}
	h.views.render(w, r, http.StatusOK, "campgrounds/show", map[string]any{
		"campground": campgroundDetailView{CampgroundDetail: detail, Images: toImageViews(detail.Images)},
	})
}

func (h *CampgroundHandler) EditCampgroundForm(w http.ResponseWriter, r *http.Request) {
	campground, err := h.campgroundService.Get(r.Context(), chi.URLParam(r, paramCampgroundID))
	if err != nil {
		h.views.fail(w, r, err, "/campgrounds")
		return
	}
	h.views.render(w, r, http.StatusOK, "campgrounds/edit", map[string]any{
		"campground": campgroundView{Campground: campground, Images: toImageViews(campground.Images)},
	})
}

func (h *CampgroundHandler) CreateCampground(w http.ResponseWriter, r *http.Request) {
	req, err := parseCampgroundRequest(w, r)
	if err != nil {
		flashRedirect(w, r, session.FlashError, err.Error(), "/campgrounds/new")
		return
	}
	defer closeUploads(req.Uploads)

	created, err := h.campgroundService.Create(r.Context(), principal(r), req.Input, req.Uploads)
	if err != nil {
		h.views.fail(w, r, err, "/campgrounds/new")
		return
	}
	flashRedirect(w, r, session.FlashSuccess, "Successfully made a new campground!", campgroundPath(created.ID))
}

func (h *CampgroundHandler) UpdateCampground(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, paramCampgroundID)
	req, err := parseCampgroundRequest(w, r)
	if err != nil {
		flashRedirect(w, r, session.FlashError, err.Error(), campgroundPath(id)+"/edit")
		return
	}
	defer closeUploads(req.Uploads)

	updated, err := h.campgroundService.Update(r.Context(), principal(r), id, req.Input, req.Uploads, req.DeleteImages)
	if err != nil {
		h.views.fail(w, r, err, campgroundPath(id))
		return
	}
	flashRedirect(w, r, session.FlashSuccess, "Successfully updated campground!", campgroundPath(updated.ID))
}

func (h *CampgroundHandler) DeleteCampground(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, paramCampgroundID)
	if err := h.campgroundService.Delete(r.Context(), principal(r), id); err != nil {
		h.views.fail(w, r, err, campgroundPath(id))
		return
	}
	flashRedirect(w, r, session.FlashSuccess, "Successfully deleted campground", "/campgrounds")
}

// CampgroundRequest is the parsed create or update payload.
type CampgroundRequest struct {
	Input        services.CampgroundInput
	Uploads      []services.Upload
	DeleteImages []string
}

type campgroundJSON struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        float64         `json:"price"`
	Location     string          `json:"location"`
	Geometry     *types.Geometry `json:"geometry"`
	DeleteImages []string        `json:"delete_images"`
}

func parseCampgroundRequest(w http.ResponseWriter, r *http.Request) (CampgroundRequest, error) {
	if isJSONRequest(r) {
		var body campgroundJSON
		if err := decodeJSON(w, r, &body); err != nil {
			return CampgroundRequest{}, err
		}
		return CampgroundRequest{
			Input: services.CampgroundInput{
				Title:       body.Title,
				Description: body.Description,
				Price:       body.Price,
				Location:    body.Location,
				Geometry:    body.Geometry,
			},
			DeleteImages: body.DeleteImages,
		}, nil
	}

	if err := parseForm(r); err != nil {
		return CampgroundRequest{}, err
	}

	price, err := parseOptionalFloat(formValue(r, formGroupCampground, "price"))
	if err != nil {
		return CampgroundRequest{}, errors.New("invalid price")
	}
	geometry, err := parseGeometryForm(r)
	if err != nil {
		return CampgroundRequest{}, err
	}
	uploads, err := parseImageFiles(r.MultipartForm)
	if err != nil {
		return CampgroundRequest{}, err
	}

	return CampgroundRequest{
		Input: services.CampgroundInput{
			Title:       formValue(r, formGroupCampground, "title"),
			Description: formValue(r, formGroupCampground, "description"),
			Price:       price,
			Location:    formValue(r, formGroupCampground, "location"),
			Geometry:    geometry,
		},
		Uploads:      uploads,
		DeleteImages: formValues(r, "deleteImages[]", "deleteImages"),
	}, nil
}

// parseGeometryForm accepts either a GeoJSON geometry field or a
// longitude/latitude pair. Neither present means no geometry.
func parseGeometryForm(r *http.Request) (*types.Geometry, error) {
	if raw := formValue(r, formGroupCampground, "geometry"); raw != "" {
		var geometry types.Geometry
		if err := json.Unmarshal([]byte(raw), &geometry); err != nil {
			return nil, errors.New("invalid geometry")
		}
		return &geometry, nil
	}

	lng := formValue(r, formGroupCampground, "longitude")
	lat := formValue(r, formGroupCampground, "latitude")
	if lng == "" && lat == "" {
		return nil, nil
	}
	lngValue, err := parseOptionalFloat(lng)
	if err != nil || lng == "" {
		return nil, errors.New("invalid longitude")
	}
	latValue, err := parseOptionalFloat(lat)
	if err != nil || lat == "" {
		return nil, errors.New("invalid latitude")
	}
	return &types.Geometry{Type: types.GeometryTypePoint, Coordinates: []float64{lngValue, latValue}}, nil
}

func parseImageFiles(form *multipart.Form) ([]services.Upload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldImage]
	if len(files) > maxImagesPerRequest {
		return nil, fmt.Errorf("at most %d images are allowed", maxImagesPerRequest)
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxImageBytes {
			return nil, fmt.Errorf("image %s is too large", fileHeader.Filename)
		}
		contentType := fileHeader.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("file %s is not an image", fileHeader.Filename)
		}
		file, err := fileHeader.Open()
		if err != nil {
			closeUploads(uploads)
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		uploads = append(uploads, services.Upload{
			Name:        fileHeader.Filename,
			ContentType: contentType,
			Size:        fileHeader.Size,
			Body:        file,
		})
	}
	return uploads, nil
}

func closeUploads(uploads []services.Upload) {
	for _, upload := range uploads {
		if closer, ok := upload.Body.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

func toImageViews(images []types.Image) []imageView {
	views := make([]imageView, 0, len(images))
	for _, image := range images {
		views = append(views, imageView{Image: image, Thumbnail: image.Thumbnail()})
	}
	return views
}
