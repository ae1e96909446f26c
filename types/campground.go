package types

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
)

// GeometryTypePoint is the only geometry type tag a campground accepts.
const GeometryTypePoint = "Point"

const (
	thumbnailTransform = "/upload/w_150"
	popUpPreviewLength = 50
)

// Campground represents a listing in the directory.
// It carries descriptive fields, an optional map location, images, the
// author reference and the ordered list of review references.
type Campground struct {
	// ID is the unique identifier of the campground.
	ID string `json:"id" db:"id"`

	// Title is the human-readable name of the campground.
	Title string `json:"title" db:"title"`

	// Description is free text shown on the campground page.
	Description string `json:"description" db:"description"`

	// Price is the nightly price. Must not be negative.
	Price float64 `json:"price" db:"price"`

	// Location is the display label of the campground's location.
	Location string `json:"location" db:"location"`

	// Geometry is the map point of the campground, if known.
	Geometry *Geometry `json:"geometry,omitempty" db:"geometry"`

	// Images are the uploaded images in display order.
	Images []Image `json:"images" db:"images"`

	// AuthorID references the user that created the campground.
	// It is set once at creation and never changes.
	AuthorID string `json:"author_id" db:"author_id"`

	// ReviewIDs references the campground's reviews in creation order.
	// Reviews carry no pointer back, so this list is the only link.
	ReviewIDs []string `json:"review_ids" db:"review_ids"`

	// CreatedAt is the timestamp at which the campground was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Geometry is a GeoJSON-style point.
type Geometry struct {
	// Type is the GeoJSON type tag. Only "Point" is recognized.
	Type string `json:"type"`

	// Coordinates holds longitude then latitude.
	Coordinates []float64 `json:"coordinates"`
}

// Image describes one stored campground image.
type Image struct {
	// URL is where the original image is served from.
	URL string `json:"url"`

	// Filename is the object storage key of the image.
	Filename string `json:"filename"`
}

// Thumbnail returns the resized variant of the image URL. It is derived on
// read and never stored.
func (i Image) Thumbnail() string {
	return strings.Replace(i.URL, "/upload", thumbnailTransform, 1)
}

// PopUpMarkup returns the HTML snippet shown in the map popup for the
// campground: a link to its page and a preview of the description.
func (c Campground) PopUpMarkup() string {
	preview := c.Description
	if runes := []rune(preview); len(runes) > popUpPreviewLength {
		preview = string(runes[:popUpPreviewLength])
	}
	return fmt.Sprintf(
		"<strong><a href=\"/campgrounds/%s\">%s</a></strong><p>%s...</p>",
		html.EscapeString(c.ID),
		html.EscapeString(c.Title),
		html.EscapeString(preview),
	)
}

// HasReview reports whether reviewID is referenced by the campground.
func (c Campground) HasReview(reviewID string) bool {
	for _, id := range c.ReviewIDs {
		if id == reviewID {
			return true
		}
	}
	return false
}

// Validate checks the fields a client may set.
func (c Campground) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		return errors.New("location is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("description is required")
	}
	if c.Price < 0 {
		return errors.New("price must not be negative")
	}
	if c.Geometry != nil {
		if err := c.Geometry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects a geometry without a recognized type tag or without a
// coordinate pair.
func (g Geometry) Validate() error {
	if g.Type != GeometryTypePoint {
		return fmt.Errorf("geometry type %q is not supported", g.Type)
	}
	if len(g.Coordinates) != 2 {
		return errors.New("geometry requires a coordinate pair")
	}
	lng, lat := g.Coordinates[0], g.Coordinates[1]
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return errors.New("geometry coordinates out of range")
	}
	return nil
}
