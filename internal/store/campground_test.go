package store

import (
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

// fakeRow fills Scan destinations from a campground row.
type fakeRow struct {
	geometry []byte
	images   []byte
}

func (r fakeRow) Scan(dest ...any) error {
	*dest[0].(*string) = "c1"
	*dest[1].(*string) = "Tumalo"
	*dest[2].(*string) = "River sites."
	*dest[3].(*float64) = 18
	*dest[4].(*string) = "Bend, Oregon"
	*dest[5].(*[]byte) = r.geometry
	*dest[6].(*[]byte) = r.images
	*dest[7].(*string) = "u1"
	*dest[8].(*pq.StringArray) = pq.StringArray{"r1"}
	*dest[9].(*time.Time) = time.Unix(0, 0)
	*dest[10].(*time.Time) = time.Unix(0, 0)
	return nil
}

func TestScanCampground(t *testing.T) {
	campground, err := scanCampground(fakeRow{
		geometry: []byte(`{"type":"Point","coordinates":[-121.3,44.05]}`),
		images:   []byte(`[{"url":"https://img/upload/a.jpg","filename":"YelpCamp/a.jpg"}]`),
	})
	if err != nil {
		t.Fatalf("scanCampground: %v", err)
	}
	if campground.Geometry == nil || campground.Geometry.Coordinates[1] != 44.05 {
		t.Fatalf("geometry = %+v", campground.Geometry)
	}
	if len(campground.Images) != 1 || campground.Images[0].Filename != "YelpCamp/a.jpg" {
		t.Fatalf("images = %+v", campground.Images)
	}
	if len(campground.ReviewIDs) != 1 {
		t.Fatalf("review ids = %v", campground.ReviewIDs)
	}
}

func TestScanCampgroundWithoutGeometry(t *testing.T) {
	campground, err := scanCampground(fakeRow{images: []byte(`[]`)})
	if err != nil {
		t.Fatalf("scanCampground: %v", err)
	}
	if campground.Geometry != nil {
		t.Fatalf("geometry = %+v; want nil", campground.Geometry)
	}
	if campground.Images == nil {
		t.Fatal("images should be an empty slice")
	}
}

func TestScanCampgroundRejectsCorruptDocuments(t *testing.T) {
	tests := []struct {
		name string
		row  fakeRow
		want string
	}{
		{name: "geometry", row: fakeRow{geometry: []byte(`{"type":`), images: []byte(`[]`)}, want: "decode geometry"},
		{name: "images", row: fakeRow{images: []byte(`{"url":1}`)}, want: "decode images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanCampground(tt.row)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v; want %q", err, tt.want)
			}
		})
	}
}
