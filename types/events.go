package types

import "time"

// CampgroundDeletedChannel is the broker channel deletion events go to.
const CampgroundDeletedChannel = "campground.deleted"

// CampgroundDeleted is emitted once a campground deletion has committed.
// ReviewIDs is the campground's review list as it was at deletion time,
// not the result of a later query.
type CampgroundDeleted struct {
	CampgroundID string    `json:"campground_id"`
	ReviewIDs    []string  `json:"review_ids"`
	DeletedAt    time.Time `json:"deleted_at"`
}
