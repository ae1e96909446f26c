package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yelpcamp/apiserver/types"
)

// ReviewCascade deletes the reviews a campground listed when it was
// deleted.
type ReviewCascade struct {
	reviews ReviewRepository
}

func NewReviewCascade(reviews ReviewRepository) *ReviewCascade {
	return &ReviewCascade{reviews: reviews}
}

// OnCampgroundDeleted removes every review in evt.ReviewIDs with a single
// repository call. Ids that are already gone are ignored, so replaying an
// event is harmless.
func (c *ReviewCascade) OnCampgroundDeleted(ctx context.Context, evt types.CampgroundDeleted) error {
	if len(evt.ReviewIDs) == 0 {
		return nil
	}
	if _, err := c.reviews.DeleteMany(ctx, evt.ReviewIDs); err != nil {
		return fmt.Errorf("%w: campground %s: %w", ErrPartialCascade, evt.CampgroundID, err)
	}
	return nil
}

// Publisher sends a payload to a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventPublisher forwards deletion events to a broker so a reconcile
// worker can retry cascades that failed in-process.
type EventPublisher struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewEventPublisher(publisher Publisher, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{publisher: publisher, logger: logger}
}

func (p *EventPublisher) OnCampgroundDeleted(ctx context.Context, evt types.CampgroundDeleted) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	id, err := p.publisher.Publish(ctx, types.CampgroundDeletedChannel, data, map[string]string{
		"campground_id": evt.CampgroundID,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", types.CampgroundDeletedChannel, err)
	}
	p.logger.Debug("published deletion event", "campground_id", evt.CampgroundID, "message_id", id)
	return nil
}

// Reconcile handles one published deletion event by re-running the
// cascade. It is safe to call more than once for the same event. A payload
// that cannot be decoded yields ErrValidation.
func (c *ReviewCascade) Reconcile(ctx context.Context, data []byte) error {
	var evt types.CampgroundDeleted
	if err := json.Unmarshal(data, &evt); err != nil {
		return validationError(fmt.Errorf("decode deletion event: %w", err))
	}
	return c.OnCampgroundDeleted(ctx, evt)
}
