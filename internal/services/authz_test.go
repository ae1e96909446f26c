package services

import (
	"context"
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		principal string
		owner     string
		want      error
	}{
		{"", "alice", ErrNotAuthenticated},
		{"", "", ErrNotAuthenticated},
		{"bob", "alice", ErrNotAuthorized},
		{"alice", "alice", nil},
	}
	for _, tc := range tests {
		if got := Authorize(tc.principal, tc.owner); !errors.Is(got, tc.want) {
			t.Errorf("Authorize(%q, %q) = %v; want %v", tc.principal, tc.owner, got, tc.want)
		}
	}
}

func TestOwnershipScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	alice, err := f.users.Register(ctx, "alice", "alice-pw")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := f.users.Register(ctx, "bob", "bob-pw")
	if err != nil {
		t.Fatal(err)
	}

	c, err := f.campgrounds.Create(ctx, alice.ID, campgroundInput("Pines"), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.AuthorID != alice.ID {
		t.Fatalf("AuthorID = %q; want alice", c.AuthorID)
	}

	review, err := f.reviews.Create(ctx, bob.ID, c.ID, ReviewInput{Body: "Nice", Rating: 4})
	if err != nil {
		t.Fatalf("bob review: %v", err)
	}

	if _, err := f.campgrounds.Update(ctx, bob.ID, c.ID, campgroundInput("Mine now"), nil, nil); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("bob update = %v; want ErrNotAuthorized", err)
	}
	if err := f.campgrounds.Delete(ctx, bob.ID, c.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("bob delete = %v; want ErrNotAuthorized", err)
	}
	if err := f.reviews.Delete(ctx, alice.ID, c.ID, review.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("alice deleting bob's review = %v; want ErrNotAuthorized", err)
	}
	if _, err := f.reviews.Create(ctx, "", c.ID, ReviewInput{Body: "anon", Rating: 3}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("anonymous review = %v; want ErrNotAuthenticated", err)
	}

	detail, err := f.campgrounds.GetDetail(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if detail.Author == nil || detail.Author.Username != "alice" {
		t.Fatalf("detail author = %+v", detail.Author)
	}
	if len(detail.Reviews) != 1 || detail.Reviews[0].Author == nil || detail.Reviews[0].Author.Username != "bob" {
		t.Fatalf("detail reviews = %+v", detail.Reviews)
	}

	if err := f.campgrounds.Delete(ctx, alice.ID, c.ID); err != nil {
		t.Fatalf("alice delete: %v", err)
	}
	if _, err := f.db.Reviews().Get(ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob's review survived: %v", err)
	}
}

func TestReviewDeleteByAuthorDropsReference(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, _ := f.users.Register(ctx, "alice", "pw")
	bob, _ := f.users.Register(ctx, "bob", "pw")

	c, _ := f.campgrounds.Create(ctx, alice.ID, campgroundInput("Pines"), nil)
	review, _ := f.reviews.Create(ctx, bob.ID, c.ID, ReviewInput{Body: "ok", Rating: 3})

	if err := f.reviews.Delete(ctx, bob.ID, c.ID, review.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := f.campgrounds.Get(ctx, c.ID)
	if got.HasReview(review.ID) {
		t.Fatal("campground still references deleted review")
	}
	if _, err := f.reviews.Get(ctx, c.ID, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
}

func TestReviewMustBelongToCampground(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, _ := f.users.Register(ctx, "alice", "pw")
	c1, _ := f.campgrounds.Create(ctx, alice.ID, campgroundInput("One"), nil)
	c2, _ := f.campgrounds.Create(ctx, alice.ID, campgroundInput("Two"), nil)
	review, _ := f.reviews.Create(ctx, alice.ID, c1.ID, ReviewInput{Body: "ok", Rating: 3})

	if _, err := f.reviews.Get(ctx, c2.ID, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get via other campground = %v; want ErrNotFound", err)
	}
	if err := f.reviews.Delete(ctx, alice.ID, c2.ID, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete via other campground = %v; want ErrNotFound", err)
	}
}

func TestReviewNotFoundIsDistinctFromCampgroundNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, _ := f.users.Register(ctx, "alice", "pw")
	c, _ := f.campgrounds.Create(ctx, alice.ID, campgroundInput("Pines"), nil)

	_, err := f.reviews.Get(ctx, c.ID, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrReviewNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing review = %v; want ErrReviewNotFound", err)
	}

	_, err = f.reviews.Get(ctx, "00000000-0000-0000-0000-000000000000", "00000000-0000-0000-0000-000000000001")
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("missing campground = %v; want plain ErrNotFound", err)
	}
}
