package database

import (
	"context"
	"testing"
	"time"

	"geekhub/models"
)

func TestActivityInsertAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	createProfile(t, db, "a", "Ana")
	createProfile(t, db, "b", "")
	createProfile(t, db, "c", "")

	base := mustTime(t, "2025-02-01T00:00:00Z")
	events := []*models.ActivityEvent{
		{ID: "1", UserID: "a", Kind: models.ActivityLibraryAdded, ContentID: "tmdb-1", Title: "One", CreatedAt: base},
		{ID: "2", UserID: "b", Kind: models.ActivityRated, ContentID: "rawg-2", Title: "Two", Payload: map[string]any{"rating": 8}, CreatedAt: base.Add(time.Minute)},
		{ID: "3", UserID: "c", Kind: models.ActivityGroupJoined, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", UserID: "a", Kind: models.ActivityStatusChanged, Title: "One", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, ev := range events {
		if err := db.Activity.Insert(ctx, ev); err != nil {
			t.Fatalf("insert %s: %v", ev.ID, err)
		}
	}

	got, err := db.Activity.ListForUsers(ctx, []string{"a", "b"}, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "4" || got[1].ID != "2" || got[2].ID != "1" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if got[1].Payload["rating"] != float64(8) {
		t.Fatalf("payload not decoded: %v", got[1].Payload)
	}
	if got[0].Profile == nil || got[0].Profile.DisplayName == nil || *got[0].Profile.DisplayName != "Ana" {
		t.Fatalf("profile not attached: %+v", got[0].Profile)
	}

	limited, _ := db.Activity.ListForUsers(ctx, []string{"a", "b", "c"}, 2)
	if len(limited) != 2 || limited[0].ID != "4" || limited[1].ID != "3" {
		t.Fatalf("unexpected limited events: %+v", limited)
	}

	empty, err := db.Activity.ListForUsers(ctx, nil, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v %v", empty, err)
	}
}
