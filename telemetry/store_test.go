package telemetry

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveAndQueryEpisodes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.BeginRun(ctx, 42, true); err != nil {
		t.Fatalf("BeginRun error: %v", err)
	}

	records := []EpisodeRecord{
		{Episode: 1, Steps: 5000, Nectar: 0.8, Reward: 1.2, Feeds: 80},
		{Episode: 2, Steps: 5000, Nectar: 1.5, Reward: 2.9, Feeds: 150, BoundaryHits: 2},
	}
	for _, rec := range records {
		if err := s.SaveEpisode(ctx, rec); err != nil {
			t.Fatalf("SaveEpisode(%d) error: %v", rec.Episode, err)
		}
	}

	got, err := s.Episodes(ctx, s.RunID())
	if err != nil {
		t.Fatalf("Episodes error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d episodes, want 2", len(got))
	}
	for i, rec := range records {
		if got[i] != rec {
			t.Errorf("episode %d = %+v, want %+v", i, got[i], rec)
		}
	}
}

func TestStoreSaveEpisodeUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.BeginRun(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEpisode(ctx, EpisodeRecord{Episode: 1, Steps: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEpisode(ctx, EpisodeRecord{Episode: 1, Steps: 250, Nectar: 0.3}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Episodes(ctx, s.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d episodes after upsert, want 1", len(got))
	}
	if got[0].Steps != 250 || got[0].Nectar != 0.3 {
		t.Errorf("upserted episode = %+v, want steps 250 nectar 0.3", got[0])
	}
}

func TestStoreRequiresInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never.db"))
	if err := s.SaveEpisode(context.Background(), EpisodeRecord{Episode: 1}); err == nil {
		t.Error("SaveEpisode before Init did not error")
	}
}

func TestStoreRequiresPath(t *testing.T) {
	s := NewStore("")
	if err := s.Init(context.Background()); err == nil {
		t.Error("Init with an empty path did not error")
	}
}

func TestStoreRunIDsDistinct(t *testing.T) {
	a, b := NewStore("a.db"), NewStore("b.db")
	if a.RunID() == b.RunID() {
		t.Error("two stores share a run id")
	}
	var nilStore *Store
	if nilStore.RunID() != "" {
		t.Error("nil store returned a run id")
	}
}
