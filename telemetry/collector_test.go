package telemetry

import (
	"math"
	"testing"
)

func TestCollectorStats(t *testing.T) {
	c := NewCollector(10)
	for i, nectar := range []float64{3, 1, 5, 2, 4} {
		c.RecordEpisode(EpisodeRecord{
			Episode: i + 1,
			Steps:   100,
			Nectar:  nectar,
			Reward:  nectar / 2,
			Feeds:   int(nectar * 100),
		})
	}

	ws := c.Stats()
	if ws.Episodes != 5 {
		t.Fatalf("Episodes = %d, want 5", ws.Episodes)
	}
	if ws.NectarMean != 3 {
		t.Errorf("NectarMean = %v, want 3", ws.NectarMean)
	}
	if ws.NectarP10 != 1 || ws.NectarP50 != 3 || ws.NectarP90 != 5 {
		t.Errorf("quantiles = (%v, %v, %v), want (1, 3, 5)", ws.NectarP10, ws.NectarP50, ws.NectarP90)
	}
	if ws.RewardMean != 1.5 {
		t.Errorf("RewardMean = %v, want 1.5", ws.RewardMean)
	}
	if ws.FeedsMean != 300 {
		t.Errorf("FeedsMean = %v, want 300", ws.FeedsMean)
	}
	if ws.BoundaryRate != 0 {
		t.Errorf("BoundaryRate = %v, want 0", ws.BoundaryRate)
	}
}

func TestCollectorBoundaryRate(t *testing.T) {
	c := NewCollector(10)
	c.RecordEpisode(EpisodeRecord{Episode: 1, BoundaryHits: 3})
	c.RecordEpisode(EpisodeRecord{Episode: 2})
	c.RecordEpisode(EpisodeRecord{Episode: 3, BoundaryHits: 1})
	c.RecordEpisode(EpisodeRecord{Episode: 4})

	// Rate counts episodes with any boundary contact, not total hits.
	if got := c.Stats().BoundaryRate; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("BoundaryRate = %v, want 0.5", got)
	}
}

func TestCollectorWindowEviction(t *testing.T) {
	c := NewCollector(3)
	for i := 1; i <= 5; i++ {
		c.RecordEpisode(EpisodeRecord{Episode: i, Steps: 10, Nectar: float64(i)})
	}

	win := c.Window()
	if len(win) != 3 {
		t.Fatalf("window has %d records, want 3", len(win))
	}
	if win[0].Episode != 3 || win[2].Episode != 5 {
		t.Errorf("window spans episodes %d..%d, want 3..5", win[0].Episode, win[2].Episode)
	}

	// Stats cover only the window.
	if got := c.Stats().NectarMean; got != 4 {
		t.Errorf("windowed NectarMean = %v, want 4", got)
	}

	// Run totals never evict.
	if c.TotalEpisodes() != 5 {
		t.Errorf("TotalEpisodes = %d, want 5", c.TotalEpisodes())
	}
	if c.TotalSteps() != 50 {
		t.Errorf("TotalSteps = %d, want 50", c.TotalSteps())
	}
	if c.TotalNectar() != 15 {
		t.Errorf("TotalNectar = %v, want 15", c.TotalNectar())
	}
}

func TestCollectorUnboundedWindow(t *testing.T) {
	c := NewCollector(0)
	for i := 0; i < 100; i++ {
		c.RecordEpisode(EpisodeRecord{Episode: i})
	}
	if len(c.Window()) != 100 {
		t.Errorf("unbounded window has %d records, want 100", len(c.Window()))
	}
}

func TestCollectorEmptyStats(t *testing.T) {
	c := NewCollector(10)
	if got := c.Stats(); got != (WindowStats{}) {
		t.Errorf("Stats on empty collector = %+v, want zero value", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	// Every method tolerates a nil receiver.
	c.RecordEpisode(EpisodeRecord{Episode: 1})
	if got := c.Stats(); got != (WindowStats{}) {
		t.Errorf("nil Stats = %+v, want zero value", got)
	}
	if c.TotalEpisodes() != 0 || c.TotalSteps() != 0 || c.TotalNectar() != 0 || c.TotalFeeds() != 0 {
		t.Error("nil collector reported nonzero totals")
	}
	if c.Window() != nil {
		t.Error("nil Window() returned records")
	}
}
