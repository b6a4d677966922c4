// Package telemetry records episode results and aggregates them into
// windowed statistics for logging, CSV output, SQLite storage, and live
// streaming.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EpisodeRecord is the result of one finished episode.
type EpisodeRecord struct {
	Episode      int     `csv:"episode" json:"episode"`
	Steps        int     `csv:"steps" json:"steps"`
	Nectar       float64 `csv:"nectar" json:"nectar"`
	Reward       float64 `csv:"reward" json:"reward"`
	Feeds        int     `csv:"feeds" json:"feeds"`
	BoundaryHits int     `csv:"boundary_hits" json:"boundary_hits"`
}

// WindowStats aggregates the most recent episodes.
type WindowStats struct {
	Episodes int `csv:"episodes" json:"episodes"`

	NectarMean float64 `csv:"nectar_mean" json:"nectar_mean"`
	NectarP10  float64 `csv:"nectar_p10" json:"nectar_p10"`
	NectarP50  float64 `csv:"nectar_p50" json:"nectar_p50"`
	NectarP90  float64 `csv:"nectar_p90" json:"nectar_p90"`

	RewardMean   float64 `csv:"reward_mean" json:"reward_mean"`
	FeedsMean    float64 `csv:"feeds_mean" json:"feeds_mean"`
	BoundaryRate float64 `csv:"boundary_rate" json:"boundary_rate"`
}

// LogStats logs the window through the structured logger.
func (ws WindowStats) LogStats() {
	slog.Info("window_stats",
		"episodes", ws.Episodes,
		"nectar_mean", ws.NectarMean,
		"nectar_p10", ws.NectarP10,
		"nectar_p50", ws.NectarP50,
		"nectar_p90", ws.NectarP90,
		"reward_mean", ws.RewardMean,
		"feeds_mean", ws.FeedsMean,
		"boundary_rate", ws.BoundaryRate,
	)
}

// Collector accumulates finished episodes over a sliding window. All
// methods are nil-safe so callers can pass a nil collector to disable
// recording.
type Collector struct {
	window  int
	records []EpisodeRecord

	// Whole-run totals, never evicted.
	totalEpisodes int
	totalSteps    int
	totalNectar   float64
	totalFeeds    int
}

// NewCollector creates a collector keeping the last window episodes for
// statistics. A window of zero keeps everything.
func NewCollector(window int) *Collector {
	return &Collector{window: window}
}

// RecordEpisode adds a finished episode to the window.
func (c *Collector) RecordEpisode(rec EpisodeRecord) {
	if c == nil {
		return
	}

	c.totalEpisodes++
	c.totalSteps += rec.Steps
	c.totalNectar += rec.Nectar
	c.totalFeeds += rec.Feeds

	c.records = append(c.records, rec)
	if c.window > 0 && len(c.records) > c.window {
		c.records = c.records[len(c.records)-c.window:]
	}
}

// Stats computes aggregates over the current window.
func (c *Collector) Stats() WindowStats {
	if c == nil || len(c.records) == 0 {
		return WindowStats{}
	}

	n := len(c.records)
	nectar := make([]float64, n)
	var rewardSum, feedsSum float64
	var boundaryEpisodes int
	for i, rec := range c.records {
		nectar[i] = rec.Nectar
		rewardSum += rec.Reward
		feedsSum += float64(rec.Feeds)
		if rec.BoundaryHits > 0 {
			boundaryEpisodes++
		}
	}
	sort.Float64s(nectar)

	return WindowStats{
		Episodes:     n,
		NectarMean:   stat.Mean(nectar, nil),
		NectarP10:    stat.Quantile(0.10, stat.Empirical, nectar, nil),
		NectarP50:    stat.Quantile(0.50, stat.Empirical, nectar, nil),
		NectarP90:    stat.Quantile(0.90, stat.Empirical, nectar, nil),
		RewardMean:   rewardSum / float64(n),
		FeedsMean:    feedsSum / float64(n),
		BoundaryRate: float64(boundaryEpisodes) / float64(n),
	}
}

// TotalEpisodes returns the number of episodes recorded over the run.
func (c *Collector) TotalEpisodes() int {
	if c == nil {
		return 0
	}
	return c.totalEpisodes
}

// TotalSteps returns the total steps across all recorded episodes.
func (c *Collector) TotalSteps() int {
	if c == nil {
		return 0
	}
	return c.totalSteps
}

// TotalNectar returns the nectar gathered over the run.
func (c *Collector) TotalNectar() float64 {
	if c == nil {
		return 0
	}
	return c.totalNectar
}

// TotalFeeds returns the feeding contacts over the run.
func (c *Collector) TotalFeeds() int {
	if c == nil {
		return 0
	}
	return c.totalFeeds
}

// Window returns the records currently in the window.
func (c *Collector) Window() []EpisodeRecord {
	if c == nil {
		return nil
	}
	return c.records
}
