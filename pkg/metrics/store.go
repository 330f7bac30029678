// Package metrics loads read-only snapshots of product analytics and
// creator-content data and exposes lookup primitives over them.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Series maps ISO dates (YYYY-MM-DD) to a daily count for one event.
type Series map[string]float64

// EventSnapshot is a scraped export of product analytics data.
type EventSnapshot struct {
	ProjectID any               `json:"project_id"`
	DateRange any               `json:"date_range"`
	ScrapedAt string            `json:"scraped_at"`
	Summary   map[string]any    `json:"summary"`
	Events    map[string]Series `json:"events"`
}

// Video is one scraped content post.
type Video struct {
	Rank           int     `json:"rank"`
	Views          float64 `json:"views"`
	ViewsFormatted string  `json:"viewsFormatted"`
	CreatorHandle  string  `json:"creatorHandle"`
	CreatorName    string  `json:"creatorName"`
	PostedAt       string  `json:"postedAt"`
}

// Creator aggregates the posts of one content creator.
type Creator struct {
	Handle     string  `json:"handle"`
	Name       string  `json:"name"`
	PostCount  int     `json:"postCount"`
	TotalViews float64 `json:"totalViews"`
}

// ContentSummary is the precomputed rollup carried by a content export.
type ContentSummary struct {
	TotalPosts               int     `json:"totalPosts"`
	TotalViews               float64 `json:"totalViews"`
	TotalViewsFormatted      string  `json:"totalViewsFormatted"`
	TotalEngagement          float64 `json:"totalEngagement"`
	TotalEngagementFormatted string  `json:"totalEngagementFormatted"`
	TotalLikes               float64 `json:"totalLikes"`
	TotalLikesFormatted      string  `json:"totalLikesFormatted"`
	TotalComments            float64 `json:"totalComments"`
	TotalShares              float64 `json:"totalShares"`
}

// ContentSnapshot is a scraped export of creator-content performance.
type ContentSnapshot struct {
	ScrapedAt string         `json:"scrapedAt"`
	Summary   ContentSummary `json:"summary"`
	Videos    []Video        `json:"videos"`
	Creators  []Creator      `json:"creators"`
}

// Store provides lazy, process-lifetime access to the two snapshots.
// Both are immutable after load, so concurrent readers never block.
type Store struct {
	eventsPath  string
	contentPath string

	eventsOnce sync.Once
	events     *EventSnapshot
	eventsErr  error

	contentOnce sync.Once
	content     *ContentSnapshot
	contentErr  error
}

// NewStore creates a Store reading from the given snapshot files.
// Nothing is loaded until first use.
func NewStore(eventsPath, contentPath string) *Store {
	return &Store{eventsPath: eventsPath, contentPath: contentPath}
}

// EventData returns the analytics snapshot, loading it on first call.
func (s *Store) EventData() (*EventSnapshot, error) {
	s.eventsOnce.Do(func() {
		snap := &EventSnapshot{}
		if err := loadJSON(s.eventsPath, snap); err != nil {
			s.eventsErr = err
			return
		}
		if snap.Events == nil {
			snap.Events = map[string]Series{}
		}
		s.events = snap
	})
	return s.events, s.eventsErr
}

// ContentData returns the content snapshot, loading it on first call.
// If the export carries no precomputed creator rollup, one is derived
// by grouping videos per creator handle.
func (s *Store) ContentData() (*ContentSnapshot, error) {
	s.contentOnce.Do(func() {
		snap := &ContentSnapshot{}
		if err := loadJSON(s.contentPath, snap); err != nil {
			s.contentErr = err
			return
		}
		if len(snap.Creators) == 0 {
			snap.Creators = GroupByCreator(snap.Videos)
		}
		s.content = snap
	})
	return s.content, s.contentErr
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return nil
}

// GroupByCreator rolls videos up per creator handle: post count and
// summed views, ordered by total views descending.
func GroupByCreator(videos []Video) []Creator {
	byHandle := make(map[string]*Creator)
	var order []string
	for _, v := range videos {
		c, ok := byHandle[v.CreatorHandle]
		if !ok {
			c = &Creator{Handle: v.CreatorHandle, Name: v.CreatorName}
			byHandle[v.CreatorHandle] = c
			order = append(order, v.CreatorHandle)
		}
		c.PostCount++
		c.TotalViews += v.Views
	}

	creators := make([]Creator, 0, len(order))
	for _, h := range order {
		creators = append(creators, *byHandle[h])
	}
	sort.SliceStable(creators, func(i, j int) bool {
		return creators[i].TotalViews > creators[j].TotalViews
	})
	return creators
}

// Names returns the stored series names in sorted order.
func (snap *EventSnapshot) Names() []string {
	names := make([]string, 0, len(snap.Events))
	for k := range snap.Events {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a free-text event name to a stored series key. The name
// is normalized, then matched exactly, then by substring in either
// direction. A unique substring match resolves; zero or multiple
// candidates report not-found so the wrong series is never picked.
func (snap *EventSnapshot) Resolve(name string) (string, Series, bool) {
	key := NormalizeEventName(name)

	for _, k := range snap.Names() {
		if strings.ToLower(k) == key {
			return k, snap.Events[k], true
		}
	}

	var candidates []string
	for _, k := range snap.Names() {
		lk := strings.ToLower(k)
		if strings.Contains(lk, key) || strings.Contains(key, lk) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], snap.Events[candidates[0]], true
	}
	return "", nil, false
}

// NormalizeEventName lowercases and collapses whitespace and hyphens
// to underscores, matching how series keys are stored.
func NormalizeEventName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Join(strings.Fields(key), "_")
	return strings.ReplaceAll(key, "-", "_")
}

// Filter returns the subset of the series within [start, end]. Empty
// bounds are open-ended. ISO dates compare correctly as strings.
func (s Series) Filter(start, end string) Series {
	if start == "" && end == "" {
		return s
	}
	out := Series{}
	for date, v := range s {
		if start != "" && date < start {
			continue
		}
		if end != "" && date > end {
			continue
		}
		out[date] = v
	}
	return out
}

// Dates returns the series dates in ascending order.
func (s Series) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Total sums all values in the series.
func (s Series) Total() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Stats summarizes a series: total, mean rounded to the nearest
// integer, max, min and day count. An empty series is all zeroes.
type Stats struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Days    int     `json:"days"`
}

// Summarize computes Stats over the series.
func (s Series) Summarize() Stats {
	if len(s) == 0 {
		return Stats{}
	}
	st := Stats{Days: len(s)}
	first := true
	for _, v := range s {
		st.Total += v
		if first {
			st.Max, st.Min = v, v
			first = false
			continue
		}
		if v > st.Max {
			st.Max = v
		}
		if v < st.Min {
			st.Min = v
		}
	}
	st.Average = roundHalfUp(st.Total / float64(st.Days))
	return st
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int64(v + 0.5))
}
