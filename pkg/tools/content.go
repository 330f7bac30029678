package tools

import (
	"fmt"
	"strings"

	"github.com/growthdesk/growthdesk/pkg/metrics"
)

// contentData loads the content snapshot, mapping load failures to a
// readable tool error.
func (e *Executor) contentData() (*metrics.ContentSnapshot, *Error) {
	snap, err := e.store.ContentData()
	if err != nil {
		return nil, notFound("No UGC data available. Run the scraper first.", nil)
	}
	return snap, nil
}

// normalizeHandle ensures a creator handle carries the @ prefix.
func normalizeHandle(creator string) string {
	if strings.HasPrefix(creator, "@") {
		return creator
	}
	return "@" + creator
}

// ugcMetricsView is the metrics block of the UGC summary output.
type ugcMetricsView struct {
	Views         string  `json:"views"`
	ViewsRaw      float64 `json:"views_raw"`
	Engagement    string  `json:"engagement"`
	EngagementRaw float64 `json:"engagement_raw"`
	Likes         string  `json:"likes"`
	LikesRaw      float64 `json:"likes_raw"`
	Comments      float64 `json:"comments"`
	Shares        float64 `json:"shares"`
}

func (e *Executor) getUGCSummary(args arguments) (any, *Error) {
	snap, terr := e.contentData()
	if terr != nil {
		return nil, terr
	}

	var topCreator *metrics.Creator
	if len(snap.Creators) > 0 {
		topCreator = &snap.Creators[0]
	}

	return struct {
		Platform      string           `json:"platform"`
		ScrapedAt     string           `json:"scraped_at"`
		TotalPosts    int              `json:"total_posts"`
		Metrics       ugcMetricsView   `json:"metrics"`
		CreatorsCount int              `json:"creators_count"`
		TopCreator    *metrics.Creator `json:"top_creator"`
	}{
		Platform:   "TikTok",
		ScrapedAt:  snap.ScrapedAt,
		TotalPosts: snap.Summary.TotalPosts,
		Metrics: ugcMetricsView{
			Views:         snap.Summary.TotalViewsFormatted,
			ViewsRaw:      snap.Summary.TotalViews,
			Engagement:    snap.Summary.TotalEngagementFormatted,
			EngagementRaw: snap.Summary.TotalEngagement,
			Likes:         snap.Summary.TotalLikesFormatted,
			LikesRaw:      snap.Summary.TotalLikes,
			Comments:      snap.Summary.TotalComments,
			Shares:        snap.Summary.TotalShares,
		},
		CreatorsCount: len(snap.Creators),
		TopCreator:    topCreator,
	}, nil
}

// videoView is the trimmed shape of a video in tool output.
type videoView struct {
	Rank        int     `json:"rank"`
	Views       string  `json:"views"`
	ViewsRaw    float64 `json:"views_raw"`
	Creator     string  `json:"creator"`
	CreatorName string  `json:"creator_name"`
	Posted      string  `json:"posted"`
}

func (e *Executor) getTopVideos(args arguments) (any, *Error) {
	snap, terr := e.contentData()
	if terr != nil {
		return nil, terr
	}

	videos := snap.Videos
	filter := "all creators"
	if creator, ok := args.stringArg("creator"); ok {
		handle := strings.ToLower(normalizeHandle(creator))
		var matched []metrics.Video
		for _, v := range videos {
			if strings.ToLower(v.CreatorHandle) == handle {
				matched = append(matched, v)
			}
		}
		videos = matched
		filter = "creator: " + creator
	}

	limit, ok := args.intArg("limit")
	if !ok || limit <= 0 {
		limit = 10
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}

	views := make([]videoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, videoView{
			Rank:        v.Rank,
			Views:       v.ViewsFormatted,
			ViewsRaw:    v.Views,
			Creator:     v.CreatorHandle,
			CreatorName: v.CreatorName,
			Posted:      v.PostedAt,
		})
	}

	return struct {
		Count  int         `json:"count"`
		Filter string      `json:"filter"`
		Videos []videoView `json:"videos"`
	}{len(views), filter, views}, nil
}

// creatorView is the per-creator rollup with derived metrics.
type creatorView struct {
	Handle          string  `json:"handle"`
	Name            string  `json:"name"`
	PostCount       int     `json:"post_count"`
	TotalViews      float64 `json:"total_views"`
	AvgViewsPerPost float64 `json:"avg_views_per_post"`
	ViewsFormatted  string  `json:"views_formatted"`
}

func (e *Executor) getCreatorStats(args arguments) (any, *Error) {
	snap, terr := e.contentData()
	if terr != nil {
		return nil, terr
	}

	creators := snap.Creators
	if creator, ok := args.stringArg("creator"); ok {
		handle := strings.ToLower(normalizeHandle(creator))
		var matched []metrics.Creator
		for _, c := range creators {
			if strings.ToLower(c.Handle) == handle {
				matched = append(matched, c)
			}
		}
		creators = matched
	}

	views := make([]creatorView, 0, len(creators))
	for _, c := range creators {
		avg := 0.0
		if c.PostCount > 0 {
			avg = float64(int64(c.TotalViews/float64(c.PostCount) + 0.5))
		}
		views = append(views, creatorView{
			Handle:          c.Handle,
			Name:            c.Name,
			PostCount:       c.PostCount,
			TotalViews:      c.TotalViews,
			AvgViewsPerPost: avg,
			ViewsFormatted:  formatViews(c.TotalViews),
		})
	}

	var best *creatorView
	if len(views) > 0 {
		best = &views[0]
	}

	return struct {
		CreatorCount  int           `json:"creator_count"`
		Creators      []creatorView `json:"creators"`
		BestPerformer *creatorView  `json:"best_performer"`
	}{len(views), views, best}, nil
}

// formatViews renders a view count in K/M shorthand.
func formatViews(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%d", int64(v))
	}
}

func (e *Executor) getUGCByDate(args arguments) (any, *Error) {
	snap, terr := e.contentData()
	if terr != nil {
		return nil, terr
	}

	videos := snap.Videos
	date, hasDate := args.stringArg("date")
	start, hasStart := args.stringArg("start_date")
	end, hasEnd := args.stringArg("end_date")

	filter := "all dates"
	switch {
	case hasDate:
		var matched []metrics.Video
		needle := strings.ToLower(date)
		for _, v := range videos {
			if strings.Contains(strings.ToLower(v.PostedAt), needle) {
				matched = append(matched, v)
			}
		}
		videos = matched
		filter = date
	case hasStart || hasEnd:
		var matched []metrics.Video
		for _, v := range videos {
			if hasStart && v.PostedAt < start {
				continue
			}
			if hasEnd && v.PostedAt > end {
				continue
			}
			matched = append(matched, v)
		}
		videos = matched
		if !hasStart {
			start = "start"
		}
		if !hasEnd {
			end = "end"
		}
		filter = start + " to " + end
	}

	var totalViews float64
	type dateView struct {
		Rank    int    `json:"rank"`
		Views   string `json:"views"`
		Creator string `json:"creator"`
		Posted  string `json:"posted"`
	}
	views := make([]dateView, 0, len(videos))
	for _, v := range videos {
		totalViews += v.Views
		views = append(views, dateView{v.Rank, v.ViewsFormatted, v.CreatorHandle, v.PostedAt})
	}

	return struct {
		Filter     string     `json:"filter"`
		Count      int        `json:"count"`
		TotalViews float64    `json:"total_views"`
		Videos     []dateView `json:"videos"`
	}{filter, len(views), totalViews, views}, nil
}
