// Package tools defines the catalog of functions the model may call
// and executes them against the metric store.
package tools

import (
	"github.com/growthdesk/growthdesk/pkg/domain"
)

// toolDef pairs a provider-facing spec with its handler. The catalog
// is closed: adding a tool means adding one entry to builtins.
type toolDef struct {
	spec    domain.ToolSpec
	handler func(e *Executor, args arguments) (any, *Error)
}

// Registry is the fixed, ordered catalog of callable tools.
type Registry struct {
	defs   []toolDef
	byName map[string]*toolDef
}

// NewRegistry builds the registry from the builtin catalog.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*toolDef, len(builtins))}
	r.defs = builtins
	for i := range r.defs {
		r.byName[r.defs[i].spec.Name] = &r.defs[i]
	}
	return r
}

// List returns the tool specs in catalog order.
func (r *Registry) List() []domain.ToolSpec {
	specs := make([]domain.ToolSpec, len(r.defs))
	for i, d := range r.defs {
		specs[i] = d.spec
	}
	return specs
}

// lookup returns the definition for a tool name, if registered.
func (r *Registry) lookup(name string) (*toolDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

var builtins = []toolDef{
	{
		spec: domain.ToolSpec{
			Name:        "get_business_summary",
			Description: "Get an overview of all available business metrics and KPIs. Use this FIRST to understand what data is available.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{},
				Required:   []string{},
			},
		},
		handler: (*Executor).getBusinessSummary,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_metric_data",
			Description: "Get detailed daily data and statistics for a specific metric/event.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"event_name": {Type: "string", Description: "Name of the event (e.g., 'signup_completed', 'dashboard_viewed')"},
					"start_date": {Type: "string", Description: "Start date filter (YYYY-MM-DD)"},
					"end_date":   {Type: "string", Description: "End date filter (YYYY-MM-DD)"},
				},
				Required: []string{"event_name"},
			},
		},
		handler: (*Executor).getMetricData,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_daily_trend",
			Description: "Get daily trend with day-over-day changes for a metric.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"event_name": {Type: "string", Description: "Name of the event/metric"},
					"days":       {Type: "number", Description: "Number of days to show (default: 7)"},
				},
				Required: []string{"event_name"},
			},
		},
		handler: (*Executor).getDailyTrend,
	},
	{
		spec: domain.ToolSpec{
			Name:        "calculate_conversion",
			Description: "Calculate conversion rate between two events (funnel analysis).",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"start_event": {Type: "string", Description: "Starting event in the funnel"},
					"end_event":   {Type: "string", Description: "Ending event in the funnel"},
					"start_date":  {Type: "string", Description: "Start date filter (YYYY-MM-DD, optional)"},
					"end_date":    {Type: "string", Description: "End date filter (YYYY-MM-DD, optional)"},
				},
				Required: []string{"start_event", "end_event"},
			},
		},
		handler: (*Executor).calculateConversion,
	},
	{
		spec: domain.ToolSpec{
			Name:        "compare_periods",
			Description: "Compare a metric between two time periods. Useful for week-over-week or month-over-month analysis.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"event_name":    {Type: "string", Description: "Event to compare"},
					"period1_start": {Type: "string", Description: "Current period start (YYYY-MM-DD)"},
					"period1_end":   {Type: "string", Description: "Current period end (YYYY-MM-DD)"},
					"period2_start": {Type: "string", Description: "Previous period start (YYYY-MM-DD)"},
					"period2_end":   {Type: "string", Description: "Previous period end (YYYY-MM-DD)"},
				},
				Required: []string{"event_name", "period1_start", "period1_end", "period2_start", "period2_end"},
			},
		},
		handler: (*Executor).comparePeriods,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_ugc_summary",
			Description: "Get an overview of TikTok UGC (User Generated Content) performance metrics including total views, engagement, likes, comments, shares, and number of posts.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{},
				Required:   []string{},
			},
		},
		handler: (*Executor).getUGCSummary,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_top_videos",
			Description: "Get top performing TikTok videos sorted by views. Returns video rank, views, creator handle, creator name, and post date.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"limit":   {Type: "number", Description: "Number of top videos to return (default: 10)"},
					"creator": {Type: "string", Description: "Filter by creator handle (e.g., @wenstudiess)"},
				},
				Required: []string{},
			},
		},
		handler: (*Executor).getTopVideos,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_creator_stats",
			Description: "Get statistics for each TikTok creator including their handle, name, post count, and total views.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"creator": {Type: "string", Description: "Optional: specific creator handle to get stats for"},
				},
				Required: []string{},
			},
		},
		handler: (*Executor).getCreatorStats,
	},
	{
		spec: domain.ToolSpec{
			Name:        "get_ugc_by_date",
			Description: "Get TikTok videos filtered by date or date range.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"date":       {Type: "string", Description: "Specific date to filter (e.g., \"Jan 25, 2026\")"},
					"start_date": {Type: "string", Description: "Start date for range filter"},
					"end_date":   {Type: "string", Description: "End date for range filter"},
				},
				Required: []string{},
			},
		},
		handler: (*Executor).getUGCByDate,
	},
	{
		spec: domain.ToolSpec{
			Name:        "think",
			Description: "Use this tool to think through complex problems step by step. Write out your reasoning process.",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParamSpec{
					"thought": {Type: "string", Description: "Your reasoning or thought process"},
				},
				Required: []string{"thought"},
			},
		},
		handler: (*Executor).think,
	},
}
