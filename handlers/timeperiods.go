package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// TimePeriodTools manages notification and check time periods.
func TimePeriodTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_timeperiods",
			"⏰ List time periods - Show all configured time periods",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listTimePeriods(ctx, c)
			}),
		tools.Func("vibemk_get_timeperiod",
			"⏰ Time period details - Show the active ranges of a time period",
			func(ctx context.Context, p timePeriodNameParams) tools.Result {
				return getTimePeriod(ctx, c, p.Name)
			}),
		tools.Func("vibemk_create_timeperiod",
			"⏰ Create time period - Add a new time period with active ranges",
			func(ctx context.Context, p createTimePeriodParams) tools.Result {
				return createTimePeriod(ctx, c, p)
			}),
		tools.Func("vibemk_update_timeperiod",
			"📝 Update time period - Modify time period configuration",
			func(ctx context.Context, p updateTimePeriodParams) tools.Result {
				return updateTimePeriod(ctx, c, p)
			}),
		tools.Func("vibemk_delete_timeperiod",
			"🗑️ Delete time period - Remove a custom time period",
			func(ctx context.Context, p timePeriodNameParams) tools.Result {
				if _, err := c.Delete(ctx, "objects/time_period/"+p.Name); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Time Period Deleted**\n\nName: %s%s", p.Name, activateReminder)
			}),
	}
}

type timePeriodNameParams struct {
	Name string `json:"name" description:"Time period name, e.g. 24X7"`
}

type timeRange struct {
	Start string `json:"start" description:"Start time, e.g. 08:00"`
	End   string `json:"end" description:"End time, e.g. 17:00"`
}

type activeRange struct {
	Day        string      `json:"day" description:"Weekday" enum:"monday,tuesday,wednesday,thursday,friday,saturday,sunday,all"`
	TimeRanges []timeRange `json:"time_ranges" description:"Active ranges on that day"`
}

type exceptionRange struct {
	Date       string      `json:"date" description:"Exception date, e.g. 2026-12-24"`
	TimeRanges []timeRange `json:"time_ranges,omitempty" description:"Active ranges on that date"`
}

type createTimePeriodParams struct {
	Name         string           `json:"name" description:"Time period name"`
	Alias        string           `json:"alias,omitempty" description:"Display alias"`
	ActiveRanges []activeRange    `json:"active_time_ranges" description:"When the period is active"`
	Exceptions   []exceptionRange `json:"exceptions,omitempty" description:"Date exceptions overriding the weekly ranges"`
	Exclude      []string         `json:"exclude,omitempty" description:"Names of time periods to exclude"`
}

type updateTimePeriodParams struct {
	Name         string           `json:"name" description:"Time period name"`
	Alias        string           `json:"alias,omitempty" description:"New display alias"`
	ActiveRanges []activeRange    `json:"active_time_ranges,omitempty" description:"Replacement active ranges"`
	Exceptions   []exceptionRange `json:"exceptions,omitempty" description:"Replacement date exceptions"`
	Exclude      []string         `json:"exclude,omitempty" description:"Names of time periods to exclude"`
}

func listTimePeriods(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/time_period/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve time periods", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕐 **Time Periods** (%d):\n\n", len(coll.Value))
	for _, tp := range coll.Value {
		fmt.Fprintf(&sb, "🕐 **%s** (%s)\n", tp.ID, tp.StringExt("alias", "-"))
	}
	return tools.Text(sb.String())
}

func getTimePeriod(ctx context.Context, c *checkmk.Client, name string) tools.Result {
	res, err := c.Get(ctx, "objects/time_period/"+name, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve time period", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕐 **Time Period: %s**\n\nAlias: %s\n", obj.ID, obj.StringExt("alias", "-"))
	if ranges, ok := obj.Extensions["active_time_ranges"].([]any); ok && len(ranges) > 0 {
		sb.WriteString("\nActive ranges:\n")
		for _, r := range ranges {
			rm, _ := r.(map[string]any)
			day, _ := rm["day"].(string)
			var parts []string
			if trs, ok := rm["time_ranges"].([]any); ok {
				for _, tr := range trs {
					trm, _ := tr.(map[string]any)
					parts = append(parts, fmt.Sprintf("%v-%v", trm["start"], trm["end"]))
				}
			}
			fmt.Fprintf(&sb, "- %s: %s\n", day, strings.Join(parts, ", "))
		}
	}
	if excl, ok := obj.Extensions["exclude"].([]any); ok && len(excl) > 0 {
		fmt.Fprintf(&sb, "\nExcludes: %v\n", excl)
	}
	return tools.Text(sb.String())
}

func timeRangesToAPI(ranges []timeRange) []map[string]any {
	out := make([]map[string]any, 0, len(ranges))
	for _, tr := range ranges {
		out = append(out, map[string]any{"start": tr.Start, "end": tr.End})
	}
	return out
}

func activeRangesToAPI(ranges []activeRange) []map[string]any {
	out := make([]map[string]any, 0, len(ranges))
	for _, ar := range ranges {
		out = append(out, map[string]any{"day": ar.Day, "time_ranges": timeRangesToAPI(ar.TimeRanges)})
	}
	return out
}

func exceptionsToAPI(exceptions []exceptionRange) []map[string]any {
	out := make([]map[string]any, 0, len(exceptions))
	for _, ex := range exceptions {
		out = append(out, map[string]any{"date": ex.Date, "time_ranges": timeRangesToAPI(ex.TimeRanges)})
	}
	return out
}

func createTimePeriod(ctx context.Context, c *checkmk.Client, p createTimePeriodParams) tools.Result {
	if len(p.ActiveRanges) == 0 {
		return tools.Error("No active ranges", "A time period needs at least one active time range.")
	}
	alias := p.Alias
	if alias == "" {
		alias = p.Name
	}
	body := map[string]any{
		"name":               p.Name,
		"alias":              alias,
		"active_time_ranges": activeRangesToAPI(p.ActiveRanges),
	}
	if len(p.Exceptions) > 0 {
		body["exceptions"] = exceptionsToAPI(p.Exceptions)
	}
	if len(p.Exclude) > 0 {
		body["exclude"] = p.Exclude
	}
	if _, err := c.Post(ctx, "domain-types/time_period/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Time Period Created**\n\nName: %s\nAlias: %s%s", p.Name, alias, activateReminder)
}

func updateTimePeriod(ctx context.Context, c *checkmk.Client, p updateTimePeriodParams) tools.Result {
	body := map[string]any{}
	if p.Alias != "" {
		body["alias"] = p.Alias
	}
	if len(p.ActiveRanges) > 0 {
		body["active_time_ranges"] = activeRangesToAPI(p.ActiveRanges)
	}
	if len(p.Exceptions) > 0 {
		body["exceptions"] = exceptionsToAPI(p.Exceptions)
	}
	if len(p.Exclude) > 0 {
		body["exclude"] = p.Exclude
	}
	if len(body) == 0 {
		return tools.Error("Nothing to update", "Provide an alias, active ranges, exceptions or excludes.")
	}
	if _, err := c.Put(ctx, "objects/time_period/"+p.Name, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Time Period Updated**\n\nName: %s%s", p.Name, activateReminder)
}
