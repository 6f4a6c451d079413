package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// DowntimeTools covers host downtimes and downtime management beyond the
// service shortcut in MonitoringTools.
func DowntimeTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_schedule_host_downtime",
			"⏸️ Host downtime - Schedule a downtime for a whole host",
			func(ctx context.Context, p hostDowntimeParams) tools.Result {
				return scheduleDowntime(ctx, c, "host", p.HostName, "", p.StartTime, p.EndTime, p.Comment)
			}),
		tools.Func("vibemk_schedule_service_downtime",
			"⏸️ Service downtime - Schedule a downtime for one or more services of a host",
			func(ctx context.Context, p serviceDowntimeParams) tools.Result {
				return scheduleServiceDowntimes(ctx, c, p)
			}),
		tools.Func("vibemk_list_downtimes",
			"📋 List downtimes - Show scheduled downtimes with optional filters",
			func(ctx context.Context, p listDowntimesParams) tools.Result {
				return listDowntimes(ctx, c, p.HostName, p.ServiceDescription, p.ActiveOnly)
			}),
		tools.Func("vibemk_get_active_downtimes",
			"🔴 Active downtimes - List only the downtimes currently in effect",
			func(ctx context.Context, p activeDowntimesParams) tools.Result {
				return listDowntimes(ctx, c, p.HostName, "", true)
			}),
		tools.Func("vibemk_check_host_downtime_status",
			"🔍 Downtime status - Distinguish host-level from service-level downtimes on a host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return hostDowntimeStatus(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_delete_downtime",
			"🗑️ Delete downtime - Remove a downtime by its ID",
			func(ctx context.Context, p deleteDowntimeParams) tools.Result {
				body := map[string]any{
					"delete_type": "by_id",
					"downtime_id": p.DowntimeID,
				}
				if p.SiteID != "" {
					body["site_id"] = p.SiteID
				}
				if _, err := c.Post(ctx, "domain-types/downtime/actions/delete/invoke", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Downtime Deleted**\n\nID: %s", p.DowntimeID)
			}),
		tools.Func("vibemk_delete_host_downtimes",
			"🗑️ Clear host downtimes - Remove all downtimes of a host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				body := map[string]any{
					"delete_type": "params",
					"host_name":   p.HostName,
				}
				if _, err := c.Post(ctx, "domain-types/downtime/actions/delete/invoke", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Downtimes Cleared**\n\nHost: %s", p.HostName)
			}),
		tools.Func("vibemk_modify_downtime",
			"✏️ Modify downtime - Change the comment or end time of a downtime",
			func(ctx context.Context, p modifyDowntimeParams) tools.Result {
				return modifyDowntime(ctx, c, p)
			}),
	}
}

type hostDowntimeParams struct {
	HostName  string `json:"host_name" description:"Host to take down"`
	StartTime string `json:"start_time" description:"Start time, RFC 3339 (e.g. 2026-01-01T12:00:00Z)"`
	EndTime   string `json:"end_time" description:"End time, RFC 3339"`
	Comment   string `json:"comment" description:"Reason for the downtime"`
}

type serviceDowntimeParams struct {
	HostName            string   `json:"host_name" description:"Host the services belong to"`
	ServiceDescriptions []string `json:"service_descriptions" description:"Services to take down"`
	StartTime           string   `json:"start_time" description:"Start time, RFC 3339"`
	EndTime             string   `json:"end_time" description:"End time, RFC 3339"`
	Comment             string   `json:"comment,omitempty" description:"Reason for the downtime"`
}

type listDowntimesParams struct {
	HostName           string `json:"host_name,omitempty" description:"Filter by host"`
	ServiceDescription string `json:"service_description,omitempty" description:"Filter by service"`
	ActiveOnly         bool   `json:"active_only,omitempty" description:"Show only downtimes currently in effect"`
}

type activeDowntimesParams struct {
	HostName string `json:"host_name,omitempty" description:"Filter by host"`
}

type deleteDowntimeParams struct {
	DowntimeID string `json:"downtime_id" description:"Downtime ID as shown in listings"`
	SiteID     string `json:"site_id,omitempty" description:"Site the downtime lives on, for distributed setups"`
}

type modifyDowntimeParams struct {
	DowntimeID string `json:"downtime_id" description:"Downtime ID as shown in listings"`
	Comment    string `json:"comment,omitempty" description:"New comment"`
	EndTime    string `json:"end_time,omitempty" description:"New end time, RFC 3339"`
}

// scheduleDowntime posts a host or service downtime. downtimeType selects
// the endpoint collection; service is ignored for host downtimes.
func scheduleDowntime(ctx context.Context, c *checkmk.Client, downtimeType, host, service, startTime, endTime, comment string) tools.Result {
	body := map[string]any{
		"downtime_type": downtimeType,
		"host_name":     host,
		"start_time":    startTime,
		"end_time":      endTime,
		"comment":       comment,
	}
	path := "domain-types/downtime/collections/host"
	target := host
	if downtimeType == "service" {
		body["service_descriptions"] = []string{service}
		path = "domain-types/downtime/collections/service"
		target = host + " / " + service
	}
	if _, err := c.Post(ctx, path, body); err != nil {
		return apiError(err)
	}
	return tools.Textf("⏸️ **Downtime Scheduled**\n\nTarget: %s\nFrom: %s\nUntil: %s\nComment: %s",
		target, startTime, endTime, comment)
}

func scheduleServiceDowntimes(ctx context.Context, c *checkmk.Client, p serviceDowntimeParams) tools.Result {
	if len(p.ServiceDescriptions) == 0 {
		return tools.Error("No services given", "Provide at least one service description.")
	}
	comment := p.Comment
	if comment == "" {
		comment = "Scheduled service maintenance"
	}
	body := map[string]any{
		"downtime_type":        "service",
		"host_name":            p.HostName,
		"service_descriptions": p.ServiceDescriptions,
		"start_time":           p.StartTime,
		"end_time":             p.EndTime,
		"comment":              comment,
	}
	if _, err := c.Post(ctx, "domain-types/downtime/collections/service", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("⏸️ **Downtime Scheduled**\n\nHost: %s\nServices: %s\nFrom: %s\nUntil: %s\nComment: %s",
		p.HostName, strings.Join(p.ServiceDescriptions, ", "), p.StartTime, p.EndTime, comment)
}

// listDowntimes renders the downtime collection, optionally limited to one
// host, one service, or downtimes currently in effect.
func listDowntimes(ctx context.Context, c *checkmk.Client, hostName, serviceDesc string, activeOnly bool) tools.Result {
	query := url.Values{}
	if hostName != "" {
		query.Set("host_name", hostName)
	}
	if serviceDesc != "" {
		query.Set("service_description", serviceDesc)
	}
	res, err := c.Get(ctx, "domain-types/downtime/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve downtimes", err.Error())
	}

	var sb strings.Builder
	count := 0
	for _, d := range coll.Value {
		if activeOnly && d.BoolExt("is_pending") {
			continue
		}
		count++
		target := d.StringExt("host_name", "?")
		if svc := d.StringExt("service_description", ""); svc != "" {
			target += " / " + svc
		}
		fmt.Fprintf(&sb, "⏸️ **%s** (ID %s)\n   %s → %s\n   %s\n",
			target, d.ID,
			d.StringExt("start_time", "?"), d.StringExt("end_time", "?"),
			truncate(d.StringExt("comment", ""), 120))
	}
	if count == 0 {
		return tools.Text("⏸️ **No Downtimes**\n\nNo matching downtimes found.")
	}
	return tools.Textf("⏸️ **Downtimes** (%d):\n\n%s", count, sb.String())
}

func hostDowntimeStatus(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	query := url.Values{}
	query.Set("host_name", hostName)
	res, err := c.Get(ctx, "domain-types/downtime/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve downtimes", err.Error())
	}

	var hostLevel, serviceLevel []checkmk.DomainObject
	for _, d := range coll.Value {
		if d.StringExt("service_description", "") == "" {
			hostLevel = append(hostLevel, d)
		} else {
			serviceLevel = append(serviceLevel, d)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 **Downtime Status for %s**\n\n", hostName)
	fmt.Fprintf(&sb, "Host-level downtimes: %d\n", len(hostLevel))
	for _, d := range hostLevel {
		fmt.Fprintf(&sb, "- ID %s: %s → %s\n", d.ID,
			d.StringExt("start_time", "?"), d.StringExt("end_time", "?"))
	}
	fmt.Fprintf(&sb, "\nService-level downtimes: %d\n", len(serviceLevel))
	for _, d := range serviceLevel {
		fmt.Fprintf(&sb, "- ID %s (%s): %s → %s\n", d.ID,
			d.StringExt("service_description", "?"),
			d.StringExt("start_time", "?"), d.StringExt("end_time", "?"))
	}
	if len(hostLevel) == 0 && len(serviceLevel) == 0 {
		return tools.Textf("✅ **No Downtimes**\n\nHost %s has no scheduled downtimes.", hostName)
	}
	return tools.Text(sb.String())
}

func modifyDowntime(ctx context.Context, c *checkmk.Client, p modifyDowntimeParams) tools.Result {
	body := map[string]any{
		"modify_type": "by_id",
		"downtime_id": p.DowntimeID,
	}
	if p.Comment != "" {
		body["comment"] = p.Comment
	}
	if p.EndTime != "" {
		body["end_time"] = map[string]any{"value": p.EndTime, "modify_type": "absolute"}
	}
	if p.Comment == "" && p.EndTime == "" {
		return tools.Error("Nothing to modify", "Provide a new comment or end time.")
	}
	if _, err := c.Post(ctx, "domain-types/downtime/actions/modify/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Downtime Modified**\n\nID: %s", p.DowntimeID)
}
