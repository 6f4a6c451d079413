package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// MonitoringTools covers problem overviews, acknowledgements and comments
// on the monitoring core.
func MonitoringTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_current_problems",
			"🚨 Current problems - Show services that are not OK right now",
			func(ctx context.Context, p currentProblemsParams) tools.Result {
				return currentProblems(ctx, c, p)
			}),
		tools.Func("vibemk_acknowledge_problem",
			"👍 Acknowledge problem - Acknowledge a service problem with a comment",
			func(ctx context.Context, p acknowledgeParams) tools.Result {
				return acknowledgeService(ctx, c, p.HostName, p.ServiceDescription, p.Comment, p.Sticky)
			}),
		tools.Func("vibemk_schedule_downtime",
			"⏸️ Schedule downtime - Schedule a downtime for a service",
			func(ctx context.Context, p scheduleDowntimeParams) tools.Result {
				return scheduleDowntime(ctx, c, "service", p.HostName, p.ServiceDescription, p.StartTime, p.EndTime, p.Comment)
			}),
		tools.Func("vibemk_get_downtimes",
			"⏸️ Get downtimes - List currently known downtimes",
			func(ctx context.Context, p struct{}) tools.Result {
				return listDowntimes(ctx, c, "", "", false)
			}),
		tools.Func("vibemk_reschedule_check",
			"🔄 Reschedule check - Trigger an immediate recheck of a service",
			func(ctx context.Context, p serviceParams) tools.Result {
				return rescheduleCheck(ctx, c, p)
			}),
		tools.Func("vibemk_get_comments",
			"💬 Get comments - List comments on hosts and services",
			func(ctx context.Context, p struct{}) tools.Result {
				return listComments(ctx, c)
			}),
		tools.Func("vibemk_add_comment",
			"💬 Add comment - Attach a comment to a host or service",
			func(ctx context.Context, p addCommentParams) tools.Result {
				return addComment(ctx, c, p)
			}),
	}
}

type currentProblemsParams struct {
	HostName string `json:"host_name,omitempty" description:"Limit to one host"`
}

type acknowledgeParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description" description:"Service with the problem"`
	Comment            string `json:"comment" description:"Acknowledgement comment"`
	Sticky             bool   `json:"sticky,omitempty" description:"Keep the acknowledgement until the service is OK"`
}

type scheduleDowntimeParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description" description:"Service to take down"`
	StartTime          string `json:"start_time" description:"Start time, RFC 3339 (e.g. 2026-01-01T12:00:00Z)"`
	EndTime            string `json:"end_time" description:"End time, RFC 3339"`
	Comment            string `json:"comment,omitempty" description:"Downtime comment"`
}

type addCommentParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description,omitempty" description:"Service to comment on; empty comments the host"`
	Comment            string `json:"comment" description:"Comment text"`
}

func currentProblems(ctx context.Context, c *checkmk.Client, p currentProblemsParams) tools.Result {
	query := url.Values{}
	for _, col := range []string{"host_name", "description", "state", "plugin_output", "acknowledged"} {
		query.Add("columns", col)
	}
	// Livestatus filter: anything not OK.
	query.Set("query", `{"op": "!=", "left": "state", "right": "0"}`)
	if p.HostName != "" {
		query.Set("host_name", p.HostName)
	}
	res, err := c.Get(ctx, "domain-types/service/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve problems", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("✅ **No Problems**\n\nAll services are OK.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚨 **Current Problems** (%d):\n\n", len(coll.Value))
	for _, svc := range coll.Value {
		ack := ""
		if n, ok := svc.Extensions["acknowledged"].(float64); ok && n > 0 {
			ack = " (acknowledged)"
		}
		fmt.Fprintf(&sb, "%s %s / %s%s\n   %s\n",
			serviceStateName(svc.Extensions["state"]),
			svc.StringExt("host_name", "?"),
			svc.StringExt("description", svc.ID),
			ack,
			truncate(svc.StringExt("plugin_output", ""), 120))
	}
	return tools.Text(sb.String())
}

func acknowledgeService(ctx context.Context, c *checkmk.Client, host, service, comment string, sticky bool) tools.Result {
	body := map[string]any{
		"acknowledge_type": "service",
		"host_name":        host,
		"service_description": service,
		"comment":          comment,
		"sticky":           sticky,
		"notify":           true,
		"persistent":       false,
	}
	if _, err := c.Post(ctx, "domain-types/acknowledge/collections/service", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("👍 **Problem Acknowledged**\n\nHost: %s\nService: %s\nComment: %s",
		host, service, comment)
}

func rescheduleCheck(ctx context.Context, c *checkmk.Client, p serviceParams) tools.Result {
	body := map[string]any{
		"host_name":    p.HostName,
		"service_description": p.ServiceDescription,
	}
	if _, err := c.Post(ctx, "domain-types/service/actions/reschedule-check/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("🔄 **Check Rescheduled**\n\nHost: %s\nService: %s\n\nThe next check will run immediately.",
		p.HostName, p.ServiceDescription)
}

func listComments(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/comment/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve comments", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("💬 **No Comments**\n\nNo comments are stored.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 **Comments** (%d):\n\n", len(coll.Value))
	for _, cm := range coll.Value {
		target := cm.StringExt("host_name", "?")
		if svc := cm.StringExt("service_description", ""); svc != "" {
			target += " / " + svc
		}
		fmt.Fprintf(&sb, "- **%s** (%s): %s\n", target, cm.StringExt("author", "unknown"), cm.StringExt("comment", ""))
	}
	return tools.Text(sb.String())
}

func addComment(ctx context.Context, c *checkmk.Client, p addCommentParams) tools.Result {
	body := map[string]any{
		"host_name": p.HostName,
		"comment":   p.Comment,
	}
	path := "domain-types/comment/collections/host"
	target := p.HostName
	if p.ServiceDescription != "" {
		body["service_description"] = p.ServiceDescription
		path = "domain-types/comment/collections/service"
		target += " / " + p.ServiceDescription
	}
	if _, err := c.Post(ctx, path, body); err != nil {
		return apiError(err)
	}
	return tools.Textf("💬 **Comment Added**\n\nTarget: %s\nComment: %s", target, p.Comment)
}
