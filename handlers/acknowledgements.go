package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// AcknowledgementTools covers host acknowledgements and removal. The
// service acknowledgement shortcut lives in MonitoringTools.
func AcknowledgementTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_acknowledge_host_problem",
			"👍 Acknowledge host - Acknowledge a host problem with a comment",
			func(ctx context.Context, p acknowledgeHostParams) tools.Result {
				body := map[string]any{
					"acknowledge_type": "host",
					"host_name":        p.HostName,
					"comment":          p.Comment,
					"sticky":           p.Sticky,
					"notify":           true,
					"persistent":       false,
				}
				if _, err := c.Post(ctx, "domain-types/acknowledge/collections/host", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("👍 **Host Problem Acknowledged**\n\nHost: %s\nComment: %s",
					p.HostName, p.Comment)
			}),
		tools.Func("vibemk_acknowledge_service_problem",
			"👍 Acknowledge service - Acknowledge a service problem with a comment",
			func(ctx context.Context, p acknowledgeServiceParams) tools.Result {
				return acknowledgeService(ctx, c, p.HostName, p.ServiceDescription, p.Comment, p.Sticky)
			}),
		tools.Func("vibemk_remove_acknowledgement",
			"🔄 Remove acknowledgement - Delete acknowledgements from a host or service",
			func(ctx context.Context, p removeAckParams) tools.Result {
				return removeAcknowledgement(ctx, c, p)
			}),
		tools.Func("vibemk_list_acknowledgements",
			"📋 List acknowledgements - Show currently acknowledged problems",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listAcknowledgements(ctx, c)
			}),
	}
}

type acknowledgeHostParams struct {
	HostName string `json:"host_name" description:"Host with the problem"`
	Comment  string `json:"comment" description:"Acknowledgement comment"`
	Sticky   bool   `json:"sticky,omitempty" description:"Keep the acknowledgement until the problem resolves"`
}

type acknowledgeServiceParams struct {
	HostName           string `json:"host_name" description:"Host the service runs on"`
	ServiceDescription string `json:"service_description" description:"Service with the problem"`
	Comment            string `json:"comment" description:"Acknowledgement comment"`
	Sticky             bool   `json:"sticky,omitempty" description:"Keep the acknowledgement until the problem resolves"`
}

type removeAckParams struct {
	HostName           string `json:"host_name" description:"Host the acknowledgement is on"`
	ServiceDescription string `json:"service_description,omitempty" description:"Service, omit to target the host itself"`
}

func removeAcknowledgement(ctx context.Context, c *checkmk.Client, p removeAckParams) tools.Result {
	path := "objects/host/" + p.HostName + "/actions/remove_acknowledgement/invoke"
	target := p.HostName
	if p.ServiceDescription != "" {
		path = "objects/host/" + p.HostName + "/actions/remove_acknowledgement/invoke?service_description=" +
			url.QueryEscape(p.ServiceDescription)
		target = p.HostName + " / " + p.ServiceDescription
	}
	if _, err := c.Post(ctx, path, map[string]any{}); err != nil {
		return apiError(err)
	}
	return tools.Textf("🔄 **Acknowledgement Removed**\n\nTarget: %s", target)
}

func listAcknowledgements(ctx context.Context, c *checkmk.Client) tools.Result {
	query := url.Values{}
	query.Add("columns", "host_name")
	query.Add("columns", "description")
	query.Add("columns", "state")
	query.Add("columns", "acknowledged")
	res, err := c.Get(ctx, "domain-types/service/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve services", err.Error())
	}

	var sb strings.Builder
	count := 0
	for _, svc := range coll.Value {
		if ack, ok := svc.Extensions["acknowledged"].(float64); !ok || ack == 0 {
			continue
		}
		count++
		state, _ := svc.Extensions["state"].(float64)
		fmt.Fprintf(&sb, "👍 **%s / %s** (%s)\n",
			svc.StringExt("host_name", "?"),
			svc.StringExt("description", svc.ID),
			serviceStateName(state))
	}
	if count == 0 {
		return tools.Text("📋 **No Acknowledgements**\n\nNo acknowledged problems found.")
	}
	return tools.Textf("📋 **Acknowledged Problems** (%d):\n\n%s", count, sb.String())
}
