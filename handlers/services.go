package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// ServiceTools covers service state queries and discovery kickoff.
func ServiceTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_checkmk_services",
			"🔧 List services - Show services of a host with their monitoring state",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return listServices(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_get_service_status",
			"📊 Get service status - Show current state of one service on a host",
			func(ctx context.Context, p serviceParams) tools.Result {
				return serviceStatus(ctx, c, p)
			}),
		tools.Func("vibemk_discover_services",
			"🔍 Discover services - Run service discovery on a host",
			func(ctx context.Context, p discoverParams) tools.Result {
				return discoverServices(ctx, c, p)
			}),
	}
}

type serviceParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description" description:"Service description, e.g. 'Filesystem /'"`
}

type discoverParams struct {
	HostName string `json:"host_name" description:"Name of the host"`
	Mode     string `json:"mode,omitempty" enum:"new,remove,fix_all,refresh,only_host_labels" description:"Discovery mode, defaults to fix_all"`
}

func serviceStateName(v any) string {
	state, ok := v.(float64)
	if !ok {
		return "UNKNOWN"
	}
	switch int(state) {
	case 0:
		return "✅ OK"
	case 1:
		return "⚠️ WARN"
	case 2:
		return "❌ CRIT"
	case 3:
		return "❓ UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

func listServices(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	query := url.Values{}
	for _, col := range []string{"description", "state", "plugin_output"} {
		query.Add("columns", col)
	}
	res, err := c.Get(ctx, "objects/host/"+hostName+"/collections/services", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve services", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Textf("🔧 **No Services**\n\nHost %s has no services.", hostName)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔧 **Services on %s** (%d total):\n\n", hostName, len(coll.Value))
	for _, svc := range coll.Value {
		desc := svc.StringExt("description", svc.ID)
		fmt.Fprintf(&sb, "%s %s: %s\n",
			serviceStateName(svc.Extensions["state"]), desc,
			truncate(svc.StringExt("plugin_output", ""), 120))
	}
	return tools.Text(sb.String())
}

func serviceStatus(ctx context.Context, c *checkmk.Client, p serviceParams) tools.Result {
	query := url.Values{}
	query.Set("service_description", p.ServiceDescription)
	for _, col := range []string{"state", "plugin_output", "last_check"} {
		query.Add("columns", col)
	}
	res, err := c.Get(ctx, "objects/host/"+p.HostName+"/collections/services", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve service", err.Error())
	}
	for _, svc := range coll.Value {
		if svc.StringExt("description", svc.ID) != p.ServiceDescription && svc.ID != p.ServiceDescription {
			continue
		}
		return tools.Textf("📊 **Service Status**\n\nHost: %s\nService: %s\nState: %s\nOutput: %s",
			p.HostName, p.ServiceDescription,
			serviceStateName(svc.Extensions["state"]),
			svc.StringExt("plugin_output", ""))
	}
	return tools.Errorf("Service not found", "Host %q has no service %q", p.HostName, p.ServiceDescription)
}

func discoverServices(ctx context.Context, c *checkmk.Client, p discoverParams) tools.Result {
	mode := p.Mode
	if mode == "" {
		mode = "fix_all"
	}
	body := map[string]any{
		"host_name": p.HostName,
		"mode":      mode,
	}
	if _, err := c.Post(ctx, "domain-types/service_discovery_run/actions/start/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("🔍 **Service Discovery Started**\n\nHost: %s\nMode: %s\n\n"+
		"Use 'vibemk_get_discovery_status' to follow progress.%s",
		p.HostName, mode, activateReminder)
}
