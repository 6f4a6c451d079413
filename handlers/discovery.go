package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// DiscoveryTools covers service discovery runs, results and bulk jobs.
func DiscoveryTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_discovery_status",
			"🔍 Discovery status - Show the state of the last discovery run on a host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return discoveryStatus(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_get_discovery_result",
			"🔍 Discovery result - Show monitored, undecided and vanished services",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return discoveryResult(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_accept_discovery",
			"✅ Accept discovery - Apply all pending discovery changes on a host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				body := map[string]any{
					"host_name": p.HostName,
					"mode":      "fix_all",
				}
				if _, err := c.Post(ctx, "domain-types/service_discovery_run/actions/start/invoke", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Discovery Accepted**\n\nHost: %s\nAll pending changes applied.%s",
					p.HostName, activateReminder)
			}),
		tools.Func("vibemk_start_service_discovery",
			"🔍 Start service discovery - Detect services on a host",
			func(ctx context.Context, p startDiscoveryParams) tools.Result {
				mode := p.Mode
				if mode == "" {
					mode = "refresh"
				}
				body := map[string]any{
					"host_name": p.HostName,
					"mode":      mode,
				}
				if _, err := c.Post(ctx, "domain-types/service_discovery_run/actions/start/invoke", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("🔍 **Service Discovery Started**\n\nHost: %s\nMode: %s%s",
					p.HostName, mode, activateReminder)
			}),
		tools.Func("vibemk_start_bulk_discovery",
			"🔍 Bulk discovery - Start discovery on multiple hosts at once",
			func(ctx context.Context, p bulkDiscoveryParams) tools.Result {
				return startBulkDiscovery(ctx, c, p)
			}),
		tools.Func("vibemk_get_bulk_discovery_status",
			"🔍 Bulk discovery status - Check a running bulk discovery job",
			func(ctx context.Context, p jobIDParams) tools.Result {
				return bulkDiscoveryStatus(ctx, c, p.JobID)
			}),
		tools.Func("vibemk_wait_for_discovery",
			"⏳ Wait for discovery - Block until the discovery run on a host finishes",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return waitForDiscovery(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_get_discovery_background_job",
			"📋 Discovery background job - Show the last discovery job of a host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return discoveryBackgroundJob(ctx, c, p.HostName)
			}),
	}
}

type startDiscoveryParams struct {
	HostName string `json:"host_name" description:"Name of the host"`
	Mode     string `json:"mode,omitempty" description:"Discovery mode, defaults to refresh" enum:"new,remove,fix_all,refresh,only_host_labels"`
}

type bulkDiscoveryParams struct {
	HostNames    []string `json:"hostnames" description:"Hosts to run discovery on"`
	Mode         string   `json:"mode,omitempty" description:"Discovery mode, defaults to new" enum:"new,remove,fix_all,refresh,only_host_labels"`
	DoFullScan   bool     `json:"do_full_scan,omitempty" description:"Contact the agents instead of using cached data"`
	BulkSize     int      `json:"bulk_size,omitempty" description:"Hosts handled per worker, defaults to 10"`
	IgnoreErrors bool     `json:"ignore_errors,omitempty" description:"Continue when single hosts fail"`
}

type jobIDParams struct {
	JobID string `json:"job_id" description:"Job ID returned by bulk discovery"`
}

func discoveryStatus(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	res, err := c.Get(ctx, "objects/service_discovery_run/"+hostName, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve discovery status", err.Error())
	}
	state := obj.StringExt("state", "unknown")
	icon := "🔄"
	if state == "finished" {
		icon = "✅"
	}
	return tools.Textf("%s **Discovery Status**\n\nHost: %s\nState: %s", icon, hostName, state)
}

func discoveryResult(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	res, err := c.Get(ctx, "objects/service_discovery/"+hostName, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve discovery result", err.Error())
	}

	services, _ := obj.Extensions["check_table"].(map[string]any)
	byPhase := map[string][]string{}
	for _, v := range services {
		entry, _ := v.(map[string]any)
		ext, _ := entry["extensions"].(map[string]any)
		phase, _ := ext["check_source"].(string)
		desc, _ := ext["service_description"].(string)
		if desc == "" {
			continue
		}
		byPhase[phase] = append(byPhase[phase], desc)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 **Discovery Result for %s**\n", hostName)
	for phase, icon := range map[string]string{
		"monitored": "✅",
		"new":       "🆕",
		"vanished":  "👻",
		"ignored":   "🚫",
	} {
		names := byPhase[phase]
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s **%s** (%d):\n", icon, phase, len(names))
		for _, n := range names {
			fmt.Fprintf(&sb, "- %s\n", n)
		}
	}
	if len(byPhase) == 0 {
		sb.WriteString("\nNo discovery data available. Run a discovery first.")
	}
	return tools.Text(sb.String())
}

func startBulkDiscovery(ctx context.Context, c *checkmk.Client, p bulkDiscoveryParams) tools.Result {
	if len(p.HostNames) == 0 {
		return tools.Error("No hosts given", "Provide at least one host name.")
	}
	mode := p.Mode
	if mode == "" {
		mode = "new"
	}
	bulkSize := p.BulkSize
	if bulkSize <= 0 {
		bulkSize = 10
	}
	body := map[string]any{
		"hostnames":     p.HostNames,
		"mode":          mode,
		"do_full_scan":  p.DoFullScan,
		"bulk_size":     bulkSize,
		"ignore_errors": p.IgnoreErrors,
	}
	res, err := c.Post(ctx, "domain-types/discovery_run/actions/bulk-discovery-start/invoke", body)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to start bulk discovery", err.Error())
	}
	return tools.Textf("🔍 **Bulk Discovery Started**\n\nHosts: %d\nMode: %s\nJob ID: %s",
		len(p.HostNames), mode, obj.ID)
}

// waitForDiscovery polls until the run leaves the running state. The poll
// interval is coarse since discovery runs take seconds, not milliseconds.
func waitForDiscovery(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	const (
		pollInterval = 2 * time.Second
		maxWait      = 2 * time.Minute
	)
	deadline := time.Now().Add(maxWait)
	for {
		res, err := c.Get(ctx, "objects/service_discovery_run/"+hostName, nil)
		if err != nil {
			return apiError(err)
		}
		var obj checkmk.DomainObject
		if err := res.Decode(&obj); err != nil {
			return tools.Error("Failed to retrieve discovery status", err.Error())
		}
		state := obj.StringExt("state", "unknown")
		if state != "running" && state != "initialized" {
			return tools.Textf("✅ **Discovery Finished**\n\nHost: %s\nState: %s", hostName, state)
		}
		if time.Now().After(deadline) {
			return tools.Errorf("Discovery still running",
				"Host %s did not finish within %s. Check again with 'vibemk_get_discovery_status'.",
				hostName, maxWait)
		}
		select {
		case <-ctx.Done():
			return tools.Error("Wait cancelled", ctx.Err().Error())
		case <-time.After(pollInterval):
		}
	}
}

func discoveryBackgroundJob(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	res, err := c.Get(ctx, "objects/service_discovery_run/"+hostName, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve background job", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Discovery Job for %s**\n\n", hostName)
	fmt.Fprintf(&sb, "State: %s\n", obj.StringExt("state", "unknown"))
	if logs, ok := obj.MapExt("logs")["result"].([]any); ok && len(logs) > 0 {
		sb.WriteString("\nResult log:\n")
		for _, line := range logs {
			if s, ok := line.(string); ok && s != "" {
				fmt.Fprintf(&sb, "- %s\n", truncate(s, 200))
			}
		}
	}
	return tools.Text(sb.String())
}

func bulkDiscoveryStatus(ctx context.Context, c *checkmk.Client, jobID string) tools.Result {
	res, err := c.Get(ctx, "objects/discovery_run/"+jobID, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve job status", err.Error())
	}
	active := obj.BoolExt("active")
	state := "finished"
	icon := "✅"
	if active {
		state = "running"
		icon = "🔄"
	}
	var logs string
	if progress, ok := obj.MapExt("logs")["progress"].([]any); ok && len(progress) > 0 {
		last, _ := progress[len(progress)-1].(string)
		logs = "\nLast progress: " + truncate(last, 200)
	}
	return tools.Textf("%s **Bulk Discovery Job %s**\n\nState: %s%s", icon, jobID, state, logs)
}
