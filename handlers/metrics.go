package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/thedevsaddam/gojsonq/v2"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// MetricTools covers performance data and graph access.
func MetricTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_host_metrics",
			"📈 Host metrics - Fetch a metric time series for a host check",
			func(ctx context.Context, p hostMetricParams) tools.Result {
				return getMetric(ctx, c, p.HostName, "_HOST_", p.MetricID, p.Hours)
			}),
		tools.Func("vibemk_get_service_metrics",
			"📈 Service metrics - Fetch a metric time series for a service",
			func(ctx context.Context, p serviceMetricParams) tools.Result {
				return getMetric(ctx, c, p.HostName, p.ServiceDescription, p.MetricID, p.Hours)
			}),
		tools.Func("vibemk_get_custom_graph",
			"📈 Custom graph - Fetch a predefined graph with all its curves",
			func(ctx context.Context, p customGraphParams) tools.Result {
				return getCustomGraph(ctx, c, p)
			}),
		tools.Func("vibemk_search_metrics",
			"🔍 Search metrics - Find metric names on a host by substring",
			func(ctx context.Context, p searchMetricsParams) tools.Result {
				return searchMetrics(ctx, c, p.HostName, p.Search)
			}),
		tools.Func("vibemk_list_available_metrics",
			"📋 List metrics - Show the metrics each service of a host provides",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return searchMetrics(ctx, c, p.HostName, "")
			}),
	}
}

type hostMetricParams struct {
	HostName string `json:"host_name" description:"Name of the host"`
	MetricID string `json:"metric_id" description:"Metric ID, e.g. cpu_load_1"`
	Hours    int    `json:"hours,omitempty" description:"Time range in hours, defaults to 4"`
}

type serviceMetricParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description" description:"Service the metric belongs to"`
	MetricID           string `json:"metric_id" description:"Metric ID, e.g. fs_used"`
	Hours              int    `json:"hours,omitempty" description:"Time range in hours, defaults to 4"`
}

type customGraphParams struct {
	HostName           string `json:"host_name" description:"Name of the host"`
	ServiceDescription string `json:"service_description" description:"Service the graph belongs to"`
	GraphID            string `json:"graph_id" description:"Graph ID, e.g. cpu_utilization"`
	Hours              int    `json:"hours,omitempty" description:"Time range in hours, defaults to 4"`
}

type searchMetricsParams struct {
	HostName string `json:"host_name" description:"Name of the host"`
	Search   string `json:"search,omitempty" description:"Substring to filter metric names"`
}

func metricTimeRange(hours int) map[string]any {
	if hours <= 0 {
		hours = 4
	}
	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	return map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	}
}

func getMetric(ctx context.Context, c *checkmk.Client, host, service, metricID string, hours int) tools.Result {
	body := map[string]any{
		"type":       "single_metric",
		"metric_id":  metricID,
		"time_range": metricTimeRange(hours),
		"site":       c.Config().Site,
		"host_name":  host,
		"service_description": service,
	}
	res, err := c.Post(ctx, "domain-types/metric/actions/get/invoke", body)
	if err != nil {
		return apiError(err)
	}

	// The graph payload nests curves a few levels deep; gojsonq keeps the
	// extraction readable.
	jq := gojsonq.New().FromString(string(res.Raw))
	title, _ := jq.Copy().Find("metrics.[0].title").(string)
	if title == "" {
		title = metricID
	}
	points, _ := jq.Copy().Find("metrics.[0].data_points").([]any)
	step, _ := jq.Copy().Find("step").(float64)

	if len(points) == 0 {
		return tools.Textf("📈 **Metric: %s**\n\nHost: %s\nService: %s\n\nNo data points in the requested range.",
			title, host, service)
	}
	return tools.Textf("📈 **Metric: %s**\n\nHost: %s\nService: %s\nResolution: %.0fs\nData points: %d\n%s",
		title, host, service, step, len(points), summarizePoints(points))
}

// summarizePoints reduces a data point series to min/max/last.
func summarizePoints(points []any) string {
	var min, max, last float64
	first := true
	count := 0
	for _, p := range points {
		v, ok := p.(float64)
		if !ok {
			continue // gaps are encoded as null
		}
		if first {
			min, max = v, v
			first = false
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		last = v
		count++
	}
	if count == 0 {
		return "All data points are empty."
	}
	return fmt.Sprintf("Min: %g\nMax: %g\nLast: %g", min, max, last)
}

func getCustomGraph(ctx context.Context, c *checkmk.Client, p customGraphParams) tools.Result {
	body := map[string]any{
		"type":       "graph",
		"graph_id":   p.GraphID,
		"time_range": metricTimeRange(p.Hours),
		"site":       c.Config().Site,
		"host_name":  p.HostName,
		"service_description": p.ServiceDescription,
	}
	res, err := c.Post(ctx, "domain-types/metric/actions/get/invoke", body)
	if err != nil {
		return apiError(err)
	}

	jq := gojsonq.New().FromString(string(res.Raw))
	curves, _ := jq.Copy().Find("metrics").([]any)
	if len(curves) == 0 {
		return tools.Textf("📈 **Graph: %s**\n\nNo curves returned for %s / %s.",
			p.GraphID, p.HostName, p.ServiceDescription)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 **Graph: %s** (%d curves)\n\nHost: %s\nService: %s\n",
		p.GraphID, len(curves), p.HostName, p.ServiceDescription)
	for i, curve := range curves {
		cm, _ := curve.(map[string]any)
		title, _ := cm["title"].(string)
		points, _ := cm["data_points"].([]any)
		fmt.Fprintf(&sb, "\n**%d. %s** (%d points)\n%s\n", i+1, title, len(points), summarizePoints(points))
	}
	return tools.Text(sb.String())
}

// searchMetrics lists metric names found in the perf data of a host's
// services, optionally filtered by substring.
func searchMetrics(ctx context.Context, c *checkmk.Client, hostName, search string) tools.Result {
	query := url.Values{}
	query.Add("columns", "description")
	query.Add("columns", "perf_data")
	res, err := c.Get(ctx, "objects/host/"+hostName+"/collections/services", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve services", err.Error())
	}

	var sb strings.Builder
	found := 0
	for _, svc := range coll.Value {
		perfData := svc.StringExt("perf_data", "")
		if perfData == "" {
			continue
		}
		var names []string
		for _, chunk := range strings.Fields(perfData) {
			name, _, ok := strings.Cut(chunk, "=")
			if !ok {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(search)) {
				continue
			}
			names = append(names, name)
		}
		if len(names) == 0 {
			continue
		}
		found += len(names)
		fmt.Fprintf(&sb, "🔧 **%s**: %s\n", svc.StringExt("description", svc.ID), strings.Join(names, ", "))
	}
	if found == 0 {
		return tools.Textf("📋 **No Metrics Found**\n\nHost %s exposes no matching metrics.", hostName)
	}
	return tools.Textf("📋 **Metrics on %s** (%d):\n\n%s", hostName, found, sb.String())
}
