package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// knownEndpoints are the API paths the diagnostics probe, covering every
// domain the tool catalog touches.
var knownEndpoints = []string{
	"version",
	"domain-types/host_config/collections/all",
	"domain-types/service/collections/all",
	"domain-types/folder_config/collections/all",
	"domain-types/ruleset/collections/all",
	"domain-types/user_config/collections/all",
	"domain-types/host_group_config/collections/all",
	"domain-types/service_group_config/collections/all",
	"domain-types/contact_group_config/collections/all",
	"domain-types/time_period/collections/all",
	"domain-types/host_tag_group/collections/all",
	"domain-types/password/collections/all",
	"domain-types/downtime/collections/all",
	"domain-types/activation_run/collections/pending_changes",
}

// ConnectionTools covers connectivity and API diagnostics.
func ConnectionTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_debug_checkmk_connection",
			"🔍 CheckMK connection diagnostics - Test server connectivity and API access",
			func(ctx context.Context, p struct{}) tools.Result {
				return debugConnection(ctx, c)
			}),
		tools.Func("vibemk_debug_url_detection",
			"🔍 Debug URL detection - Show the API base URL derived from the configuration",
			func(ctx context.Context, p struct{}) tools.Result {
				return debugURLDetection(c)
			}),
		tools.Func("vibemk_test_direct_url",
			"🧪 Test direct URL - Issue a GET against a specific API path",
			func(ctx context.Context, p testDirectURLParams) tools.Result {
				return testDirectURL(ctx, c, p)
			}),
		tools.Func("vibemk_test_all_endpoints",
			"🧪 Test all API endpoints - Comprehensive endpoint availability check",
			func(ctx context.Context, p struct{}) tools.Result {
				return testAllEndpoints(ctx, c)
			}),
		tools.Func("vibemk_get_checkmk_version",
			"📋 Get CheckMK version - Show version information and system details",
			func(ctx context.Context, p struct{}) tools.Result {
				return getVersion(ctx, c)
			}),
	}
}

type testDirectURLParams struct {
	Path string `json:"path" description:"API path relative to the REST root, e.g. version"`
}

func debugConnection(ctx context.Context, c *checkmk.Client) tools.Result {
	cfg := c.Config()
	info, err := c.Version(ctx)
	if err != nil {
		return tools.Errorf("Connection failed",
			"Could not reach %s\n\n%s\n\nCheck server URL, site name and automation credentials.",
			cfg.BaseURL(), err)
	}
	return tools.Textf("✅ **CheckMK Connection OK**\n\n"+
		"Server: %s\nSite: %s\nUser: %s\nVersion: %s (%s)",
		cfg.ServerURL, info.Site, cfg.Username, info.Versions.Checkmk, info.Versions.Edition)
}

func debugURLDetection(c *checkmk.Client) tools.Result {
	cfg := c.Config()
	return tools.Textf("🔍 **URL Detection**\n\n"+
		"Server URL: %s\nSite: %s\nAPI base: %s\nTLS verification: %v",
		cfg.ServerURL, cfg.Site, cfg.BaseURL(), !cfg.InsecureSkipVerify)
}

func testDirectURL(ctx context.Context, c *checkmk.Client, p testDirectURLParams) tools.Result {
	res, err := c.Get(ctx, p.Path, nil)
	if err != nil {
		return apiError(err)
	}
	body := truncate(string(res.Raw), 1000)
	return tools.Textf("🧪 **Direct URL Test**\n\nPath: %s\nStatus: %d\n\n```json\n%s\n```",
		p.Path, res.StatusCode, body)
}

// testAllEndpoints probes every known endpoint concurrently and reports a
// per-endpoint verdict.
func testAllEndpoints(ctx context.Context, c *checkmk.Client) tools.Result {
	type probe struct {
		path string
		err  error
	}

	var mu sync.Mutex
	results := make([]probe, 0, len(knownEndpoints))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range knownEndpoints {
		g.Go(func() error {
			_, err := c.Get(ctx, path, nil)
			mu.Lock()
			results = append(results, probe{path: path, err: err})
			mu.Unlock()
			// Probe failures are part of the report, not an abort reason.
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	ok := 0
	var sb strings.Builder
	for _, r := range results {
		if r.err == nil {
			ok++
			fmt.Fprintf(&sb, "✅ %s\n", r.path)
			continue
		}
		fmt.Fprintf(&sb, "❌ %s: %s\n", r.path, r.err)
	}
	header := fmt.Sprintf("🧪 **Endpoint Availability** (%d/%d reachable)\n\n", ok, len(results))
	result := tools.Text(header + sb.String())
	result.IsError = ok == 0
	return result
}

func getVersion(ctx context.Context, c *checkmk.Client) tools.Result {
	info, err := c.Version(ctx)
	if err != nil {
		return apiError(err)
	}
	edition := info.Versions.Edition
	if edition == "" {
		edition = "unknown edition"
	}
	return tools.Textf("📋 **CheckMK Version**\n\nSite: %s\nVersion: %s\nEdition: %s",
		info.Site, info.Versions.Checkmk, edition)
}
