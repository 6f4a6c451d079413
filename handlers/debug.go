package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// DebugTools exposes raw API access for troubleshooting tool mappings.
func DebugTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_debug_api_call",
			"🔧 Debug API call - Issue a raw GET against the REST API and show the response",
			func(ctx context.Context, p debugCallParams) tools.Result {
				res, err := c.Get(ctx, p.Path, nil)
				if err != nil {
					return apiError(err)
				}
				var payload any
				if err := res.Decode(&payload); err != nil {
					return tools.Textf("🔧 **GET %s** (HTTP %d)\n\nNon-JSON response, %d bytes.",
						p.Path, res.StatusCode, len(res.Raw))
				}
				return tools.TextWithJSON(
					fmt.Sprintf("🔧 **GET %s** (HTTP %d)", p.Path, res.StatusCode), payload)
			}),
		tools.Func("vibemk_get_server_info",
			"ℹ️ Server info - Show CheckMK version and connection settings",
			func(ctx context.Context, _ struct{}) tools.Result {
				cfg := c.Config()
				info, err := c.Version(ctx)
				if err != nil {
					return apiError(err)
				}
				return tools.Textf("ℹ️ **CheckMK Server**\n\nURL: %s\nSite: %s\nUser: %s\nVersion: %s\nEdition: %s",
					cfg.ServerURL, cfg.Site, cfg.Username, info.Versions.Checkmk, info.Versions.Edition)
			}),
		tools.Func("vibemk_debug_api_endpoints",
			"🔍 Debug API endpoints - Probe key REST API endpoints and report their availability",
			func(ctx context.Context, _ struct{}) tools.Result {
				return debugAPIEndpoints(ctx, c)
			}),
		tools.Func("vibemk_debug_permissions",
			"🔐 Debug permissions - Check what the automation user is allowed to access",
			func(ctx context.Context, _ struct{}) tools.Result {
				return debugPermissions(ctx, c)
			}),
	}
}

type debugCallParams struct {
	Path string `json:"path" description:"API path relative to the base URL, e.g. domain-types/host_config/collections/all"`
}

func debugAPIEndpoints(ctx context.Context, c *checkmk.Client) tools.Result {
	endpoints := []struct {
		path  string
		label string
	}{
		{"version", "Version"},
		{"domain-types/host_config/collections/all", "Host configs"},
		{"domain-types/folder_config/collections/all", "Folders"},
		{"domain-types/ruleset/collections/all", "Rulesets"},
		{"domain-types/user_config/collections/all", "Users"},
		{"domain-types/downtime/collections/all", "Downtimes"},
		{"domain-types/activation_run/collections/pending_changes", "Pending changes"},
	}

	var sb strings.Builder
	sb.WriteString("🔍 **API Endpoint Probe**\n\n")
	for _, ep := range endpoints {
		res, err := c.Get(ctx, ep.path, nil)
		if err != nil {
			var apiErr *checkmk.APIError
			if errors.As(err, &apiErr) {
				fmt.Fprintf(&sb, "❌ %s: HTTP %d\n", ep.label, apiErr.StatusCode)
			} else {
				fmt.Fprintf(&sb, "❌ %s: %s\n", ep.label, err)
			}
			continue
		}
		fmt.Fprintf(&sb, "✅ %s: HTTP %d\n", ep.label, res.StatusCode)
	}
	return tools.Text(sb.String())
}

// debugPermissions reports the automation user's roles and whether the
// write-side endpoints answer, since a read-only user passes GET probes.
func debugPermissions(ctx context.Context, c *checkmk.Client) tools.Result {
	cfg := c.Config()
	res, err := c.Get(ctx, "objects/user_config/"+cfg.Username, nil)
	if err != nil {
		return apiError(err)
	}
	var user checkmk.DomainObject
	if err := res.Decode(&user); err != nil {
		return tools.Error("Failed to retrieve user", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔐 **Permissions for %s**\n\n", cfg.Username)
	if roles, ok := user.Extensions["roles"].([]any); ok && len(roles) > 0 {
		sb.WriteString("Roles:\n")
		for _, r := range roles {
			fmt.Fprintf(&sb, "- %v\n", r)
		}
	} else {
		sb.WriteString("Roles: none reported\n")
	}
	if groups, ok := user.Extensions["contactgroups"].([]any); ok && len(groups) > 0 {
		sb.WriteString("\nContact groups:\n")
		for _, g := range groups {
			fmt.Fprintf(&sb, "- %v\n", g)
		}
	}
	if user.BoolExt("disable_login") {
		sb.WriteString("\n⚠️ Login is disabled for this user.")
	}
	return tools.Text(sb.String())
}
