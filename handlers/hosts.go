package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// HostTools covers host configuration and host monitoring state.
func HostTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_checkmk_hosts",
			"🖥️ List hosts - Show all monitored hosts with optional folder filtering",
			func(ctx context.Context, p listHostsParams) tools.Result {
				return listHosts(ctx, c, p)
			}),
		tools.Func("vibemk_get_host_status",
			"📊 Get host status - Show current monitoring status of a specific host",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return hostStatus(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_get_host_details",
			"🔍 Host details - Get comprehensive host information",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return hostDetails(ctx, c, p.HostName, false)
			}),
		tools.Func("vibemk_get_host_config",
			"⚙️ Get host configuration - Show host configuration with attributes",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return hostDetails(ctx, c, p.HostName, false)
			}),
		tools.Func("vibemk_create_host",
			"➕ Create host(s) - Add one or multiple hosts to monitoring (multiple hosts use the bulk API)",
			func(ctx context.Context, p createHostParams) tools.Result {
				return createHost(ctx, c, p)
			}),
		tools.Func("vibemk_bulk_create_hosts",
			"➕ Bulk create hosts - Add many hosts in a single API call",
			func(ctx context.Context, p bulkCreateHostsParams) tools.Result {
				return bulkCreateHosts(ctx, c, p.Hosts, p.BakeAgent)
			}),
		tools.Func("vibemk_update_host",
			"✏️ Update host - Change host attributes",
			func(ctx context.Context, p updateHostParams) tools.Result {
				return updateHost(ctx, c, p)
			}),
		tools.Func("vibemk_delete_host",
			"🗑️ Delete host - Remove a host from monitoring",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return deleteHost(ctx, c, p.HostName)
			}),
		tools.Func("vibemk_move_host",
			"📁 Move host - Move a host to a different folder",
			func(ctx context.Context, p moveHostParams) tools.Result {
				return moveHost(ctx, c, p)
			}),
		tools.Func("vibemk_bulk_update_hosts",
			"✏️ Bulk update hosts - Change attributes of many hosts in one call",
			func(ctx context.Context, p bulkUpdateHostsParams) tools.Result {
				return bulkUpdateHosts(ctx, c, p)
			}),
		tools.Func("vibemk_create_cluster_host",
			"➕ Create cluster host - Add a cluster host with its node hosts",
			func(ctx context.Context, p createClusterParams) tools.Result {
				return createCluster(ctx, c, p)
			}),
		tools.Func("vibemk_validate_host_config",
			"✔️ Validate host configuration - Check a host definition before creating it",
			func(ctx context.Context, p validateHostParams) tools.Result {
				return validateHost(ctx, c, p)
			}),
		tools.Func("vibemk_compare_host_states",
			"🆚 Compare host states - Show monitoring state of two hosts side by side",
			func(ctx context.Context, p compareHostsParams) tools.Result {
				return compareHosts(ctx, c, p)
			}),
		tools.Func("vibemk_get_host_effective_attributes",
			"⚙️ Effective attributes - Show host attributes including inherited folder values",
			func(ctx context.Context, p hostNameParams) tools.Result {
				return hostDetails(ctx, c, p.HostName, true)
			}),
	}
}

type hostNameParams struct {
	HostName string `json:"host_name" description:"Name of the host"`
}

type listHostsParams struct {
	Folder              string `json:"folder,omitempty" description:"Folder path to filter hosts"`
	EffectiveAttributes bool   `json:"effective_attributes,omitempty" description:"Include effective attributes"`
}

type hostEntry struct {
	HostName   string         `json:"host_name" description:"Name of the new host"`
	Folder     string         `json:"folder" description:"Folder path"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Host attributes (ipaddress, alias, ...)"`
}

type createHostParams struct {
	HostName   string         `json:"host_name,omitempty" description:"Name of the new host (single host mode)"`
	Folder     string         `json:"folder,omitempty" description:"Folder path (single host mode)"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Host attributes - ipaddress, alias, etc."`
	Hosts      []hostEntry    `json:"hosts,omitempty" description:"List of hosts to create (bulk mode)"`
	BakeAgent  bool           `json:"bake_agent,omitempty" description:"Bake agents after creation (bulk mode only)"`
}

type bulkCreateHostsParams struct {
	Hosts     []hostEntry `json:"hosts" description:"List of hosts to create"`
	BakeAgent bool        `json:"bake_agent,omitempty" description:"Bake agents after creation"`
}

type updateHostParams struct {
	HostName   string         `json:"host_name" description:"Name of the host"`
	Attributes map[string]any `json:"attributes" description:"Attributes to set or replace"`
}

type moveHostParams struct {
	HostName     string `json:"host_name" description:"Name of the host"`
	TargetFolder string `json:"target_folder" description:"Destination folder path"`
}

type bulkUpdateHostsParams struct {
	Entries []struct {
		HostName   string         `json:"host_name" description:"Name of the host"`
		Attributes map[string]any `json:"attributes" description:"Attributes to set"`
	} `json:"entries" description:"Hosts and the attributes to apply"`
}

type createClusterParams struct {
	HostName   string         `json:"host_name" description:"Name of the cluster host"`
	Folder     string         `json:"folder,omitempty" description:"Folder path, defaults to /"`
	Nodes      []string       `json:"nodes" description:"Node host names forming the cluster"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Host attributes"`
}

type validateHostParams struct {
	HostName   string         `json:"host_name" description:"Host name to validate"`
	Folder     string         `json:"folder,omitempty" description:"Folder path the host would be created in"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Host attributes to validate"`
}

type compareHostsParams struct {
	HostA string `json:"host_a" description:"First host name"`
	HostB string `json:"host_b" description:"Second host name"`
}

func listHosts(ctx context.Context, c *checkmk.Client, p listHostsParams) tools.Result {
	query := url.Values{}
	if p.EffectiveAttributes {
		query.Set("effective_attributes", "true")
	}
	res, err := c.Get(ctx, "domain-types/host_config/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve hosts", err.Error())
	}

	hosts := coll.Value
	if p.Folder != "" {
		want := folderFromAPI(folderToAPI(p.Folder))
		filtered := hosts[:0]
		for _, h := range hosts {
			if folderFromAPI(h.StringExt("folder", "/")) == want {
				filtered = append(filtered, h)
			}
		}
		hosts = filtered
	}
	if len(hosts) == 0 {
		return tools.Text("🖥️ **No Hosts Found**\n\nNo hosts match the given criteria.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🖥️ **Monitored Hosts** (%d total):\n", len(hosts))
	shown := hosts
	if len(shown) > 50 {
		shown = shown[:50]
	}
	for _, h := range shown {
		attrs := h.MapExt("attributes")
		ip, _ := attrs["ipaddress"].(string)
		if ip == "" {
			ip = "no IP configured"
		}
		fmt.Fprintf(&sb, "\n🖥️ **%s**\n   Folder: %s\n   IP: %s\n",
			h.ID, folderFromAPI(h.StringExt("folder", "/")), ip)
	}
	if rest := len(hosts) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "\n... and %d more hosts", rest)
	}
	return tools.Text(sb.String())
}

func hostStatus(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	query := url.Values{}
	for _, col := range []string{"name", "state", "plugin_output", "last_check", "num_services"} {
		query.Add("columns", col)
	}
	res, err := c.Get(ctx, "objects/host/"+hostName, query)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve host status", err.Error())
	}

	state := hostStateName(obj.Extensions["state"])
	output, _ := obj.Extensions["plugin_output"].(string)
	return tools.Textf("📊 **Host Status: %s**\n\nState: %s\nOutput: %s",
		hostName, state, output)
}

func hostStateName(v any) string {
	state, ok := v.(float64)
	if !ok {
		return "UNKNOWN"
	}
	switch int(state) {
	case 0:
		return "✅ UP"
	case 1:
		return "❌ DOWN"
	case 2:
		return "❓ UNREACHABLE"
	default:
		return "UNKNOWN"
	}
}

func hostDetails(ctx context.Context, c *checkmk.Client, hostName string, effective bool) tools.Result {
	query := url.Values{}
	if effective {
		query.Set("effective_attributes", "true")
	}
	res, err := c.Get(ctx, "objects/host_config/"+hostName, query)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve host", err.Error())
	}

	attrs := obj.MapExt("attributes")
	if effective {
		if eff, ok := obj.Extensions["effective_attributes"].(map[string]any); ok {
			attrs = eff
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚙️ **Host Configuration: %s**\n\nFolder: %s\nCluster: %v\n\nAttributes:\n",
		obj.ID, folderFromAPI(obj.StringExt("folder", "/")), obj.BoolExt("is_cluster"))
	if len(attrs) == 0 {
		sb.WriteString("   (none set)\n")
	}
	for k, v := range attrs {
		fmt.Fprintf(&sb, "   %s: %v\n", k, v)
	}
	return tools.Text(sb.String())
}

func createHost(ctx context.Context, c *checkmk.Client, p createHostParams) tools.Result {
	if len(p.Hosts) > 0 {
		return bulkCreateHosts(ctx, c, p.Hosts, p.BakeAgent)
	}
	if p.HostName == "" {
		return tools.Error("Missing parameter", "host_name is required (or use the hosts array for bulk mode)")
	}
	attributes := p.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	body := map[string]any{
		"host_name":  p.HostName,
		"folder":     folderToAPI(p.Folder),
		"attributes": attributes,
	}
	if _, err := c.Post(ctx, "domain-types/host_config/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Host Created Successfully**\n\nHost: %s\nFolder: %s%s",
		p.HostName, folderFromAPI(folderToAPI(p.Folder)), activateReminder)
}

func bulkCreateHosts(ctx context.Context, c *checkmk.Client, hosts []hostEntry, bakeAgent bool) tools.Result {
	if len(hosts) == 0 {
		return tools.Error("Missing parameter", "hosts must contain at least one entry")
	}
	entries := make([]map[string]any, 0, len(hosts))
	for _, h := range hosts {
		attributes := h.Attributes
		if attributes == nil {
			attributes = map[string]any{}
		}
		entries = append(entries, map[string]any{
			"host_name":  h.HostName,
			"folder":     folderToAPI(h.Folder),
			"attributes": attributes,
		})
	}
	body := map[string]any{"entries": entries}
	if bakeAgent {
		body["bake_agent"] = true
	}
	if _, err := c.Post(ctx, "domain-types/host_config/actions/bulk-create/invoke", body); err != nil {
		return apiError(err)
	}
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.HostName
	}
	return tools.Textf("✅ **Hosts Created Successfully**\n\nCreated %d hosts:\n%s%s",
		len(hosts), "- "+strings.Join(names, "\n- "), activateReminder)
}

func updateHost(ctx context.Context, c *checkmk.Client, p updateHostParams) tools.Result {
	body := map[string]any{"update_attributes": p.Attributes}
	if _, err := c.Put(ctx, "objects/host_config/"+p.HostName, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	return tools.Textf("✅ **Host Updated Successfully**\n\nHost: %s\nUpdated attributes: %s%s",
		p.HostName, strings.Join(keys, ", "), activateReminder)
}

func deleteHost(ctx context.Context, c *checkmk.Client, hostName string) tools.Result {
	if _, err := c.Delete(ctx, "objects/host_config/"+hostName); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Host Deleted Successfully**\n\nHost: %s%s", hostName, activateReminder)
}

func moveHost(ctx context.Context, c *checkmk.Client, p moveHostParams) tools.Result {
	body := map[string]any{"target_folder": folderToAPI(p.TargetFolder)}
	if _, err := c.Post(ctx, "objects/host_config/"+p.HostName+"/actions/move/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Host Moved Successfully**\n\nHost: %s\nTarget folder: %s%s",
		p.HostName, folderFromAPI(folderToAPI(p.TargetFolder)), activateReminder)
}

func bulkUpdateHosts(ctx context.Context, c *checkmk.Client, p bulkUpdateHostsParams) tools.Result {
	if len(p.Entries) == 0 {
		return tools.Error("Missing parameter", "entries must contain at least one host")
	}
	entries := make([]map[string]any, 0, len(p.Entries))
	for _, e := range p.Entries {
		entries = append(entries, map[string]any{
			"host_name":         e.HostName,
			"update_attributes": e.Attributes,
		})
	}
	if _, err := c.Put(ctx, "domain-types/host_config/actions/bulk-update/invoke", map[string]any{"entries": entries}, nil); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Hosts Updated Successfully**\n\nUpdated %d hosts%s", len(p.Entries), activateReminder)
}

func createCluster(ctx context.Context, c *checkmk.Client, p createClusterParams) tools.Result {
	if len(p.Nodes) == 0 {
		return tools.Error("Missing parameter", "nodes must contain at least one host")
	}
	attributes := p.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	body := map[string]any{
		"host_name":  p.HostName,
		"folder":     folderToAPI(p.Folder),
		"nodes":      p.Nodes,
		"attributes": attributes,
	}
	if _, err := c.Post(ctx, "domain-types/host_config/collections/clusters", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Cluster Host Created Successfully**\n\nCluster: %s\nNodes: %s%s",
		p.HostName, strings.Join(p.Nodes, ", "), activateReminder)
}

var hostNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// validateHost checks a host definition without touching the configuration:
// name syntax, folder existence and basic attribute sanity.
func validateHost(ctx context.Context, c *checkmk.Client, p validateHostParams) tools.Result {
	var problems []string
	if !hostNamePattern.MatchString(p.HostName) {
		problems = append(problems, fmt.Sprintf("host name %q contains invalid characters", p.HostName))
	}
	if p.Folder != "" && p.Folder != "/" {
		if _, err := c.Get(ctx, "objects/folder_config/"+folderToAPI(p.Folder), nil); err != nil {
			problems = append(problems, fmt.Sprintf("folder %q is not accessible: %s", p.Folder, err))
		}
	}
	if ip, ok := p.Attributes["ipaddress"].(string); ok && strings.TrimSpace(ip) == "" {
		problems = append(problems, "ipaddress attribute is empty")
	}

	if len(problems) > 0 {
		return tools.Errorf("Host validation failed", "Problems found:\n- %s", strings.Join(problems, "\n- "))
	}
	return tools.Textf("✔️ **Host Configuration Valid**\n\nHost: %s\nFolder: %s\nNo problems found.",
		p.HostName, folderFromAPI(folderToAPI(p.Folder)))
}

func compareHosts(ctx context.Context, c *checkmk.Client, p compareHostsParams) tools.Result {
	stateOf := func(host string) (string, string) {
		query := url.Values{}
		query.Add("columns", "state")
		query.Add("columns", "plugin_output")
		res, err := c.Get(ctx, "objects/host/"+host, query)
		if err != nil {
			return "unavailable", err.Error()
		}
		var obj checkmk.DomainObject
		if err := res.Decode(&obj); err != nil {
			return "unavailable", err.Error()
		}
		output, _ := obj.Extensions["plugin_output"].(string)
		return hostStateName(obj.Extensions["state"]), output
	}

	stateA, outputA := stateOf(p.HostA)
	stateB, outputB := stateOf(p.HostB)
	verdict := "States differ"
	if stateA == stateB {
		verdict = "States match"
	}
	return tools.Textf("🆚 **Host State Comparison**\n\n"+
		"**%s**: %s\n   %s\n\n**%s**: %s\n   %s\n\n%s",
		p.HostA, stateA, outputA, p.HostB, stateB, outputB, verdict)
}
