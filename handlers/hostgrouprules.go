package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// Host grouping is driven by two rulesets: host_groups assigns hosts to
// host groups, host_contactgroups assigns contact groups. These tools wrap
// the generic rule operations so assignments can be managed without
// knowing the rule value format.
const (
	hostGroupsRuleset    = "host_groups"
	contactGroupsRuleset = "host_contactgroups"
)

// HostGroupRuleTools manages host grouping and contact assignment rules.
func HostGroupRuleTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_find_host_grouping_rulesets",
			"🔍 Find grouping rulesets - Discover rulesets for host group and contact group assignment",
			func(ctx context.Context, _ struct{}) tools.Result {
				return findGroupingRulesets(ctx, c)
			}),
		tools.Func("vibemk_create_host_hostgroup_rule",
			"🏠 Assign host groups - Create rules assigning matching hosts to host groups",
			func(ctx context.Context, p hostGroupingRuleParams) tools.Result {
				if len(p.HostGroups) == 0 {
					return tools.Error("No host groups given", "Provide at least one host group name.")
				}
				return createGroupingRules(ctx, c, hostGroupsRuleset, "host group", p.HostGroups, p)
			}),
		tools.Func("vibemk_create_host_contactgroup_rule",
			"📞 Assign contact groups - Create rules assigning contact groups to matching hosts",
			func(ctx context.Context, p hostGroupingRuleParams) tools.Result {
				if len(p.ContactGroups) == 0 {
					return tools.Error("No contact groups given", "Provide at least one contact group name.")
				}
				return createGroupingRules(ctx, c, contactGroupsRuleset, "contact group", p.ContactGroups, p)
			}),
		tools.Func("vibemk_get_example_rule_structures",
			"📚 Example rule structures - Show example arguments for host grouping rules",
			func(ctx context.Context, _ struct{}) tools.Result {
				return tools.Text(groupingRuleExamples)
			}),
		tools.Func("vibemk_get_hosts_in_group",
			"📦 Group members - List the hosts currently in a host group",
			func(ctx context.Context, p groupNameParams) tools.Result {
				return hostsInGroup(ctx, c, p.Name)
			}),
	}
}

type hostGroupingRuleParams struct {
	HostGroups     []string        `json:"host_groups,omitempty" description:"Host group names to assign"`
	ContactGroups  []string        `json:"contact_groups,omitempty" description:"Contact group names to assign"`
	HostConditions json.RawMessage `json:"host_conditions,omitempty" description:"Conditions matching hosts; empty matches all hosts"`
	Comment        string          `json:"comment,omitempty" description:"Rule comment"`
	Folder         string          `json:"folder,omitempty" description:"Folder the rules live in, defaults to /"`
}

const groupingRuleExamples = `📚 **Example Rule Structures**

Assign all hosts with the tag "prod" to the host group "production":

` + "```json" + `
{
  "host_groups": ["production"],
  "host_conditions": {
    "host_tags": [{"key": "criticality", "operator": "is", "value": "prod"}]
  },
  "comment": "Production hosts"
}
` + "```" + `

Assign the contact group "oncall" to hosts whose name starts with "db":

` + "```json" + `
{
  "contact_groups": ["oncall"],
  "host_conditions": {
    "host_name": {"match_on": ["db"], "operator": "one_of"}
  }
}
` + "```" + `

Empty host_conditions match every host.`

func findGroupingRulesets(ctx context.Context, c *checkmk.Client) tools.Result {
	query := url.Values{}
	query.Set("fulltext", "group")
	res, err := c.Get(ctx, "domain-types/ruleset/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve rulesets", err.Error())
	}

	var sb strings.Builder
	sb.WriteString("🔍 **Host Grouping Rulesets**\n\n")
	count := 0
	for _, rs := range coll.Value {
		if !strings.Contains(rs.ID, "group") {
			continue
		}
		count++
		fmt.Fprintf(&sb, "- `%s`: %s\n", rs.ID, rs.Title)
	}
	if count == 0 {
		return tools.Text("🔍 **No Grouping Rulesets**\n\nNo rulesets matching host grouping found.")
	}
	fmt.Fprintf(&sb, "\nAssignment tools use `%s` and `%s`.", hostGroupsRuleset, contactGroupsRuleset)
	return tools.Text(sb.String())
}

// createGroupingRules creates one rule per group since both rulesets take
// a single group name as their value.
func createGroupingRules(ctx context.Context, c *checkmk.Client, ruleset, label string, groups []string, p hostGroupingRuleParams) tools.Result {
	folder := p.Folder
	if folder == "" {
		folder = "/"
	}
	props := map[string]any{"disabled": false}
	if p.Comment != "" {
		props["comment"] = p.Comment
	}
	var conditions map[string]any
	if len(p.HostConditions) > 0 {
		if err := json.Unmarshal(p.HostConditions, &conditions); err != nil {
			return tools.Error("Invalid host conditions", err.Error())
		}
	}

	var created []string
	for _, group := range groups {
		body := map[string]any{
			"ruleset": ruleset,
			"folder":  folderToAPI(folder),
			// The rule value is the group name as a Python string literal.
			"value_raw":  "'" + group + "'",
			"properties": props,
		}
		if conditions != nil {
			body["conditions"] = conditions
		}
		res, err := c.Post(ctx, "domain-types/rule/collections/all", body)
		if err != nil {
			return apiError(err)
		}
		var obj checkmk.DomainObject
		if err := res.Decode(&obj); err != nil {
			return tools.Error("Failed to create rule", err.Error())
		}
		created = append(created, fmt.Sprintf("%s (rule %s)", group, obj.ID))
	}
	return tools.Textf("✅ **Assignment Rules Created**\n\nRuleset: %s\nAssigned %s(s):\n- %s%s",
		ruleset, label, strings.Join(created, "\n- "), activateReminder)
}

func hostsInGroup(ctx context.Context, c *checkmk.Client, groupName string) tools.Result {
	res, err := c.Get(ctx, "objects/hostgroup/"+groupName, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve group", err.Error())
	}
	members, _ := obj.Extensions["members"].([]any)
	if len(members) == 0 {
		return tools.Textf("📦 **Group %s**\n\nNo hosts currently in this group.", groupName)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 **Hosts in %s** (%d):\n\n", groupName, len(members))
	for _, m := range members {
		fmt.Fprintf(&sb, "- %v\n", m)
	}
	return tools.Text(sb.String())
}
