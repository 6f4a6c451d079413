package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// RulesetTools covers ruleset discovery beyond the plain listing in
// RuleTools: fulltext search and a combined ruleset-plus-rules view.
func RulesetTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_search_rulesets",
			"🔍 Search rulesets - Fulltext search over ruleset names and titles",
			func(ctx context.Context, p searchRulesetsParams) tools.Result {
				return searchRulesets(ctx, c, p.Search)
			}),
		tools.Func("vibemk_show_ruleset",
			"📋 Show ruleset - Display a ruleset together with all its rules",
			func(ctx context.Context, p rulesetNameParams) tools.Result {
				return showRuleset(ctx, c, p.RulesetName)
			}),
		tools.Func("vibemk_list_rulesets",
			"📋 List rulesets - Show available rulesets with basic information",
			func(ctx context.Context, p listRulesetsParams) tools.Result {
				return listRulesets(ctx, c, p)
			}),
		tools.Func("vibemk_get_ruleset_info",
			"ℹ️ Ruleset info - Show metadata of a single ruleset",
			func(ctx context.Context, p rulesetNameParams) tools.Result {
				return rulesetInfo(ctx, c, p.RulesetName)
			}),
	}
}

type searchRulesetsParams struct {
	Search string `json:"search" description:"Substring to match against ruleset names and titles"`
}

type listRulesetsParams struct {
	Limit          int  `json:"limit,omitempty" description:"Maximum number of rulesets to show, defaults to 50"`
	ShowDeprecated bool `json:"show_deprecated,omitempty" description:"Include deprecated rulesets"`
}

func listRulesets(ctx context.Context, c *checkmk.Client, p listRulesetsParams) tools.Result {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	query := url.Values{}
	if p.ShowDeprecated {
		query.Set("deprecated", "true")
	}
	res, err := c.Get(ctx, "domain-types/ruleset/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve rulesets", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Rulesets** (%d total):\n\n", len(coll.Value))
	for i, rs := range coll.Value {
		if i >= limit {
			fmt.Fprintf(&sb, "\n... and %d more. Raise the limit or use 'vibemk_search_rulesets'.\n",
				len(coll.Value)-limit)
			break
		}
		fmt.Fprintf(&sb, "- **%s**: %s (%v rules)\n",
			rs.ID, rs.StringExt("title", "-"), rs.Extensions["number_of_rules"])
	}
	return tools.Text(sb.String())
}

func searchRulesets(ctx context.Context, c *checkmk.Client, search string) tools.Result {
	query := url.Values{}
	query.Set("fulltext", search)
	res, err := c.Get(ctx, "domain-types/ruleset/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to search rulesets", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Textf("🔍 **No Rulesets Found**\n\nNo ruleset matches %q.", search)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 **Rulesets matching %q** (%d):\n\n", search, len(coll.Value))
	for _, rs := range coll.Value {
		fmt.Fprintf(&sb, "- **%s**: %s (%v rules)\n",
			rs.ID, rs.StringExt("title", "-"), rs.Extensions["number_of_rules"])
	}
	return tools.Text(sb.String())
}

func showRuleset(ctx context.Context, c *checkmk.Client, name string) tools.Result {
	res, err := c.Get(ctx, "objects/ruleset/"+name, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve ruleset", err.Error())
	}

	rules, rulesErr := fetchRules(ctx, c, name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Ruleset: %s**\n\n%s\n\n", obj.ID, obj.StringExt("title", "-"))
	if rulesErr != nil {
		fmt.Fprintf(&sb, "⚠️ Rules could not be loaded: %v\n", rulesErr)
		return tools.Text(sb.String())
	}
	if len(rules) == 0 {
		sb.WriteString("No rules configured.\n")
		return tools.Text(sb.String())
	}
	fmt.Fprintf(&sb, "Rules (%d):\n\n", len(rules))
	for i, r := range rules {
		fmt.Fprintf(&sb, "**%d.** `%s`\n", i+1, r.ID)
		if folder := r.StringExt("folder", ""); folder != "" {
			fmt.Fprintf(&sb, "   Folder: %s\n", folderFromAPI(folder))
		}
		if raw := r.StringExt("value_raw", ""); raw != "" {
			fmt.Fprintf(&sb, "   Value: `%s`\n", truncate(raw, 200))
		}
	}
	return tools.Text(sb.String())
}

func rulesetInfo(ctx context.Context, c *checkmk.Client, name string) tools.Result {
	res, err := c.Get(ctx, "objects/ruleset/"+name, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve ruleset", err.Error())
	}
	return tools.TextWithJSON(fmt.Sprintf("ℹ️ **Ruleset: %s**\n\n%s", obj.ID, obj.StringExt("title", "-")),
		obj.Extensions)
}
