package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/literal"
	"github.com/vibemk/vibemk-go/tools"
)

// RuleTools covers rule management: CRUD, ordering, and the backup/restore
// pair built on the literal codec.
func RuleTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_rulesets",
			"📋 List rulesets - Show available rulesets with optional search filter",
			func(ctx context.Context, p getRulesetsParams) tools.Result {
				return getRulesets(ctx, c, p)
			}),
		tools.Func("vibemk_get_ruleset",
			"📋 Get ruleset - Show the rules configured in a specific ruleset",
			func(ctx context.Context, p rulesetNameParams) tools.Result {
				return getRuleset(ctx, c, p)
			}),
		tools.Func("vibemk_create_rule",
			"➕ Create rule - Add a monitoring rule to a ruleset (rule_config is converted to CheckMK's Python literal format)",
			func(ctx context.Context, p createRuleParams) tools.Result {
				return createRule(ctx, c, p)
			}),
		tools.Func("vibemk_update_rule",
			"✏️ Update rule - Modify value, conditions, comment or disabled state of a rule",
			func(ctx context.Context, p updateRuleParams) tools.Result {
				return updateRule(ctx, c, p)
			}),
		tools.Func("vibemk_delete_rule",
			"🗑️ Delete rule - Remove a rule by ID",
			func(ctx context.Context, p ruleIDParams) tools.Result {
				return deleteRule(ctx, c, p)
			}),
		tools.Func("vibemk_move_rule",
			"↕️ Move rule - Change rule position within its ruleset",
			func(ctx context.Context, p moveRuleParams) tools.Result {
				return moveRule(ctx, c, p)
			}),
		tools.Func("vibemk_backup_ruleset",
			"💾 Backup ruleset - Export all rules of a ruleset as JSON, decoding value_raw into structured values",
			func(ctx context.Context, p rulesetNameParams) tools.Result {
				return backupRuleset(ctx, c, p)
			}),
		tools.Func("vibemk_restore_ruleset",
			"♻️ Restore ruleset - Re-create rules from a backup document produced by vibemk_backup_ruleset",
			func(ctx context.Context, p restoreRulesetParams) tools.Result {
				return restoreRuleset(ctx, c, p)
			}),
	}
}

type getRulesetsParams struct {
	Search string `json:"search,omitempty" description:"Filter rulesets by name fragment"`
}

type rulesetNameParams struct {
	RulesetName string `json:"ruleset_name" description:"Name of the ruleset, e.g. checkgroup_parameters:filesystem"`
}

type createRuleParams struct {
	RulesetName string          `json:"ruleset_name" description:"Name of the ruleset the rule belongs to"`
	RuleConfig  json.RawMessage `json:"rule_config,omitempty" description:"Rule value as JSON; converted to CheckMK's Python literal format"`
	ValueRaw    string          `json:"value_raw,omitempty" description:"Pre-formatted Python literal value; takes priority over rule_config"`
	Conditions  map[string]any  `json:"conditions,omitempty" description:"Rule conditions (host_name, host_tags, service_description, ...)"`
	Comment     string          `json:"comment,omitempty" description:"Comment stored with the rule"`
	Folder      string          `json:"folder,omitempty" description:"Folder path, defaults to /"`
}

type updateRuleParams struct {
	RuleID     string          `json:"rule_id" description:"ID of the rule to update"`
	RuleConfig json.RawMessage `json:"rule_config,omitempty" description:"New rule value as JSON"`
	ValueRaw   string          `json:"value_raw,omitempty" description:"New pre-formatted Python literal value; takes priority over rule_config"`
	Conditions map[string]any  `json:"conditions,omitempty" description:"New rule conditions"`
	Comment    *string         `json:"comment,omitempty" description:"New comment"`
	Disabled   *bool           `json:"disabled,omitempty" description:"Disable or enable the rule"`
}

type ruleIDParams struct {
	RuleID string `json:"rule_id" description:"ID of the rule"`
}

type moveRuleParams struct {
	RuleID       string `json:"rule_id" description:"ID of the rule to move"`
	Position     string `json:"position,omitempty" enum:"top,bottom,before,after" description:"Target position, defaults to top"`
	TargetRuleID string `json:"target_rule_id,omitempty" description:"Reference rule for before/after positioning"`
}

type restoreRulesetParams struct {
	RulesetName string            `json:"ruleset_name" description:"Ruleset to restore into"`
	Rules       []ruleBackupEntry `json:"rules" description:"Backup entries produced by vibemk_backup_ruleset"`
}

// ruleBackupEntry is one rule in a backup document. Value holds the parsed
// literal when the backup could decode value_raw; ValueRaw always holds the
// original literal string.
type ruleBackupEntry struct {
	RuleID     string         `json:"rule_id,omitempty"`
	ValueRaw   string         `json:"value_raw,omitempty"`
	Value      any            `json:"value,omitempty"`
	Conditions map[string]any `json:"conditions,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Folder     string         `json:"folder,omitempty"`
	Ruleset    string         `json:"ruleset,omitempty"`
}

func getRulesets(ctx context.Context, c *checkmk.Client, p getRulesetsParams) tools.Result {
	query := url.Values{}
	if p.Search != "" {
		query.Set("search", p.Search)
	}
	res, err := c.Get(ctx, "domain-types/ruleset/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve rulesets", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("📋 **No Rulesets Found**\n\nNo rulesets are available or match the search criteria.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Available Rulesets** (%d total):\n", len(coll.Value))
	shown := coll.Value
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, rs := range shown {
		fmt.Fprintf(&sb, "\n📋 **%s**\n   Title: %s\n   Help: %s\n",
			rs.ID,
			rs.StringExt("title", rs.ID),
			truncate(rs.StringExt("help", "No description"), 100))
	}
	if rest := len(coll.Value) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "\n... and %d more rulesets", rest)
	}
	return tools.Text(sb.String())
}

func getRuleset(ctx context.Context, c *checkmk.Client, p rulesetNameParams) tools.Result {
	rules, err := fetchRules(ctx, c, p.RulesetName)
	if err != nil {
		return apiError(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Ruleset: %s**\n\nRules (%d total):\n", p.RulesetName, len(rules))
	if len(rules) == 0 {
		sb.WriteString("\nNo rules configured in this ruleset")
	}
	shown := rules
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for i, rule := range shown {
		props := rule.MapExt("properties")
		status := "✅ Active"
		if disabled, _ := props["disabled"].(bool); disabled {
			status = "🔒 Disabled"
		}
		comment, _ := props["comment"].(string)
		if comment == "" {
			comment = "No comment"
		}
		fmt.Fprintf(&sb, "\n🔧 **Rule %d** (ID: %s)\n   Status: %s\n   Value: %s\n   Folder: %s\n   Conditions: %s\n   Comment: %s\n",
			i+1,
			rule.ID,
			status,
			rule.StringExt("value_raw", "No value"),
			rule.StringExt("folder", "/"),
			summarizeConditions(rule.MapExt("conditions")),
			comment)
	}
	if rest := len(rules) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "\n... and %d more rules", rest)
	}
	return tools.Text(sb.String())
}

// summarizeConditions compresses a conditions object into one line.
func summarizeConditions(conditions map[string]any) string {
	var parts []string
	if hostName, ok := conditions["host_name"].(map[string]any); ok {
		matchOn, _ := hostName["match_on"].([]any)
		operator, _ := hostName["operator"].(string)
		if operator == "" {
			operator = "unknown"
		}
		parts = append(parts, fmt.Sprintf("Hosts: %v (%s)", matchOn, operator))
	}
	if tags, ok := conditions["host_tags"].([]any); ok && len(tags) > 0 {
		parts = append(parts, fmt.Sprintf("Tags: %d conditions", len(tags)))
	}
	if labels, ok := conditions["host_label_groups"].([]any); ok && len(labels) > 0 {
		parts = append(parts, fmt.Sprintf("Labels: %d conditions", len(labels)))
	}
	if len(parts) == 0 {
		return "All hosts"
	}
	return strings.Join(parts, ", ")
}

// ruleValueRaw picks the outgoing value_raw: an explicit literal wins,
// otherwise the JSON rule_config is run through the codec.
func ruleValueRaw(valueRaw string, ruleConfig json.RawMessage) (string, error) {
	if valueRaw != "" {
		return valueRaw, nil
	}
	v, err := literal.DecodeJSON(ruleConfig)
	if err != nil {
		return "", fmt.Errorf("invalid rule_config: %w", err)
	}
	return literal.Serialize(v), nil
}

func createRule(ctx context.Context, c *checkmk.Client, p createRuleParams) tools.Result {
	if p.ValueRaw == "" && len(p.RuleConfig) == 0 {
		return tools.Error("Missing parameter",
			"Either `value_raw` or `rule_config` is required.\n\n"+
				"Use `value_raw` for complex Python-literal values (checkgroup_parameters, etc.).\n"+
				"Use `rule_config` for simple values (strings, numbers, simple dicts).")
	}

	valueRaw, err := ruleValueRaw(p.ValueRaw, p.RuleConfig)
	if err != nil {
		return tools.Error("Invalid rule value", err.Error())
	}

	folder := p.Folder
	if folder == "" {
		folder = "/"
	}
	conditions := p.Conditions
	if conditions == nil {
		conditions = map[string]any{}
	}
	properties := map[string]any{"disabled": false}
	if p.Comment != "" {
		properties["comment"] = p.Comment
	}

	body := map[string]any{
		"properties": properties,
		"value_raw":  valueRaw,
		"conditions": conditions,
		"ruleset":    p.RulesetName,
		"folder":     folderToAPI(folder),
	}
	res, err := c.Post(ctx, "domain-types/rule/collections/all", body)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Rule creation failed", err.Error())
	}

	return tools.Textf("✅ **Rule Created Successfully**\n\n"+
		"Ruleset: %s\nRule ID: %s\nFolder: %s\nValue (raw): `%s`\nComment: %s%s",
		p.RulesetName, obj.ID, folder, valueRaw, p.Comment, activateReminder)
}

func updateRule(ctx context.Context, c *checkmk.Client, p updateRuleParams) tools.Result {
	body := map[string]any{}
	if p.ValueRaw != "" || len(p.RuleConfig) > 0 {
		valueRaw, err := ruleValueRaw(p.ValueRaw, p.RuleConfig)
		if err != nil {
			return tools.Error("Invalid rule value", err.Error())
		}
		body["value_raw"] = valueRaw
	}
	if p.Conditions != nil {
		body["conditions"] = p.Conditions
	}
	properties := map[string]any{}
	if p.Comment != nil {
		properties["comment"] = *p.Comment
	}
	if p.Disabled != nil {
		properties["disabled"] = *p.Disabled
	}
	if len(properties) > 0 {
		body["properties"] = properties
	}
	if len(body) == 0 {
		return tools.Error("No data to update", "At least one field must be provided")
	}

	updated := make([]string, 0, len(body))
	for k := range body {
		updated = append(updated, k)
	}

	_, err := c.Put(ctx, "objects/rule/"+p.RuleID, body, ifMatchAny)
	if err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Rule Updated Successfully**\n\nRule ID: %s\nUpdated fields: %s%s",
		p.RuleID, strings.Join(updated, ", "), activateReminder)
}

func deleteRule(ctx context.Context, c *checkmk.Client, p ruleIDParams) tools.Result {
	if _, err := c.Delete(ctx, "objects/rule/"+p.RuleID); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Rule Deleted Successfully**\n\nRule ID: %s\n\n"+
		"📝 **Next Steps:**\n"+
		"1️⃣ Use 'vibemk_get_pending_changes' to review the deletion\n"+
		"2️⃣ Use 'vibemk_activate_changes' to apply the configuration\n\n"+
		"💡 **Important:** The rule is only marked for deletion until you activate changes!",
		p.RuleID)
}

func moveRule(ctx context.Context, c *checkmk.Client, p moveRuleParams) tools.Result {
	position := p.Position
	if position == "" {
		position = "top"
	}
	if (position == "before" || position == "after") && p.TargetRuleID == "" {
		return tools.Error("Missing parameter", "target_rule_id is required for before/after positioning")
	}

	body := map[string]any{"position": position}
	if p.TargetRuleID != "" {
		body["target_rule"] = p.TargetRuleID
	}
	if _, err := c.Post(ctx, "objects/rule/"+p.RuleID+"/actions/move/invoke", body); err != nil {
		return apiError(err)
	}

	text := fmt.Sprintf("✅ **Rule Moved Successfully**\n\nRule ID: %s\nNew Position: %s\n", p.RuleID, position)
	if p.TargetRuleID != "" {
		text += fmt.Sprintf("Target Rule: %s\n", p.TargetRuleID)
	}
	return tools.Text(text + activateReminder)
}

func backupRuleset(ctx context.Context, c *checkmk.Client, p rulesetNameParams) tools.Result {
	rules, err := fetchRules(ctx, c, p.RulesetName)
	if err != nil {
		return apiError(err)
	}
	if len(rules) == 0 {
		return tools.Textf("📋 **Ruleset Backup: %s**\n\nNo rules found in this ruleset.", p.RulesetName)
	}

	entries := make([]ruleBackupEntry, 0, len(rules))
	unparsed := 0
	for _, rule := range rules {
		entry := ruleBackupEntry{
			RuleID:     rule.ID,
			ValueRaw:   rule.StringExt("value_raw", ""),
			Conditions: rule.MapExt("conditions"),
			Properties: rule.MapExt("properties"),
			Folder:     folderFromAPI(rule.StringExt("folder", "~")),
			Ruleset:    rule.StringExt("ruleset", p.RulesetName),
		}
		// Decode the literal so the backup holds a structured value; the
		// raw string is kept alongside as the source of truth.
		if entry.ValueRaw != "" {
			if v, err := literal.Parse(entry.ValueRaw); err == nil {
				entry.Value = v
			} else {
				unparsed++
			}
		}
		entries = append(entries, entry)
	}

	header := fmt.Sprintf("📋 **Ruleset Backup: %s**\n\nRules: %d", p.RulesetName, len(rules))
	if unparsed > 0 {
		header += fmt.Sprintf("\n⚠️ %d value_raw literal(s) could not be parsed and are kept as raw strings only", unparsed)
	}
	return tools.TextWithJSON(header, entries)
}

func restoreRuleset(ctx context.Context, c *checkmk.Client, p restoreRulesetParams) tools.Result {
	if len(p.Rules) == 0 {
		return tools.Error("Missing parameter", "rules must contain at least one backup entry")
	}

	created := 0
	var failures []string
	for i, entry := range p.Rules {
		valueRaw := entry.ValueRaw
		if valueRaw == "" && entry.Value != nil {
			valueRaw = literal.Serialize(entry.Value)
		}
		if valueRaw == "" {
			failures = append(failures, fmt.Sprintf("entry %d: no value_raw or value", i+1))
			continue
		}
		properties := entry.Properties
		if properties == nil {
			properties = map[string]any{"disabled": false}
		}
		conditions := entry.Conditions
		if conditions == nil {
			conditions = map[string]any{}
		}
		body := map[string]any{
			"properties": properties,
			"value_raw":  valueRaw,
			"conditions": conditions,
			"ruleset":    p.RulesetName,
			"folder":     folderToAPI(entry.Folder),
		}
		if _, err := c.Post(ctx, "domain-types/rule/collections/all", body); err != nil {
			failures = append(failures, fmt.Sprintf("entry %d: %s", i+1, err))
			continue
		}
		created++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "♻️ **Ruleset Restore: %s**\n\nRules created: %d of %d", p.RulesetName, created, len(p.Rules))
	for _, f := range failures {
		sb.WriteString("\n- " + f)
	}
	sb.WriteString(activateReminder)
	result := tools.Text(sb.String())
	result.IsError = created == 0
	return result
}

func fetchRules(ctx context.Context, c *checkmk.Client, rulesetName string) ([]checkmk.DomainObject, error) {
	query := url.Values{}
	query.Set("ruleset_name", rulesetName)
	res, err := c.Get(ctx, "domain-types/rule/collections/all", query)
	if err != nil {
		return nil, err
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return nil, err
	}
	return coll.Value, nil
}
