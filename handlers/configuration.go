package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// ConfigurationTools covers change activation.
func ConfigurationTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_activate_changes",
			"🚀 Activate changes - Apply all pending configuration changes",
			func(ctx context.Context, p activateParams) tools.Result {
				return activateChanges(ctx, c, p)
			}),
		tools.Func("vibemk_get_pending_changes",
			"📝 Pending changes - Show configuration changes waiting for activation",
			func(ctx context.Context, p struct{}) tools.Result {
				return pendingChanges(ctx, c)
			}),
	}
}

type activateParams struct {
	Sites        []string `json:"sites,omitempty" description:"Sites to activate on; empty activates everywhere"`
	ForceForeign bool     `json:"force_foreign_changes,omitempty" description:"Also activate changes made by other users"`
}

func activateChanges(ctx context.Context, c *checkmk.Client, p activateParams) tools.Result {
	body := map[string]any{
		"redirect":              false,
		"force_foreign_changes": p.ForceForeign,
	}
	if len(p.Sites) > 0 {
		body["sites"] = p.Sites
	}
	res, err := c.Post(ctx, "domain-types/activation_run/actions/activate-changes/invoke", body)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	activationID := "unknown"
	if err := res.Decode(&obj); err == nil && obj.ID != "" {
		activationID = obj.ID
	}
	return tools.Textf("🚀 **Changes Activated**\n\nActivation ID: %s\n\nThe monitoring core is reloading the configuration.", activationID)
}

func pendingChanges(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/activation_run/collections/pending_changes", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve pending changes", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("✅ **No Pending Changes**\n\nThe configuration is fully activated.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 **Pending Changes** (%d):\n\n", len(coll.Value))
	for _, change := range coll.Value {
		fmt.Fprintf(&sb, "- %s (by %s)\n",
			change.StringExt("text", change.ID),
			change.StringExt("user_id", "unknown"))
	}
	sb.WriteString("\nUse 'vibemk_activate_changes' to apply them.")
	return tools.Text(sb.String())
}
