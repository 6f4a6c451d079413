package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// NotificationTools covers notification rule inspection and contact checks.
func NotificationTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_notification_rules",
			"📢 Notification rules - Show the configured notification rules",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listNotificationRules(ctx, c)
			}),
		tools.Func("vibemk_test_notification",
			"🧪 Test notification - Check whether a contact can receive notifications",
			func(ctx context.Context, p testNotificationParams) tools.Result {
				return testNotification(ctx, c, p)
			}),
	}
}

type testNotificationParams struct {
	Contact string `json:"contact" description:"Contact (username) to check"`
	Message string `json:"message,omitempty" description:"Test message, informational only"`
}

func listNotificationRules(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/notification_rule/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve notification rules", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("📢 **No Notification Rules**\n\nOnly the builtin fallback notification applies.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📢 **Notification Rules** (%d):\n\n", len(coll.Value))
	for i, rule := range coll.Value {
		desc := rule.Title
		if props, ok := rule.MapExt("rule_config")["rule_properties"].(map[string]any); ok {
			if d, ok := props["description"].(string); ok && d != "" {
				desc = d
			}
		}
		if desc == "" {
			desc = rule.ID
		}
		fmt.Fprintf(&sb, "**%d.** %s (ID %s)\n", i+1, desc, rule.ID)
	}
	return tools.Text(sb.String())
}

// testNotification verifies the contact exists and has a delivery target.
// Actual delivery can only be triggered by the monitoring core itself.
func testNotification(ctx context.Context, c *checkmk.Client, p testNotificationParams) tools.Result {
	res, err := c.Get(ctx, "objects/user_config/"+p.Contact, nil)
	if err != nil {
		return apiError(err)
	}
	var user checkmk.DomainObject
	if err := res.Decode(&user); err != nil {
		return tools.Error("Failed to retrieve contact", err.Error())
	}

	email, _ := user.MapExt("contact_options")["email"].(string)
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧪 **Notification Check for %s**\n\n", p.Contact)
	if email != "" {
		fmt.Fprintf(&sb, "✅ Email target: %s\n", email)
	} else {
		sb.WriteString("⚠️ No email address configured, email notifications will not reach this contact.\n")
	}
	disabled, _ := user.MapExt("disable_notifications")["disable"].(bool)
	if disabled {
		sb.WriteString("❌ Notifications are disabled for this contact.\n")
	} else {
		sb.WriteString("✅ Notifications are enabled.\n")
	}
	if p.Message != "" {
		fmt.Fprintf(&sb, "\nTest message: %s\n", p.Message)
	}
	sb.WriteString("\nTo verify end-to-end delivery, trigger a check with 'vibemk_reschedule_check' on a service this contact is responsible for.")
	return tools.Text(sb.String())
}
