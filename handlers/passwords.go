package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// PasswordTools manages entries in the CheckMK password store. The store
// never returns secrets, so listings show metadata only.
func PasswordTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_passwords",
			"🔐 List passwords - Show all password store entries",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listPasswords(ctx, c)
			}),
		tools.Func("vibemk_create_password",
			"➕ Store password - Add a new password store entry",
			func(ctx context.Context, p createPasswordParams) tools.Result {
				return createPassword(ctx, c, p)
			}),
		tools.Func("vibemk_update_password",
			"✏️ Update password - Change a password store entry",
			func(ctx context.Context, p updatePasswordParams) tools.Result {
				return updatePassword(ctx, c, p)
			}),
		tools.Func("vibemk_delete_password",
			"🗑️ Delete password - Remove a password store entry",
			func(ctx context.Context, p passwordIDParams) tools.Result {
				if _, err := c.Delete(ctx, "objects/password/"+p.ID); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Password Deleted**\n\nID: %s%s", p.ID, activateReminder)
			}),
	}
}

type passwordIDParams struct {
	ID string `json:"id" description:"Password store entry ID"`
}

type createPasswordParams struct {
	ID       string `json:"id" description:"Password store entry ID"`
	Title    string `json:"title" description:"Display title"`
	Password string `json:"password" description:"The secret to store"`
	Comment  string `json:"comment,omitempty" description:"Optional comment"`
	Owner    string `json:"owner,omitempty" description:"Owning contact group, defaults to admin"`
}

type updatePasswordParams struct {
	ID       string `json:"id" description:"Password store entry ID"`
	Title    string `json:"title,omitempty" description:"New display title"`
	Password string `json:"password,omitempty" description:"New secret"`
	Comment  string `json:"comment,omitempty" description:"New comment"`
}

func listPasswords(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/password/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve passwords", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔐 **Password Store** (%d entries):\n\n", len(coll.Value))
	for _, p := range coll.Value {
		fmt.Fprintf(&sb, "🔐 **%s** (%s)", p.ID, p.StringExt("title", "-"))
		if comment := p.StringExt("comment", ""); comment != "" {
			fmt.Fprintf(&sb, " - %s", truncate(comment, 80))
		}
		sb.WriteString("\n")
	}
	return tools.Text(sb.String())
}

func createPassword(ctx context.Context, c *checkmk.Client, p createPasswordParams) tools.Result {
	owner := p.Owner
	if owner == "" {
		owner = "admin"
	}
	body := map[string]any{
		"ident":    p.ID,
		"title":    p.Title,
		"password": p.Password,
		"owner":    owner,
		"shared":   []string{},
	}
	if p.Comment != "" {
		body["comment"] = p.Comment
	}
	if _, err := c.Post(ctx, "domain-types/password/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Password Stored**\n\nID: %s\nTitle: %s%s", p.ID, p.Title, activateReminder)
}

func updatePassword(ctx context.Context, c *checkmk.Client, p updatePasswordParams) tools.Result {
	body := map[string]any{}
	if p.Title != "" {
		body["title"] = p.Title
	}
	if p.Password != "" {
		body["password"] = p.Password
	}
	if p.Comment != "" {
		body["comment"] = p.Comment
	}
	if len(body) == 0 {
		return tools.Error("Nothing to update", "Provide a title, password or comment.")
	}
	if _, err := c.Put(ctx, "objects/password/"+p.ID, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Password Updated**\n\nID: %s%s", p.ID, activateReminder)
}
