package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// UserTools manages CheckMK user accounts.
func UserTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_users",
			"👥 List users - Show all configured user accounts",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listUsers(ctx, c)
			}),
		tools.Func("vibemk_get_user",
			"👤 User details - Show the configuration of a single user",
			func(ctx context.Context, p usernameParams) tools.Result {
				return getUser(ctx, c, p.Username)
			}),
		tools.Func("vibemk_create_user",
			"➕ Create user - Add a new user account",
			func(ctx context.Context, p createUserParams) tools.Result {
				return createUser(ctx, c, p)
			}),
		tools.Func("vibemk_update_user",
			"✏️ Update user - Change attributes of a user account",
			func(ctx context.Context, p updateUserParams) tools.Result {
				return updateUser(ctx, c, p)
			}),
		tools.Func("vibemk_delete_user",
			"🗑️ Delete user - Remove a user account",
			func(ctx context.Context, p usernameParams) tools.Result {
				if _, err := c.Delete(ctx, "objects/user_config/"+p.Username); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **User Deleted**\n\nUsername: %s%s", p.Username, activateReminder)
			}),
		tools.Func("vibemk_set_user_password",
			"🔑 Set password - Change the password of a user account",
			func(ctx context.Context, p setPasswordParams) tools.Result {
				body := map[string]any{
					"auth_option": map[string]any{
						"auth_type": "password",
						"password":  p.Password,
					},
				}
				if _, err := c.Put(ctx, "objects/user_config/"+p.Username, body, ifMatchAny); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Password Changed**\n\nUsername: %s%s", p.Username, activateReminder)
			}),
		tools.Func("vibemk_disable_user",
			"🚫 Disable user - Lock a user account from logging in",
			func(ctx context.Context, p usernameParams) tools.Result {
				return setUserLocked(ctx, c, p.Username, true)
			}),
		tools.Func("vibemk_enable_user",
			"✅ Enable user - Unlock a previously disabled user account",
			func(ctx context.Context, p usernameParams) tools.Result {
				return setUserLocked(ctx, c, p.Username, false)
			}),
		tools.Func("vibemk_bulk_delete_users",
			"🗑️ Bulk delete users - Remove multiple user accounts at once",
			func(ctx context.Context, p bulkUsernamesParams) tools.Result {
				return bulkDeleteUsers(ctx, c, p.Usernames)
			}),
		tools.Func("vibemk_get_user_attributes",
			"📋 User attributes - Show the raw attribute set of a user",
			func(ctx context.Context, p usernameParams) tools.Result {
				res, err := c.Get(ctx, "objects/user_config/"+p.Username, nil)
				if err != nil {
					return apiError(err)
				}
				var obj checkmk.DomainObject
				if err := res.Decode(&obj); err != nil {
					return tools.Error("Failed to retrieve user", err.Error())
				}
				return tools.TextWithJSON(fmt.Sprintf("📋 **Attributes of %s**", p.Username), obj.Extensions)
			}),
	}
}

type usernameParams struct {
	Username string `json:"username" description:"User account name"`
}

type createUserParams struct {
	Username     string   `json:"username" description:"User account name"`
	FullName     string   `json:"fullname" description:"Full name shown in the UI"`
	Password     string   `json:"password,omitempty" description:"Initial password, omit for automation users"`
	Email        string   `json:"email,omitempty" description:"Contact email address"`
	Roles        []string `json:"roles,omitempty" description:"Role IDs, e.g. admin, user, guest"`
	ContactGroups []string `json:"contact_groups,omitempty" description:"Contact groups the user belongs to"`
}

type updateUserParams struct {
	Username      string   `json:"username" description:"User account name"`
	FullName      string   `json:"fullname,omitempty" description:"New full name"`
	Email         string   `json:"email,omitempty" description:"New contact email address"`
	Roles         []string `json:"roles,omitempty" description:"New role IDs"`
	ContactGroups []string `json:"contact_groups,omitempty" description:"New contact groups"`
}

type setPasswordParams struct {
	Username string `json:"username" description:"User account name"`
	Password string `json:"password" description:"New password"`
}

type bulkUsernamesParams struct {
	Usernames []string `json:"usernames" description:"User account names to delete"`
}

func listUsers(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/user_config/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve users", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 **Users** (%d):\n\n", len(coll.Value))
	for _, u := range coll.Value {
		state := ""
		if u.BoolExt("disable_login") {
			state = " 🚫 disabled"
		}
		fmt.Fprintf(&sb, "👤 **%s** (%s)%s\n", u.ID, u.StringExt("fullname", "no full name"), state)
	}
	return tools.Text(sb.String())
}

func getUser(ctx context.Context, c *checkmk.Client, username string) tools.Result {
	res, err := c.Get(ctx, "objects/user_config/"+username, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve user", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 **User: %s**\n\n", obj.ID)
	fmt.Fprintf(&sb, "Full name: %s\n", obj.StringExt("fullname", "-"))
	if email, ok := obj.MapExt("contact_options")["email"].(string); ok && email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", email)
	}
	if roles, ok := obj.Extensions["roles"].([]any); ok && len(roles) > 0 {
		parts := make([]string, 0, len(roles))
		for _, r := range roles {
			parts = append(parts, fmt.Sprintf("%v", r))
		}
		fmt.Fprintf(&sb, "Roles: %s\n", strings.Join(parts, ", "))
	}
	if obj.BoolExt("disable_login") {
		sb.WriteString("Login: 🚫 disabled\n")
	}
	return tools.Text(sb.String())
}

func createUser(ctx context.Context, c *checkmk.Client, p createUserParams) tools.Result {
	body := map[string]any{
		"username": p.Username,
		"fullname": p.FullName,
	}
	if p.Password != "" {
		body["auth_option"] = map[string]any{
			"auth_type": "password",
			"password":  p.Password,
		}
	}
	if p.Email != "" {
		body["contact_options"] = map[string]any{"email": p.Email}
	}
	if len(p.Roles) > 0 {
		body["roles"] = p.Roles
	}
	if len(p.ContactGroups) > 0 {
		body["contactgroups"] = p.ContactGroups
	}
	if _, err := c.Post(ctx, "domain-types/user_config/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **User Created**\n\nUsername: %s\nFull name: %s%s",
		p.Username, p.FullName, activateReminder)
}

func updateUser(ctx context.Context, c *checkmk.Client, p updateUserParams) tools.Result {
	body := map[string]any{}
	if p.FullName != "" {
		body["fullname"] = p.FullName
	}
	if p.Email != "" {
		body["contact_options"] = map[string]any{"email": p.Email}
	}
	if len(p.Roles) > 0 {
		body["roles"] = p.Roles
	}
	if len(p.ContactGroups) > 0 {
		body["contactgroups"] = p.ContactGroups
	}
	if len(body) == 0 {
		return tools.Error("Nothing to update", "Provide at least one attribute to change.")
	}
	if _, err := c.Put(ctx, "objects/user_config/"+p.Username, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **User Updated**\n\nUsername: %s%s", p.Username, activateReminder)
}

func setUserLocked(ctx context.Context, c *checkmk.Client, username string, locked bool) tools.Result {
	body := map[string]any{"disable_login": locked}
	if _, err := c.Put(ctx, "objects/user_config/"+username, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	if locked {
		return tools.Textf("🚫 **User Disabled**\n\nUsername: %s%s", username, activateReminder)
	}
	return tools.Textf("✅ **User Enabled**\n\nUsername: %s%s", username, activateReminder)
}

func bulkDeleteUsers(ctx context.Context, c *checkmk.Client, usernames []string) tools.Result {
	if len(usernames) == 0 {
		return tools.Error("No usernames given", "Provide at least one username to delete.")
	}
	var deleted, failed []string
	for _, name := range usernames {
		if _, err := c.Delete(ctx, "objects/user_config/"+name); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", name, err))
			continue
		}
		deleted = append(deleted, name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗑️ **Bulk User Deletion**\n\nDeleted (%d): %s\n", len(deleted), strings.Join(deleted, ", "))
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "Failed (%d):\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	sb.WriteString(activateReminder)
	return tools.Text(sb.String())
}
