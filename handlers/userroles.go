package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// UserRoleTools manages roles and their permissions.
func UserRoleTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_list_user_roles",
			"🎭 List roles - Show all user roles",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listUserRoles(ctx, c)
			}),
		tools.Func("vibemk_show_user_role",
			"🎭 Role details - Show a role including its permissions",
			func(ctx context.Context, p roleIDParams) tools.Result {
				return getUserRole(ctx, c, p.RoleID)
			}),
		tools.Func("vibemk_create_user_role",
			"➕ Create role - Clone an existing role into a new one",
			func(ctx context.Context, p createRoleParams) tools.Result {
				body := map[string]any{"role_id": p.BasedOn}
				if p.NewRoleID != "" {
					body["new_role_id"] = p.NewRoleID
				}
				if p.NewAlias != "" {
					body["new_alias"] = p.NewAlias
				}
				if _, err := c.Post(ctx, "domain-types/user_role/collections/all", body); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Role Created**\n\nRole: %s (cloned from %s)%s",
					p.NewRoleID, p.BasedOn, activateReminder)
			}),
		tools.Func("vibemk_update_user_role",
			"✏️ Update role - Change alias or individual permissions of a role",
			func(ctx context.Context, p updateRoleParams) tools.Result {
				return updateUserRole(ctx, c, p)
			}),
		tools.Func("vibemk_delete_user_role",
			"🗑️ Delete role - Remove a custom role",
			func(ctx context.Context, p roleIDParams) tools.Result {
				if _, err := c.Delete(ctx, "objects/user_role/"+p.RoleID); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Role Deleted**\n\nRole: %s%s", p.RoleID, activateReminder)
			}),
	}
}

type roleIDParams struct {
	RoleID string `json:"role_id" description:"Role ID, e.g. admin or a custom role"`
}

type createRoleParams struct {
	BasedOn   string `json:"based_on" description:"Existing role to clone, e.g. user"`
	NewRoleID string `json:"new_role_id,omitempty" description:"ID for the new role"`
	NewAlias  string `json:"new_alias,omitempty" description:"Display alias for the new role"`
}

type updateRoleParams struct {
	RoleID      string            `json:"role_id" description:"Role to update"`
	NewAlias    string            `json:"new_alias,omitempty" description:"New display alias"`
	Permissions map[string]string `json:"permissions,omitempty" description:"Permission name to yes/no/default"`
}

func listUserRoles(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/user_role/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve roles", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎭 **User Roles** (%d):\n\n", len(coll.Value))
	for _, r := range coll.Value {
		kind := "custom"
		if r.BoolExt("builtin") {
			kind = "builtin"
		}
		fmt.Fprintf(&sb, "🎭 **%s** (%s, %s)\n", r.ID, r.StringExt("alias", "-"), kind)
	}
	return tools.Text(sb.String())
}

func getUserRole(ctx context.Context, c *checkmk.Client, roleID string) tools.Result {
	res, err := c.Get(ctx, "objects/user_role/"+roleID, nil)
	if err != nil {
		return apiError(err)
	}
	var obj checkmk.DomainObject
	if err := res.Decode(&obj); err != nil {
		return tools.Error("Failed to retrieve role", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎭 **Role: %s**\n\n", obj.ID)
	fmt.Fprintf(&sb, "Alias: %s\n", obj.StringExt("alias", "-"))
	fmt.Fprintf(&sb, "Builtin: %v\n", obj.BoolExt("builtin"))
	if perms, ok := obj.Extensions["permissions"].([]any); ok {
		fmt.Fprintf(&sb, "Permissions: %d granted\n", len(perms))
	}
	return tools.Text(sb.String())
}

func updateUserRole(ctx context.Context, c *checkmk.Client, p updateRoleParams) tools.Result {
	body := map[string]any{}
	if p.NewAlias != "" {
		body["new_alias"] = p.NewAlias
	}
	if len(p.Permissions) > 0 {
		body["new_permissions"] = p.Permissions
	}
	if len(body) == 0 {
		return tools.Error("Nothing to update", "Provide a new alias or permission changes.")
	}
	if _, err := c.Put(ctx, "objects/user_role/"+p.RoleID, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Role Updated**\n\nRole: %s%s", p.RoleID, activateReminder)
}
