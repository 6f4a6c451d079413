package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// GroupTools manages host groups and contact groups. Service groups live
// in their own file since they carry bulk operations.
func GroupTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_host_groups",
			"📦 List host groups - Show all configured host groups",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listGroups(ctx, c, "host_group_config", "📦 **Host Groups**")
			}),
		tools.Func("vibemk_create_host_group",
			"➕ Create host group - Add a new host group",
			func(ctx context.Context, p groupParams) tools.Result {
				return createGroup(ctx, c, "host_group_config", "Host Group", p)
			}),
		tools.Func("vibemk_update_host_group",
			"✏️ Update host group - Change the alias of a host group",
			func(ctx context.Context, p groupParams) tools.Result {
				return updateGroup(ctx, c, "host_group_config", "Host Group", p)
			}),
		tools.Func("vibemk_delete_host_group",
			"🗑️ Delete host group - Remove a host group",
			func(ctx context.Context, p groupNameParams) tools.Result {
				return deleteGroup(ctx, c, "host_group_config", "Host Group", p.Name)
			}),
		tools.Func("vibemk_get_contact_groups",
			"📇 List contact groups - Show all configured contact groups",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listGroups(ctx, c, "contact_group_config", "📇 **Contact Groups**")
			}),
		tools.Func("vibemk_create_contact_group",
			"➕ Create contact group - Add a new contact group",
			func(ctx context.Context, p groupParams) tools.Result {
				return createGroup(ctx, c, "contact_group_config", "Contact Group", p)
			}),
		tools.Func("vibemk_update_contact_group",
			"📝 Update contact group - Change the alias of a contact group",
			func(ctx context.Context, p updateContactGroupParams) tools.Result {
				return updateContactGroup(ctx, c, p)
			}),
		tools.Func("vibemk_delete_contact_group",
			"🗑️ Delete contact group - Remove a contact group",
			func(ctx context.Context, p groupNameParams) tools.Result {
				return deleteGroup(ctx, c, "contact_group_config", "Contact Group", p.Name)
			}),
		tools.Func("vibemk_add_user_to_group",
			"👥 Add user to contact group - Assign a user to a contact group",
			func(ctx context.Context, p userGroupParams) tools.Result {
				return setUserGroupMembership(ctx, c, p.Username, p.GroupName, true)
			}),
		tools.Func("vibemk_remove_user_from_group",
			"👥 Remove user from contact group - Take a user out of a contact group",
			func(ctx context.Context, p userGroupParams) tools.Result {
				return setUserGroupMembership(ctx, c, p.Username, p.GroupName, false)
			}),
	}
}

type groupParams struct {
	Name  string `json:"name" description:"Group name"`
	Alias string `json:"alias" description:"Display alias"`
}

type groupNameParams struct {
	Name string `json:"name" description:"Group name"`
}

type updateContactGroupParams struct {
	Name  string `json:"name" description:"Contact group name"`
	Alias string `json:"alias" description:"New display alias"`
}

type userGroupParams struct {
	Username  string `json:"username" description:"Username"`
	GroupName string `json:"group_name" description:"Contact group name"`
}

// The three group families share one REST shape, only the domain type
// differs.
func listGroups(ctx context.Context, c *checkmk.Client, domainType, heading string) tools.Result {
	res, err := c.Get(ctx, "domain-types/"+domainType+"/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve groups", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d):\n\n", heading, len(coll.Value))
	for _, g := range coll.Value {
		fmt.Fprintf(&sb, "- **%s** (%s)\n", g.ID, g.StringExt("alias", "-"))
	}
	return tools.Text(sb.String())
}

func createGroup(ctx context.Context, c *checkmk.Client, domainType, label string, p groupParams) tools.Result {
	body := map[string]any{"name": p.Name, "alias": p.Alias}
	if _, err := c.Post(ctx, "domain-types/"+domainType+"/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **%s Created**\n\nName: %s\nAlias: %s%s", label, p.Name, p.Alias, activateReminder)
}

func updateGroup(ctx context.Context, c *checkmk.Client, domainType, label string, p groupParams) tools.Result {
	body := map[string]any{"alias": p.Alias}
	if _, err := c.Put(ctx, "objects/"+domainType+"/"+p.Name, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **%s Updated**\n\nName: %s\nAlias: %s%s", label, p.Name, p.Alias, activateReminder)
}

func updateContactGroup(ctx context.Context, c *checkmk.Client, p updateContactGroupParams) tools.Result {
	return updateGroup(ctx, c, "contact_group_config", "Contact Group",
		groupParams{Name: p.Name, Alias: p.Alias})
}

// Membership lives on the user object, not on the group.
func setUserGroupMembership(ctx context.Context, c *checkmk.Client, username, groupName string, add bool) tools.Result {
	res, err := c.Get(ctx, "objects/user_config/"+username, nil)
	if err != nil {
		return apiError(err)
	}
	var user checkmk.DomainObject
	if err := res.Decode(&user); err != nil {
		return tools.Error("Failed to retrieve user", err.Error())
	}

	groups := []string{}
	if raw, ok := user.Extensions["contactgroups"].([]any); ok {
		for _, g := range raw {
			if name, ok := g.(string); ok && name != groupName {
				groups = append(groups, name)
			}
		}
	}
	if add {
		groups = append(groups, groupName)
	}

	body := map[string]any{"contactgroups": groups}
	if _, err := c.Put(ctx, "objects/user_config/"+username, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	verb := "added to"
	if !add {
		verb = "removed from"
	}
	return tools.Textf("✅ **Membership Updated**\n\nUser %s %s contact group %s.\nGroups now: %s%s",
		username, verb, groupName, strings.Join(groups, ", "), activateReminder)
}

func deleteGroup(ctx context.Context, c *checkmk.Client, domainType, label, name string) tools.Result {
	if _, err := c.Delete(ctx, "objects/"+domainType+"/"+name); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **%s Deleted**\n\nName: %s%s", label, name, activateReminder)
}
