package handlers

import (
	"context"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// ServiceGroupTools manages service groups including bulk operations.
func ServiceGroupTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_service_groups",
			"🗂️ List service groups - Show all configured service groups",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listGroups(ctx, c, "service_group_config", "🗂️ **Service Groups**")
			}),
		// Alias of vibemk_get_service_groups, both names are in use by clients.
		tools.Func("vibemk_list_service_groups",
			"📋 List service groups - Show all configured service groups",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listGroups(ctx, c, "service_group_config", "🗂️ **Service Groups**")
			}),
		tools.Func("vibemk_get_service_group",
			"🗂️ Service group details - Show a single service group",
			func(ctx context.Context, p groupNameParams) tools.Result {
				res, err := c.Get(ctx, "objects/service_group_config/"+p.Name, nil)
				if err != nil {
					return apiError(err)
				}
				var obj checkmk.DomainObject
				if err := res.Decode(&obj); err != nil {
					return tools.Error("Failed to retrieve service group", err.Error())
				}
				return tools.Textf("🗂️ **Service Group: %s**\n\nAlias: %s",
					obj.ID, obj.StringExt("alias", "-"))
			}),
		tools.Func("vibemk_create_service_group",
			"➕ Create service group - Add a new service group",
			func(ctx context.Context, p groupParams) tools.Result {
				return createGroup(ctx, c, "service_group_config", "Service Group", p)
			}),
		tools.Func("vibemk_update_service_group",
			"✏️ Update service group - Change the alias of a service group",
			func(ctx context.Context, p groupParams) tools.Result {
				return updateGroup(ctx, c, "service_group_config", "Service Group", p)
			}),
		tools.Func("vibemk_delete_service_group",
			"🗑️ Delete service group - Remove a service group",
			func(ctx context.Context, p groupNameParams) tools.Result {
				return deleteGroup(ctx, c, "service_group_config", "Service Group", p.Name)
			}),
		tools.Func("vibemk_bulk_create_service_groups",
			"➕ Bulk create service groups - Add multiple service groups at once",
			func(ctx context.Context, p bulkGroupsParams) tools.Result {
				return bulkCreateServiceGroups(ctx, c, p.Entries)
			}),
		tools.Func("vibemk_bulk_update_service_groups",
			"✏️ Bulk update service groups - Change aliases of multiple service groups at once",
			func(ctx context.Context, p bulkGroupsParams) tools.Result {
				return bulkUpdateServiceGroups(ctx, c, p.Entries)
			}),
		tools.Func("vibemk_bulk_delete_service_groups",
			"🗑️ Bulk delete service groups - Remove multiple service groups at once",
			func(ctx context.Context, p bulkGroupNamesParams) tools.Result {
				return bulkDeleteServiceGroups(ctx, c, p.Names)
			}),
	}
}

type bulkGroupsParams struct {
	Entries []groupParams `json:"entries" description:"Groups to create, each with name and alias"`
}

type bulkGroupNamesParams struct {
	Names []string `json:"names" description:"Group names to delete"`
}

func bulkCreateServiceGroups(ctx context.Context, c *checkmk.Client, entries []groupParams) tools.Result {
	if len(entries) == 0 {
		return tools.Error("No groups given", "Provide at least one group entry.")
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{"name": e.Name, "alias": e.Alias})
	}
	body := map[string]any{"entries": items}
	if _, err := c.Post(ctx, "domain-types/service_group_config/actions/bulk-create/invoke", body); err != nil {
		return apiError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return tools.Textf("✅ **Service Groups Created** (%d)\n\n%s%s",
		len(entries), strings.Join(names, ", "), activateReminder)
}

func bulkUpdateServiceGroups(ctx context.Context, c *checkmk.Client, entries []groupParams) tools.Result {
	if len(entries) == 0 {
		return tools.Error("No groups given", "Provide at least one group entry.")
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"name":       e.Name,
			"attributes": map[string]any{"alias": e.Alias},
		})
	}
	body := map[string]any{"entries": items}
	if _, err := c.Put(ctx, "domain-types/service_group_config/actions/bulk-update/invoke", body, nil); err != nil {
		return apiError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return tools.Textf("✅ **Service Groups Updated** (%d)\n\n%s%s",
		len(entries), strings.Join(names, ", "), activateReminder)
}

func bulkDeleteServiceGroups(ctx context.Context, c *checkmk.Client, names []string) tools.Result {
	if len(names) == 0 {
		return tools.Error("No names given", "Provide at least one group name.")
	}
	body := map[string]any{"entries": names}
	if _, err := c.Post(ctx, "domain-types/service_group_config/actions/bulk-delete/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("🗑️ **Service Groups Deleted** (%d)\n\n%s%s",
		len(names), strings.Join(names, ", "), activateReminder)
}
