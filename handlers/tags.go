package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// TagTools manages host tag groups.
func TagTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_host_tags",
			"🏷️ List tag groups - Show all host tag groups and their tags",
			func(ctx context.Context, _ struct{}) tools.Result {
				return listTagGroups(ctx, c)
			}),
		tools.Func("vibemk_create_host_tag",
			"🏷️ Create host tag - Add a new host tag group with its choices",
			func(ctx context.Context, p createTagGroupParams) tools.Result {
				return createTagGroup(ctx, c, p)
			}),
		tools.Func("vibemk_update_host_tag",
			"📝 Update host tag - Replace title, topic or tags of a tag group",
			func(ctx context.Context, p updateTagGroupParams) tools.Result {
				return updateTagGroup(ctx, c, p)
			}),
		tools.Func("vibemk_delete_host_tag",
			"🗑️ Delete host tag - Remove a host tag group",
			func(ctx context.Context, p deleteTagGroupParams) tools.Result {
				path := "objects/host_tag_group/" + p.TagID
				if p.Repair {
					// repair removes the tag from hosts still carrying it.
					path += "?repair=true"
				}
				if _, err := c.Delete(ctx, path); err != nil {
					return apiError(err)
				}
				return tools.Textf("✅ **Tag Group Deleted**\n\nID: %s%s", p.TagID, activateReminder)
			}),
	}
}

type deleteTagGroupParams struct {
	TagID  string `json:"tag_id" description:"Tag group ID to delete"`
	Repair bool   `json:"repair,omitempty" description:"Remove the tag from hosts still carrying it"`
}

type tagChoice struct {
	ID    string `json:"id" description:"Tag ID, empty for the none choice"`
	Title string `json:"title" description:"Tag title shown in the UI"`
}

type createTagGroupParams struct {
	TagID string      `json:"tag_id" description:"Tag group ID"`
	Title string      `json:"title" description:"Tag group title"`
	Topic string      `json:"topic,omitempty" description:"Topic grouping in the UI"`
	Help  string      `json:"help,omitempty" description:"Help text shown in the UI"`
	Tags  []tagChoice `json:"tags" description:"Tag choices of the group"`
}

type updateTagGroupParams struct {
	TagID  string      `json:"tag_id" description:"Tag group ID"`
	Title  string      `json:"title,omitempty" description:"New title"`
	Topic  string      `json:"topic,omitempty" description:"New topic"`
	Help   string      `json:"help,omitempty" description:"New help text"`
	Tags   []tagChoice `json:"tags,omitempty" description:"Replacement tag choices"`
	Repair bool        `json:"repair,omitempty" description:"Repair host assignments after the change"`
}

func tagChoicesToAPI(choices []tagChoice) []map[string]any {
	out := make([]map[string]any, 0, len(choices))
	for _, t := range choices {
		entry := map[string]any{"title": t.Title}
		if t.ID != "" {
			entry["id"] = t.ID
		} else {
			entry["id"] = nil
		}
		out = append(out, entry)
	}
	return out
}

func listTagGroups(ctx context.Context, c *checkmk.Client) tools.Result {
	res, err := c.Get(ctx, "domain-types/host_tag_group/collections/all", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve tag groups", err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏷️ **Host Tag Groups** (%d):\n\n", len(coll.Value))
	for _, g := range coll.Value {
		fmt.Fprintf(&sb, "🏷️ **%s** (%s)\n", g.ID, g.StringExt("topic", "no topic"))
		if tags, ok := g.Extensions["tags"].([]any); ok {
			for _, t := range tags {
				tm, _ := t.(map[string]any)
				id, _ := tm["id"].(string)
				if id == "" {
					id = "<none>"
				}
				title, _ := tm["title"].(string)
				fmt.Fprintf(&sb, "   - %s: %s\n", id, title)
			}
		}
	}
	return tools.Text(sb.String())
}

func createTagGroup(ctx context.Context, c *checkmk.Client, p createTagGroupParams) tools.Result {
	if len(p.Tags) == 0 {
		return tools.Error("No tags given", "A tag group needs at least one tag choice.")
	}
	body := map[string]any{
		"ident": p.TagID,
		"title": p.Title,
		"tags":  tagChoicesToAPI(p.Tags),
	}
	if p.Topic != "" {
		body["topic"] = p.Topic
	}
	if p.Help != "" {
		body["help"] = p.Help
	}
	if _, err := c.Post(ctx, "domain-types/host_tag_group/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Tag Group Created**\n\nID: %s\nTitle: %s\nTags: %d%s",
		p.TagID, p.Title, len(p.Tags), activateReminder)
}

func updateTagGroup(ctx context.Context, c *checkmk.Client, p updateTagGroupParams) tools.Result {
	body := map[string]any{}
	if p.Title != "" {
		body["title"] = p.Title
	}
	if p.Topic != "" {
		body["topic"] = p.Topic
	}
	if p.Help != "" {
		body["help"] = p.Help
	}
	if len(p.Tags) > 0 {
		body["tags"] = tagChoicesToAPI(p.Tags)
	}
	if len(body) == 0 {
		return tools.Error("Nothing to update", "Provide a title, topic or tag choices.")
	}
	if p.Repair {
		body["repair"] = true
	}
	if _, err := c.Put(ctx, "objects/host_tag_group/"+p.TagID, body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Tag Group Updated**\n\nID: %s%s", p.TagID, activateReminder)
}
