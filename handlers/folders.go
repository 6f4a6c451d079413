package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// FolderTools covers the WATO folder tree.
func FolderTools(c *checkmk.Client) []tools.Tool {
	return []tools.Tool{
		tools.Func("vibemk_get_folders",
			"📁 List folders - Show the folder tree",
			func(ctx context.Context, p getFoldersParams) tools.Result {
				return listFolders(ctx, c, p)
			}),
		tools.Func("vibemk_create_folder",
			"➕ Create folder - Add a folder to the WATO tree",
			func(ctx context.Context, p createFolderParams) tools.Result {
				return createFolder(ctx, c, p)
			}),
		tools.Func("vibemk_delete_folder",
			"🗑️ Delete folder - Remove a folder and its contents",
			func(ctx context.Context, p folderParams) tools.Result {
				return deleteFolder(ctx, c, p)
			}),
		tools.Func("vibemk_update_folder",
			"✏️ Update folder - Change folder title or attributes",
			func(ctx context.Context, p updateFolderParams) tools.Result {
				return updateFolder(ctx, c, p)
			}),
		tools.Func("vibemk_move_folder",
			"📁 Move folder - Move a folder under a new parent",
			func(ctx context.Context, p moveFolderParams) tools.Result {
				return moveFolder(ctx, c, p)
			}),
		tools.Func("vibemk_get_folder_hosts",
			"🖥️ Folder hosts - List the hosts stored in a folder",
			func(ctx context.Context, p folderParams) tools.Result {
				return folderHosts(ctx, c, p)
			}),
	}
}

type getFoldersParams struct {
	Parent    string `json:"parent,omitempty" description:"Parent folder path, defaults to the root"`
	Recursive bool   `json:"recursive,omitempty" description:"Descend into subfolders"`
}

type folderParams struct {
	Folder string `json:"folder" description:"Folder path, e.g. /hosts/linux"`
}

type createFolderParams struct {
	Name       string         `json:"name" description:"Folder name (path segment)"`
	Title      string         `json:"title" description:"Display title"`
	Parent     string         `json:"parent,omitempty" description:"Parent folder path, defaults to /"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Folder attributes inherited by hosts"`
}

type updateFolderParams struct {
	Folder     string         `json:"folder" description:"Folder path"`
	Title      string         `json:"title,omitempty" description:"New display title"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Attributes to set"`
}

type moveFolderParams struct {
	Folder      string `json:"folder" description:"Folder path to move"`
	Destination string `json:"destination" description:"New parent folder path"`
}

func listFolders(ctx context.Context, c *checkmk.Client, p getFoldersParams) tools.Result {
	query := url.Values{}
	query.Set("parent", folderToAPI(p.Parent))
	if p.Recursive {
		query.Set("recursive", "true")
	}
	res, err := c.Get(ctx, "domain-types/folder_config/collections/all", query)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve folders", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Text("📁 **No Folders**\n\nThe folder tree is empty below this parent.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 **Folders** (%d):\n\n", len(coll.Value))
	for _, f := range coll.Value {
		fmt.Fprintf(&sb, "📁 %s (%s)\n", folderFromAPI(f.ID), f.Title)
	}
	return tools.Text(sb.String())
}

func createFolder(ctx context.Context, c *checkmk.Client, p createFolderParams) tools.Result {
	attributes := p.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	body := map[string]any{
		"name":       p.Name,
		"title":      p.Title,
		"parent":     folderToAPI(p.Parent),
		"attributes": attributes,
	}
	if _, err := c.Post(ctx, "domain-types/folder_config/collections/all", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Folder Created Successfully**\n\nName: %s\nTitle: %s\nParent: %s%s",
		p.Name, p.Title, folderFromAPI(folderToAPI(p.Parent)), activateReminder)
}

func deleteFolder(ctx context.Context, c *checkmk.Client, p folderParams) tools.Result {
	if _, err := c.Delete(ctx, "objects/folder_config/"+folderToAPI(p.Folder)); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Folder Deleted Successfully**\n\nFolder: %s%s", p.Folder, activateReminder)
}

func updateFolder(ctx context.Context, c *checkmk.Client, p updateFolderParams) tools.Result {
	body := map[string]any{}
	if p.Title != "" {
		body["title"] = p.Title
	}
	if p.Attributes != nil {
		body["attributes"] = p.Attributes
	}
	if len(body) == 0 {
		return tools.Error("No data to update", "Provide title or attributes")
	}
	if _, err := c.Put(ctx, "objects/folder_config/"+folderToAPI(p.Folder), body, ifMatchAny); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Folder Updated Successfully**\n\nFolder: %s%s", p.Folder, activateReminder)
}

func moveFolder(ctx context.Context, c *checkmk.Client, p moveFolderParams) tools.Result {
	body := map[string]any{"destination": folderToAPI(p.Destination)}
	if _, err := c.Post(ctx, "objects/folder_config/"+folderToAPI(p.Folder)+"/actions/move/invoke", body); err != nil {
		return apiError(err)
	}
	return tools.Textf("✅ **Folder Moved Successfully**\n\nFolder: %s\nNew parent: %s%s",
		p.Folder, p.Destination, activateReminder)
}

func folderHosts(ctx context.Context, c *checkmk.Client, p folderParams) tools.Result {
	res, err := c.Get(ctx, "objects/folder_config/"+folderToAPI(p.Folder)+"/collections/hosts", nil)
	if err != nil {
		return apiError(err)
	}
	var coll checkmk.Collection
	if err := res.Decode(&coll); err != nil {
		return tools.Error("Failed to retrieve folder hosts", err.Error())
	}
	if len(coll.Value) == 0 {
		return tools.Textf("🖥️ **No Hosts**\n\nFolder %s contains no hosts.", p.Folder)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🖥️ **Hosts in %s** (%d):\n\n", p.Folder, len(coll.Value))
	for _, h := range coll.Value {
		fmt.Fprintf(&sb, "- %s\n", h.ID)
	}
	return tools.Text(sb.String())
}
