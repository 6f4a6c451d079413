// Package handlers implements the vibemk_* tool catalog: each file covers
// one CheckMK domain and translates tool arguments into REST calls against
// the site, formatting responses as markdown text blocks.
package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/tools"
)

// All returns the complete tool catalog bound to the given client, in the
// order tools/list presents it.
func All(c *checkmk.Client) []tools.Tool {
	var all []tools.Tool
	for _, group := range [][]tools.Tool{
		ConnectionTools(c),
		HostTools(c),
		ServiceTools(c),
		MonitoringTools(c),
		ConfigurationTools(c),
		FolderTools(c),
		MetricTools(c),
		UserTools(c),
		UserRoleTools(c),
		GroupTools(c),
		RuleTools(c),
		RulesetTools(c),
		TagTools(c),
		TimePeriodTools(c),
		PasswordTools(c),
		NotificationTools(c),
		DowntimeTools(c),
		AcknowledgementTools(c),
		DiscoveryTools(c),
		ServiceGroupTools(c),
		HostGroupRuleTools(c),
		DebugTools(c),
	} {
		all = append(all, group...)
	}
	return all
}

// apiError renders a failed API call, surfacing the CheckMK problem
// document when one is available.
func apiError(err error) tools.Result {
	var apiErr *checkmk.APIError
	if errors.As(err, &apiErr) {
		return tools.Error(fmt.Sprintf("CheckMK API Error (%d)", apiErr.StatusCode), apiErr.FormatDetail())
	}
	return tools.Error("CheckMK API Error", err.Error())
}

// folderToAPI converts a display folder path to the API spelling:
// "/" -> "~", "/hosts/linux" -> "~hosts~linux".
func folderToAPI(folder string) string {
	if folder == "" || folder == "/" || folder == "~" {
		return "~"
	}
	folder = strings.TrimPrefix(folder, "/")
	return "~" + strings.ReplaceAll(folder, "/", "~")
}

// folderFromAPI converts the API folder spelling back to a display path.
func folderFromAPI(folder string) string {
	if folder == "" || folder == "~" {
		return "/"
	}
	folder = strings.TrimPrefix(folder, "~")
	return "/" + strings.ReplaceAll(folder, "~", "/")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

const activateReminder = "\n\n⚠️ **Remember to activate changes!**"

// ifMatchAny skips optimistic locking on updates. Fetching the real ETag
// first would double every write round trip.
var ifMatchAny = map[string]string{"If-Match": "*"}
