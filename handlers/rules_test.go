package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/content"
	"github.com/vibemk/vibemk-go/tools"
)

const apiPrefix = "/testsite/check_mk/api/1.0"

func testClient(t *testing.T, handler http.Handler) *checkmk.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return checkmk.NewClient(checkmk.Config{
		ServerURL: ts.URL,
		Site:      "testsite",
		Username:  "automation",
		Password:  "secret",
	})
}

func runTool(t *testing.T, ts []tools.Tool, name string, args string) tools.Result {
	t.Helper()
	tb := tools.Box(ts...)
	tool := tb.Get(name)
	require.NotNil(t, tool, "tool %s not registered", name)
	return tool.Run(context.Background(), json.RawMessage(args))
}

func resultText(t *testing.T, res tools.Result) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*content.Text)
	require.True(t, ok)
	return text.Text
}

func TestCreateRuleConvertsRuleConfig(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "rule-1", "domainType": "rule"})
	})
	c := testClient(t, mux)

	res := runTool(t, RuleTools(c), "vibemk_create_rule", `{
		"ruleset_name": "checkgroup_parameters:filesystem",
		"rule_config": {"levels": [80.0, 90.0]},
		"conditions": {"host_name": {"match_on": ["web01"], "operator": "one_of"}},
		"comment": "disk thresholds",
		"folder": "/hosts/linux"
	}`)

	require.False(t, res.IsError, resultText(t, res))
	// The JSON rule value goes out as a Python literal.
	assert.Equal(t, "{'levels': (80.0, 90.0)}", gotBody["value_raw"])
	assert.Equal(t, "~hosts~linux", gotBody["folder"])
	assert.Equal(t, "checkgroup_parameters:filesystem", gotBody["ruleset"])
	props := gotBody["properties"].(map[string]any)
	assert.Equal(t, "disk thresholds", props["comment"])
	assert.Contains(t, resultText(t, res), "rule-1")
}

func TestCreateRuleValueRawWins(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "rule-2", "domainType": "rule"})
	})
	c := testClient(t, mux)

	res := runTool(t, RuleTools(c), "vibemk_create_rule", `{
		"ruleset_name": "checkgroup_parameters:memory",
		"rule_config": {"ignored": true},
		"value_raw": "('custom', (1, 2))"
	}`)

	require.False(t, res.IsError)
	assert.Equal(t, "('custom', (1, 2))", gotBody["value_raw"])
}

func TestCreateRuleRequiresValue(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	res := runTool(t, RuleTools(c), "vibemk_create_rule", `{"ruleset_name":"x"}`)
	require.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "value_raw")
}

func TestCreateRuleSurfacesProblemDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"title":  "Bad Request",
			"detail": "These fields have problems: value_raw",
			"fields": map[string]any{"value_raw": []any{"not a valid literal"}},
		})
	})
	c := testClient(t, mux)

	res := runTool(t, RuleTools(c), "vibemk_create_rule",
		`{"ruleset_name":"x","value_raw":"'v'"}`)
	require.True(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "CheckMK API Error (400)")
	assert.Contains(t, text, "value_raw")
}

func TestBackupRulesetDecodesLiterals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "checkgroup_parameters:filesystem", r.URL.Query().Get("ruleset_name"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"id":         "r1",
					"domainType": "rule",
					"extensions": map[string]any{
						"value_raw":  "{'levels': (80.0, 90.0)}",
						"folder":     "~hosts~linux",
						"ruleset":    "checkgroup_parameters:filesystem",
						"conditions": map[string]any{},
						"properties": map[string]any{"disabled": false},
					},
				},
				{
					"id":         "r2",
					"domainType": "rule",
					"extensions": map[string]any{
						"value_raw": "not ( a literal",
						"folder":    "~",
					},
				},
			},
		})
	})
	c := testClient(t, mux)

	res := runTool(t, RuleTools(c), "vibemk_backup_ruleset",
		`{"ruleset_name":"checkgroup_parameters:filesystem"}`)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "Rules: 2")
	assert.Contains(t, text, "1 value_raw literal(s) could not be parsed")

	// The second block is the JSON backup document.
	require.Len(t, res.Content, 2)
	raw, ok := res.Content[1].(*content.JSON)
	require.True(t, ok)
	var entries []ruleBackupEntry
	require.NoError(t, json.Unmarshal(raw.Data, &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "r1", entries[0].RuleID)
	assert.Equal(t, "/hosts/linux", entries[0].Folder)
	require.NotNil(t, entries[0].Value)
	value := entries[0].Value.(map[string]any)
	levels := value["levels"].([]any)
	assert.Equal(t, []any{80.0, 90.0}, levels)

	// Unparseable literals keep the raw string and no structured value.
	assert.Equal(t, "not ( a literal", entries[1].ValueRaw)
	assert.Nil(t, entries[1].Value)
}

func TestRestoreRuleset(t *testing.T) {
	var bodies []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "new", "domainType": "rule"})
	})
	c := testClient(t, mux)

	res := runTool(t, RuleTools(c), "vibemk_restore_ruleset", `{
		"ruleset_name": "checkgroup_parameters:filesystem",
		"rules": [
			{"value_raw": "{'levels': (80.0, 90.0)}", "folder": "/hosts/linux"},
			{"value": {"levels": [85.0, 95.0]}}
		]
	}`)

	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Rules created: 2 of 2")
	require.Len(t, bodies, 2)
	assert.Equal(t, "{'levels': (80.0, 90.0)}", bodies[0]["value_raw"])
	assert.Equal(t, "~hosts~linux", bodies[0]["folder"])
	// Entries without value_raw are re-serialized from the structured value.
	assert.Equal(t, "{'levels': (85.0, 95.0)}", bodies[1]["value_raw"])
}

func TestRestoreRulesetAcceptsValueOnlyEntries(t *testing.T) {
	var bodies []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"/domain-types/rule/collections/all", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "new", "domainType": "rule"})
	})
	c := testClient(t, mux)

	// Entries carrying only a structured value must pass argument
	// validation; value_raw is filled in by serialization.
	res := runTool(t, RuleTools(c), "vibemk_restore_ruleset", `{
		"ruleset_name": "checkgroup_parameters:filesystem",
		"rules": [{"value": {"levels": [85.0, 95.0]}}]
	}`)

	require.False(t, res.IsError, resultText(t, res))
	require.Len(t, bodies, 1)
	assert.Equal(t, "{'levels': (85.0, 95.0)}", bodies[0]["value_raw"])
}

func TestMoveRuleValidatesTarget(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	res := runTool(t, RuleTools(c), "vibemk_move_rule",
		`{"rule_id":"r1","position":"before"}`)
	require.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "target_rule_id")
}
