package checkmk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{
		ServerURL: srv.URL,
		Site:      "cmk",
		Username:  "automation",
		Password:  "secret",
	}
	return NewClient(cfg, WithHTTPClient(srv.Client()))
}

func TestClient_Get_SendsAuthAndPath(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": []}`))
	})

	res, err := c.Get(context.Background(), "domain-types/host_config/collections/all", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/cmk/check_mk/api/1.0/domain-types/host_config/collections/all", gotPath)
	require.Equal(t, "Bearer automation secret", gotAuth)
	require.Equal(t, "application/json", gotAccept)
}

func TestClient_Get_Query(t *testing.T) {
	var gotQuery url.Values
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	q := url.Values{}
	q.Set("ruleset_name", "checkgroup_parameters:filesystem")
	_, err := c.Get(context.Background(), "domain-types/rule/collections/all", q)
	require.NoError(t, err)
	require.Equal(t, "checkgroup_parameters:filesystem", gotQuery.Get("ruleset_name"))
}

func TestClient_Post_SendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "web01"}`))
	})

	res, err := c.Post(context.Background(), "domain-types/host_config/collections/all", map[string]any{
		"host_name": "web01",
		"folder":    "~",
	})
	require.NoError(t, err)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "web01", gotBody["host_name"])

	var obj DomainObject
	require.NoError(t, res.Decode(&obj))
	require.Equal(t, "web01", obj.ID)
}

func TestClient_Put_SendsIfMatch(t *testing.T) {
	var gotIfMatch string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotIfMatch = r.Header.Get("If-Match")
		w.Write([]byte(`{}`))
	})

	_, err := c.Put(context.Background(), "objects/rule/abc", map[string]any{"value_raw": "True"}, map[string]string{"If-Match": "*"})
	require.NoError(t, err)
	require.Equal(t, "*", gotIfMatch)
}

func TestClient_ErrorDecodesProblemDocument(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{
			"title": "Bad Request",
			"detail": "These fields have problems: value_raw",
			"fields": {"value_raw": ["Invalid Python literal"]}
		}`))
	})

	_, err := c.Post(context.Background(), "domain-types/rule/collections/all", map[string]any{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Bad Request", apiErr.Title)
	require.Contains(t, apiErr.FormatDetail(), "`value_raw`: Invalid Python literal")
}

func TestClient_ErrorWithNonJSONBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := c.Get(context.Background(), "version", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Contains(t, apiErr.Detail, "upstream unavailable")
	require.False(t, apiErr.IsNotFound())
}

func TestClient_Version(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cmk/check_mk/api/1.0/version", r.URL.Path)
		w.Write([]byte(`{"site": "cmk", "versions": {"checkmk": "2.3.0p1", "edition": "cre"}}`))
	})

	info, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cmk", info.Site)
	require.Equal(t, "2.3.0p1", info.Versions.Checkmk)
}

func TestDomainObject_ExtensionHelpers(t *testing.T) {
	obj := DomainObject{
		ID: "rule1",
		Extensions: map[string]any{
			"folder":   "/web",
			"disabled": true,
			"properties": map[string]any{
				"comment": "managed",
			},
		},
	}
	require.Equal(t, "/web", obj.StringExt("folder", "/"))
	require.Equal(t, "/", obj.StringExt("missing", "/"))
	require.True(t, obj.BoolExt("disabled"))
	require.Equal(t, "managed", obj.MapExt("properties")["comment"])
	require.NotNil(t, obj.MapExt("missing"))
}
