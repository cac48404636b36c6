package assignments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/gatehouse-project/gatehouse/api/assignments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *assignments.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(&api.Config{
		Address:     srv.URL,
		Token:       "at_test",
		WorkspaceId: "ws_test",
		Headers:     make(http.Header),
	})
	require.NoError(t, err)
	return assignments.NewClient(client)
}

func TestList(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("GET", r.Method)
		assert.Equal("/v1/workspaces/ws_test/assignments", r.URL.Path)
		assert.Equal("u_jane", r.URL.Query().Get("principal_id"))
		assert.Equal("Bearer at_test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "asgmt_1", "principal_id": "u_jane", "role_grn": "grn:iam:ws_test:role/builtin.operator", "version": 1},
			},
		})
	}))

	items, apiErr, err := aClient.List(context.Background(), "u_jane")
	require.NoError(err)
	require.Nil(apiErr)
	require.Len(items, 1)
	assert.Equal("asgmt_1", items[0].Id)
	assert.Equal(uint32(1), items[0].Version)
}

func TestCreate(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		assert.Equal("/v1/workspaces/ws_test/assignments", r.URL.Path)

		var body map[string]any
		require.NoError(json.NewDecoder(r.Body).Decode(&body))
		assert.Equal("u_jane", body["principal_id"])
		assert.Equal("grn:iam:ws_test:role/builtin.operator", body["role_grn"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":           "asgmt_1",
			"principal_id": "u_jane",
			"role_grn":     "grn:iam:ws_test:role/builtin.operator",
			"version":      1,
		})
	}))

	created, apiErr, err := aClient.Create(context.Background(), "u_jane", "grn:iam:ws_test:role/builtin.operator", nil)
	require.NoError(err)
	require.Nil(apiErr)
	assert.Equal("asgmt_1", created.Id)
}

func TestCreate_Conflict(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  409,
			"code":    "AlreadyExists",
			"message": "assignment already exists",
		})
	}))

	_, apiErr, err := aClient.Create(context.Background(), "u_jane", "grn:iam:ws_test:role/builtin.operator", nil)
	require.NoError(err)
	require.NotNil(apiErr)
	assert.ErrorIs(apiErr, api.ErrConflict)
}

func TestSetScope(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		assert.Equal("/v1/workspaces/ws_test/assignments/asgmt_1:set-scope", r.URL.Path)
		assert.Equal("2", r.URL.Query().Get("version"))

		var body map[string]any
		require.NoError(json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(body, "scope_group_grns")

		json.NewEncoder(w).Encode(map[string]any{
			"id":               "asgmt_1",
			"scope_group_grns": body["scope_group_grns"],
			"version":          3,
		})
	}))

	updated, apiErr, err := aClient.SetScope(context.Background(), "asgmt_1", 2,
		[]string{"grn:directory:ws_test:scope-group/sg_prod"})
	require.NoError(err)
	require.Nil(apiErr)
	assert.Equal(uint32(3), updated.Version)
	assert.Equal([]string{"grn:directory:ws_test:scope-group/sg_prod"}, updated.ScopeGroupGrns)
}

func TestSetScope_AutomaticVersioning(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET":
			json.NewEncoder(w).Encode(map[string]any{"id": "asgmt_1", "version": 7})
		default:
			assert.Equal("7", r.URL.Query().Get("version"))
			json.NewEncoder(w).Encode(map[string]any{"id": "asgmt_1", "version": 8})
		}
	}))

	updated, apiErr, err := aClient.SetScope(context.Background(), "asgmt_1", 0, nil,
		assignments.WithAutomaticVersioning())
	require.NoError(err)
	require.Nil(apiErr)
	assert.Equal(uint32(8), updated.Version)

	_, _, err = aClient.SetScope(context.Background(), "asgmt_1", 0, nil)
	require.Error(err)
}

func TestDelete(t *testing.T) {
	t.Run("204 no content", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("DELETE", r.Method)
			w.WriteHeader(http.StatusNoContent)
		}))

		existed, apiErr, err := aClient.Delete(context.Background(), "asgmt_1")
		require.NoError(err)
		require.Nil(apiErr)
		assert.True(existed)
	})

	t.Run("existed body", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"existed": false})
		}))

		existed, apiErr, err := aClient.Delete(context.Background(), "asgmt_1")
		require.NoError(err)
		require.Nil(apiErr)
		assert.False(existed)
	})

	t.Run("not found", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)

		aClient := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"status": 404, "code": "NotFound", "message": "no such assignment"})
		}))

		existed, apiErr, err := aClient.Delete(context.Background(), "asgmt_1")
		require.NoError(err)
		require.NotNil(apiErr)
		assert.False(existed)
		assert.ErrorIs(apiErr, api.ErrNotFound)
	})
}
