package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-lists/internal/domain"
)

func newAPITest(t *testing.T) (*testEnv, humatest.TestAPI) {
	t.Helper()
	env := newTestEnv(t)
	return env, humatest.Wrap(t, env.srv.API())
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	assert.Equal(t, 1, env.V)
	return env
}

func TestAPI_RequiresSession(t *testing.T) {
	_, api := newAPITest(t)

	tests := []struct {
		name string
		call func() *httptest.ResponseRecorder
	}{
		{"me", func() *httptest.ResponseRecorder { return api.Get("/api/v1/me") }},
		{"list lists", func() *httptest.ResponseRecorder { return api.Get("/api/v1/lists") }},
		{"ensure list", func() *httptest.ResponseRecorder { return api.Put("/api/v1/lists/groceries") }},
		{"get list", func() *httptest.ResponseRecorder { return api.Get("/api/v1/lists/groceries") }},
		{"delete list", func() *httptest.ResponseRecorder { return api.Delete("/api/v1/lists/groceries") }},
		{"add item", func() *httptest.ResponseRecorder {
			return api.Post("/api/v1/lists/groceries/items", map[string]any{"name": "Milk"})
		}},
		{"delete item", func() *httptest.ResponseRecorder { return api.Delete("/api/v1/lists/groceries/items/item-1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.call()
			assert.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
			assert.Equal(t, "Authentication required", env.Error)
		})
	}
}

func TestAPI_ListLifecycle(t *testing.T) {
	env, api := newAPITest(t)
	cookie, _ := env.signIn("alice")

	// First open creates the list.
	resp := api.Put("/api/v1/lists/Groceries", cookie)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeEnvelope[ListResponse](t, resp)
	assert.True(t, created.Success)
	assert.Equal(t, "groceries", created.Data.Key)
	assert.Equal(t, "Groceries", created.Data.Title)
	require.Len(t, created.Data.Items, len(domain.DefaultItemNames))

	// Second open returns the same list.
	resp = api.Put("/api/v1/lists/groceries", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	again := decodeEnvelope[ListResponse](t, resp)
	assert.Equal(t, created.Data.ID, again.Data.ID)

	resp = api.Post("/api/v1/lists/groceries/items", cookie, map[string]any{"name": "  Milk  "})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	added := decodeEnvelope[ListResponse](t, resp)
	require.Len(t, added.Data.Items, 4)
	milk := added.Data.Items[3]
	assert.Equal(t, "Milk", milk.Name)

	resp = api.Get("/api/v1/lists", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	lists := decodeEnvelope[ListListsResponse](t, resp)
	require.Len(t, lists.Data.Lists, 1)
	assert.Equal(t, 4, lists.Data.Lists[0].ItemCount)

	resp = api.Delete("/api/v1/lists/groceries/items/"+milk.ID, cookie)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = api.Delete("/api/v1/lists/groceries/items/"+milk.ID, cookie)
	assert.Equal(t, http.StatusNoContent, resp.Code, "deleting a missing item succeeds")

	resp = api.Get("/api/v1/lists/Groceries", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeEnvelope[ListResponse](t, resp)
	assert.Len(t, got.Data.Items, 3)

	resp = api.Delete("/api/v1/lists/groceries", cookie)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = api.Delete("/api/v1/lists/groceries", cookie)
	assert.Equal(t, http.StatusNoContent, resp.Code, "deleting a missing list succeeds")

	resp = api.Get("/api/v1/lists/groceries", cookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	missing := decodeEnvelope[any](t, resp)
	assert.Equal(t, "NOT_FOUND", missing.Code)
}

func TestAPI_ListsAreScopedToOwner(t *testing.T) {
	env, api := newAPITest(t)
	alice, _ := env.signIn("alice")
	bob, _ := env.signIn("bob")

	resp := api.Put("/api/v1/lists/groceries", alice)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = api.Get("/api/v1/lists/groceries", bob)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = api.Get("/api/v1/lists", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	lists := decodeEnvelope[ListListsResponse](t, resp)
	assert.Empty(t, lists.Data.Lists)
}

func TestAPI_AddItemValidation(t *testing.T) {
	env, api := newAPITest(t)
	cookie, _ := env.signIn("alice")

	resp := api.Post("/api/v1/lists/groceries/items", cookie, map[string]any{"name": "Milk"})
	assert.Equal(t, http.StatusNotFound, resp.Code, "items can only be added to existing lists")

	require.Equal(t, http.StatusCreated, api.Put("/api/v1/lists/groceries", cookie).Code)

	resp = api.Post("/api/v1/lists/groceries/items", cookie, map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	blank := decodeEnvelope[any](t, resp)
	assert.Equal(t, "VALIDATION", blank.Code)
	assert.Equal(t, "name is required", blank.Error)
	assert.Equal(t, map[string]any{"name": "is required"}, blank.Details)

	resp = api.Post("/api/v1/lists/groceries/items", cookie, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	missing := decodeEnvelope[any](t, resp)
	assert.Equal(t, "VALIDATION", missing.Code)
	assert.NotEmpty(t, missing.Details)
}

func TestAPI_EmptyListName(t *testing.T) {
	env, api := newAPITest(t)
	cookie, _ := env.signIn("alice")

	resp := api.Put("/api/v1/lists/---", cookie)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decodeEnvelope[any](t, resp)
	assert.Equal(t, "list name is required", body.Error)
}

func TestAPI_UnknownRouteUsesEnvelope(t *testing.T) {
	_, api := newAPITest(t)

	resp := api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
