package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/normalize"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// sessionSecurity marks operations that need the session cookie.
var sessionSecurity = []map[string][]string{{"session": {}}}

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List lists",
		Description: "Returns summaries of the current user's lists, ordered by key",
		Tags:        []string{"Lists"},
		Security:    sessionSecurity,
	}, s.handleListLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "ensureList",
		Method:      http.MethodPut,
		Path:        "/api/v1/lists/{name}",
		Summary:     "Open list",
		Description: "Returns the list for a name, creating it with the default items if it does not exist",
		Tags:        []string{"Lists"},
		Security:    sessionSecurity,
	}, s.handleEnsureList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{name}",
		Summary:     "Get list",
		Description: "Returns a list by name without creating it",
		Tags:        []string{"Lists"},
		Security:    sessionSecurity,
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteList",
		Method:        http.MethodDelete,
		Path:          "/api/v1/lists/{name}",
		Summary:       "Delete list",
		Description:   "Deletes a list and its items. Deleting a missing list succeeds",
		Tags:          []string{"Lists"},
		Security:      sessionSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{name}/items",
		Summary:       "Add item",
		Description:   "Appends an item to an existing list",
		Tags:          []string{"Lists"},
		Security:      sessionSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteItem",
		Method:        http.MethodDelete,
		Path:          "/api/v1/lists/{name}/items/{itemId}",
		Summary:       "Delete item",
		Description:   "Removes an item. Deleting a missing item succeeds",
		Tags:          []string{"Lists"},
		Security:      sessionSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteItem)
}

// === DTOs ===

// ItemResponse contains item data in API responses.
type ItemResponse struct {
	ID   string `json:"id" doc:"Item ID"`
	Name string `json:"name" doc:"Item text"`
}

// ListResponse contains list data in API responses.
type ListResponse struct {
	ID        string         `json:"id" doc:"List ID"`
	Key       string         `json:"key" doc:"Normalized list name"`
	Title     string         `json:"title" doc:"Display title"`
	Items     []ItemResponse `json:"items" doc:"Items in order"`
	CreatedAt time.Time      `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time      `json:"updated_at" doc:"Last update time"`
}

// ListSummaryResponse contains a dashboard entry.
type ListSummaryResponse struct {
	Key       string    `json:"key" doc:"Normalized list name"`
	Title     string    `json:"title" doc:"Display title"`
	ItemCount int       `json:"item_count" doc:"Number of items"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListListsResponse contains the current user's lists.
type ListListsResponse struct {
	Lists []ListSummaryResponse `json:"lists" doc:"Lists ordered by key"`
}

// ListListsOutput wraps the list lists response for Huma.
type ListListsOutput struct {
	Body ListListsResponse
}

// ListNameInput addresses a list by name.
type ListNameInput struct {
	Name string `path:"name" doc:"List name, normalized to its key"`
}

// ListOutput wraps the list response for Huma.
type ListOutput struct {
	Body ListResponse
}

// EnsureListOutput reports 201 when the list was created and 200 otherwise.
type EnsureListOutput struct {
	Status int
	Body   ListResponse
}

// AddItemRequest is the request body for adding an item.
type AddItemRequest struct {
	Name string `json:"name" maxLength:"500" doc:"Item text"`
}

// AddItemInput wraps the add item request for Huma.
type AddItemInput struct {
	Name string `path:"name" doc:"List name, normalized to its key"`
	Body AddItemRequest
}

// DeleteItemInput addresses an item.
type DeleteItemInput struct {
	Name   string `path:"name" doc:"List name, normalized to its key"`
	ItemID string `path:"itemId" doc:"Item ID"`
}

func toListResponse(l *domain.List) ListResponse {
	items := make([]ItemResponse, len(l.Items))
	for i, it := range l.Items {
		items[i] = ItemResponse{ID: it.ID, Name: it.Name}
	}
	return ListResponse{
		ID:        l.ID,
		Key:       l.Key,
		Title:     normalize.Title(l.Key),
		Items:     items,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListLists(ctx context.Context, _ *struct{}) (*ListListsOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.lists.Dashboard(ctx, user.ID)
	if err != nil {
		return nil, apiError(ctx, err)
	}

	resp := ListListsResponse{Lists: make([]ListSummaryResponse, len(summaries))}
	for i, sum := range summaries {
		resp.Lists[i] = ListSummaryResponse{
			Key:       sum.Key,
			Title:     sum.Title,
			ItemCount: sum.ItemCount,
			UpdatedAt: sum.UpdatedAt,
		}
	}
	return &ListListsOutput{Body: resp}, nil
}

func (s *Server) handleEnsureList(ctx context.Context, input *ListNameInput) (*EnsureListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, created, err := s.lists.ViewList(ctx, user.ID, input.Name)
	if err != nil {
		return nil, apiError(ctx, err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return &EnsureListOutput{Status: status, Body: toListResponse(list)}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *ListNameInput) (*ListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.lists.GetList(ctx, user.ID, input.Name)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ListOutput{Body: toListResponse(list)}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListNameInput) (*struct{}, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.lists.DeleteList(ctx, user.ID, input.Name); err != nil {
		return nil, apiError(ctx, err)
	}
	return nil, nil
}

func (s *Server) handleAddItem(ctx context.Context, input *AddItemInput) (*ListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.lists.AddItem(ctx, user.ID, input.Name, service.NewItemRequest{Name: input.Body.Name})
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ListOutput{Body: toListResponse(list)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *DeleteItemInput) (*struct{}, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.lists.DeleteItem(ctx, user.ID, input.Name, input.ItemID); err != nil {
		return nil, apiError(ctx, err)
	}
	return nil, nil
}
