package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/listenup-lists/internal/domain"
	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/id"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/normalize"
	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/listenupapp/listenup-lists/internal/validation"
)

// NewItemRequest is the payload for adding an item.
type NewItemRequest struct {
	Name string `json:"name" validate:"notblank,max=500"`
}

// ListService manages an owner's lists and their items.
// Every method takes the owner ID resolved from the caller's session; lists are
// addressed by name and looked up by normalize.Key(name).
type ListService struct {
	lists     store.Lists
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewListService creates a new list service. m may be nil.
func NewListService(lists store.Lists, m *metrics.Metrics, logger *slog.Logger) *ListService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ListService{
		lists:     lists,
		validator: validation.New(),
		metrics:   m,
		logger:    logger,
	}
}

// ListKey normalizes a list name, rejecting names with no usable characters.
func ListKey(name string) (string, error) {
	key := normalize.Key(name)
	if key == "" {
		return "", domainerrors.Validation("list name is required")
	}
	return key, nil
}

// ViewList returns the owner's list for name, creating it with the default items on first view.
// The bool reports whether this call created it.
func (s *ListService) ViewList(ctx context.Context, ownerID, name string) (*domain.List, bool, error) {
	key, err := ListKey(name)
	if err != nil {
		return nil, false, err
	}

	seed, err := newList(ownerID, key)
	if err != nil {
		return nil, false, err
	}

	list, created, err := s.lists.UpsertList(ctx, seed)
	if err != nil {
		return nil, false, fmt.Errorf("upsert list: %w", err)
	}

	if created {
		s.metrics.RecordListCreated()
		s.logger.Info("List created", "owner_id", ownerID, "list", key)
	}

	return list, created, nil
}

// GetList returns the owner's list for name without creating it.
func (s *ListService) GetList(ctx context.Context, ownerID, name string) (*domain.List, error) {
	key, err := ListKey(name)
	if err != nil {
		return nil, err
	}

	list, err := s.lists.GetList(ctx, ownerID, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("list %q not found", key)
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

// AddItem appends a new item to an existing list.
// The item name is trimmed and must be non-empty. A missing list yields NOT_FOUND.
func (s *ListService) AddItem(ctx context.Context, ownerID, listName string, req NewItemRequest) (*domain.List, error) {
	key, err := ListKey(listName)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	itemID, err := id.Generate(id.PrefixItem)
	if err != nil {
		return nil, fmt.Errorf("generate item ID: %w", err)
	}

	list, err := s.lists.AppendItem(ctx, ownerID, key, domain.Item{ID: itemID, Name: req.Name})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("list %q not found", key)
		}
		return nil, fmt.Errorf("append item: %w", err)
	}

	s.metrics.RecordItemAdded()
	return list, nil
}

// DeleteItem removes an item. Unknown lists and items are ignored.
func (s *ListService) DeleteItem(ctx context.Context, ownerID, listName, itemID string) error {
	key := normalize.Key(listName)
	if key == "" || itemID == "" {
		return nil
	}
	if err := s.lists.RemoveItem(ctx, ownerID, key, itemID); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

// DeleteList removes a list and its items. Unknown lists are ignored.
func (s *ListService) DeleteList(ctx context.Context, ownerID, listName string) error {
	key := normalize.Key(listName)
	if key == "" {
		return nil
	}
	if err := s.lists.DeleteList(ctx, ownerID, key); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	s.logger.Info("List deleted", "owner_id", ownerID, "list", key)
	return nil
}

// Dashboard returns summaries of all the owner's lists, ordered by key.
func (s *ListService) Dashboard(ctx context.Context, ownerID string) ([]domain.ListSummary, error) {
	lists, err := s.lists.ListsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	summaries := make([]domain.ListSummary, 0, len(lists))
	for _, l := range lists {
		summaries = append(summaries, l.Summary(normalize.Title(l.Key)))
	}
	return summaries, nil
}

// newList builds an unsaved list seeded with the default items.
func newList(ownerID, key string) (*domain.List, error) {
	listID, err := id.Generate(id.PrefixList)
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	items := make([]domain.Item, 0, len(domain.DefaultItemNames))
	for _, name := range domain.DefaultItemNames {
		itemID, err := id.Generate(id.PrefixItem)
		if err != nil {
			return nil, fmt.Errorf("generate item ID: %w", err)
		}
		items = append(items, domain.Item{ID: itemID, Name: name})
	}

	list := &domain.List{
		ID:      listID,
		OwnerID: ownerID,
		Key:     key,
		Items:   items,
	}
	list.InitTimestamps()
	return list, nil
}
