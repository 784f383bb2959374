package domain

import (
	"slices"
	"time"
)

// DefaultItemNames seed every newly created list.
var DefaultItemNames = []string{"Item 1", "Item 2", "Item 3"}

// Item is a single entry on a list. Items exist only inside their list.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List is a named collection of items owned by one user.
// (OwnerID, Key) is unique; Key is the normalized form of the name the list was first opened with.
type List struct {
	Timestamps
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Key     string `json:"key"`
	Items   []Item `json:"items"`
}

// ItemIndex returns the position of the item with the given ID, or -1.
func (l *List) ItemIndex(itemID string) int {
	return slices.IndexFunc(l.Items, func(it Item) bool { return it.ID == itemID })
}

// AppendItem adds an item to the end of the list.
func (l *List) AppendItem(item Item) {
	l.Items = append(l.Items, item)
	l.Touch()
}

// RemoveItem deletes the item with the given ID.
// It reports whether anything was removed.
func (l *List) RemoveItem(itemID string) bool {
	idx := l.ItemIndex(itemID)
	if idx < 0 {
		return false
	}
	l.Items = slices.Delete(l.Items, idx, idx+1)
	l.Touch()
	return true
}

// Summary returns the dashboard view of the list.
func (l *List) Summary(title string) ListSummary {
	return ListSummary{
		Key:       l.Key,
		Title:     title,
		ItemCount: len(l.Items),
		UpdatedAt: l.UpdatedAt,
	}
}

// ListSummary is the dashboard projection of a list.
type ListSummary struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	ItemCount int       `json:"item_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
