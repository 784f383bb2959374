package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/normalize"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// listPath is the canonical page of a list.
func listPath(key string) string {
	return "/lists/" + url.PathEscape(key)
}

// handleHome serves the dashboard to signed-in users and the about page to everyone else.
// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); ok {
		s.handleDashboard(w, r)
		return
	}
	s.render(w, r, http.StatusOK, pageAbout, s.newPage(r, "ListenUp Lists"))
}

// handleDashboard lists the user's lists.
// GET /user
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageUser, s.newPage(r, "Your lists"))
}

// handleAddPage serves the new list form.
// GET /add
func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageAdd, s.newPage(r, "New list"))
}

// handleAddList sends the user to the list's page, which creates it.
// POST /add
func (s *Server) handleAddList(w http.ResponseWriter, r *http.Request) {
	key, err := service.ListKey(r.PostFormValue(fieldListName))
	if err != nil {
		data := s.newPage(r, "New list")
		data.Error = "Give the list a name."
		s.render(w, r, http.StatusUnprocessableEntity, pageAdd, data)
		return
	}
	http.Redirect(w, r, listPath(key), http.StatusSeeOther)
}

// handleViewList shows a list, creating it with the default items on first view.
// Newly created lists and non-canonical paths redirect to the canonical page.
// GET /lists/{customListName}
func (s *Server) handleViewList(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	name := chi.URLParam(r, "customListName")

	list, created, err := s.lists.ViewList(r.Context(), user.ID, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if created || name != list.Key {
		http.Redirect(w, r, listPath(list.Key), http.StatusFound)
		return
	}

	data := s.newPage(r, normalize.Title(list.Key))
	data.ListTitle = normalize.Title(list.Key)
	data.ListKey = list.Key
	data.Items = list.Items
	s.render(w, r, http.StatusOK, pageList, data)
}

// handleAddItem appends an item and returns to the list.
// A blank item re-renders the list with the error.
// POST /lists/{customListName}
func (s *Server) handleAddItemForm(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	key, err := service.ListKey(chi.URLParam(r, "customListName"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	_, err = s.lists.AddItem(r.Context(), user.ID, key, service.NewItemRequest{Name: r.PostFormValue(fieldAddItem)})
	switch {
	case err == nil, errors.Is(err, domainerrors.ErrNotFound):
		// A list deleted in another tab is recreated by its page.
		http.Redirect(w, r, listPath(key), http.StatusSeeOther)
	case errors.Is(err, domainerrors.ErrValidation):
		s.renderListError(w, r, key, err)
	default:
		s.fail(w, r, err)
	}
}

// renderListError re-renders a list page with a validation message.
func (s *Server) renderListError(w http.ResponseWriter, r *http.Request, key string, cause error) {
	user, _ := CurrentUser(r.Context())

	list, err := s.lists.GetList(r.Context(), user.ID, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			http.Redirect(w, r, listPath(key), http.StatusSeeOther)
			return
		}
		s.fail(w, r, err)
		return
	}

	var domainErr *domainerrors.Error
	message := "Item name is invalid."
	if errors.As(cause, &domainErr) {
		message = "Item " + domainErr.Message + "."
	}

	data := s.newPage(r, normalize.Title(key))
	data.ListTitle = normalize.Title(key)
	data.ListKey = key
	data.Items = list.Items
	data.Error = message
	s.render(w, r, http.StatusUnprocessableEntity, pageList, data)
}

// handleDeleteItem removes a checked-off item.
// POST /delete
func (s *Server) handleDeleteItemForm(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	key := normalize.Key(r.PostFormValue(fieldList))

	if err := s.lists.DeleteItem(r.Context(), user.ID, key, r.PostFormValue(fieldDeleteItem)); err != nil {
		s.fail(w, r, err)
		return
	}

	if key == "" {
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, listPath(key), http.StatusSeeOther)
}

// handleDeleteList removes a list and returns to the dashboard.
// POST /delete-list
func (s *Server) handleDeleteListForm(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())

	if err := s.lists.DeleteList(r.Context(), user.ID, r.PostFormValue(fieldList)); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}
