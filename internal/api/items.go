package api

import (
	"net/http"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/validation"
)

const itemResource = "Item"

func (a *API) createItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateCreateItem(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	item, err := a.items.Create(r.Context(), user.ID, payload.ChecklistID, payload.Content)
	if err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// updateItem applies a partial update. An empty payload returns the item unchanged.
func (a *API) updateItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateUpdateItem(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	patch := models.ItemPatch{Content: payload.Content, Completed: payload.Completed}
	item, err := a.items.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		a.writeError(w, r, err, itemResource)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := a.items.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		a.writeError(w, r, err, itemResource)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
