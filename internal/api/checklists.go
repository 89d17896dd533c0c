package api

import (
	"net/http"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/validation"
)

const checklistResource = "Checklist"

type renameResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (a *API) listChecklists(w http.ResponseWriter, r *http.Request, user *models.User) {
	checklists, err := a.checklists.List(r.Context(), user.ID)
	if err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	if checklists == nil {
		checklists = []*models.Checklist{}
	}
	writeJSON(w, http.StatusOK, checklists)
}

func (a *API) createChecklist(w http.ResponseWriter, r *http.Request, user *models.User) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateCreateChecklist(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	checklist, err := a.checklists.Create(r.Context(), user.ID, payload.Title)
	if err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	writeJSON(w, http.StatusCreated, checklist)
}

func (a *API) getChecklist(w http.ResponseWriter, r *http.Request, user *models.User) {
	checklist, err := a.checklists.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	writeJSON(w, http.StatusOK, checklist)
}

// updateChecklist renames a checklist. A payload without a title leaves it unchanged.
func (a *API) updateChecklist(w http.ResponseWriter, r *http.Request, user *models.User) {
	body, err := readBody(r)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	payload, err := validation.ValidateUpdateChecklist(body)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}

	id := r.PathValue("id")

	var checklist *models.Checklist
	if payload.Title == nil {
		checklist, err = a.checklists.Get(r.Context(), user.ID, id)
	} else {
		checklist, err = a.checklists.Rename(r.Context(), user.ID, id, *payload.Title)
	}
	if err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	writeJSON(w, http.StatusOK, renameResponse{ID: checklist.ID, Title: checklist.Title})
}

func (a *API) deleteChecklist(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := a.checklists.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		a.writeError(w, r, err, checklistResource)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
