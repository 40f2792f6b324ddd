package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/invoiceForge/composer-service/internal/template"
)

// ListTemplates returns the built-in template catalog
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"templates": template.DefaultTemplates(),
	})
}

// SelectTemplate picks a catalog template for a session. Selecting a new
// template drops any font overrides from the previous one.
func (h *Handler) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tpl, err := template.Lookup(req.TemplateID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "template not found: "+req.TemplateID)
		return
	}

	var resp SessionResponse
	err = h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		template.Select(&sess.Selection, tpl)
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// ClearTemplate reverts a session to the unstyled default
func (h *Handler) ClearTemplate(w http.ResponseWriter, r *http.Request) {
	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		template.Clear(&sess.Selection)
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// SetFonts merges font overrides into the session's template selection.
// Zero-valued fields keep their current setting.
func (h *Handler) SetFonts(w http.ResponseWriter, r *http.Request) {
	var fonts models.FontSettings
	if err := json.NewDecoder(r.Body).Decode(&fonts); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		if err := template.ApplyFontOverrides(&sess.Selection, fonts); err != nil {
			return err
		}
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		if errors.Is(err, template.ErrNoSelection) {
			h.sendError(w, http.StatusConflict, "select a template before adjusting fonts")
			return
		}
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// GenerateTemplate builds a branded one-off template from the business
// profile. A profile in the request body wins; otherwise the backend's
// stored profile is used.
func (h *Handler) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	var profile models.BusinessProfile
	if r.Body != nil {
		// body is optional, decode errors just mean "use the stored profile"
		json.NewDecoder(r.Body).Decode(&profile)
	}

	if profile.CompanyName == "" {
		stored, err := h.backend.BusinessProfile(r.Context())
		if err != nil {
			h.sendError(w, http.StatusBadGateway, "no profile in request and backend profile unavailable: "+err.Error())
			return
		}
		profile = *stored
	}

	h.sendJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template.GenerateFromProfile(&profile),
	})
}
