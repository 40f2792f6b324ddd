package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/models"
)

// SessionResponse is the full composition state sent back after every
// draft mutation, so clients never need a second round trip for totals.
type SessionResponse struct {
	SessionID    string                        `json:"session_id"`
	Draft        *models.InvoiceDraft          `json:"draft"`
	Template     *models.Template              `json:"template,omitempty"`
	Fonts        *models.FontSettings          `json:"fonts,omitempty"`
	PendingVoice *models.VoiceExtractionResult `json:"pending_voice,omitempty"`
	VoiceError   string                        `json:"voice_error,omitempty"`
	Subtotal     string                        `json:"subtotal"`
	Tax          string                        `json:"tax"`
	Total        string                        `json:"total"`
	UpdatedAt    string                        `json:"updated_at"`
}

func sessionResponse(sess *draft.Session) SessionResponse {
	return SessionResponse{
		SessionID:    sess.ID,
		Draft:        sess.Draft,
		Template:     sess.Selection.Template,
		Fonts:        sess.Selection.Fonts,
		PendingVoice: sess.PendingVoice,
		VoiceError:   sess.VoiceError,
		Subtotal:     draft.Subtotal(sess.Draft).StringFixed(2),
		Tax:          draft.Tax(sess.Draft).StringFixed(2),
		Total:        draft.Total(sess.Draft).StringFixed(2),
		UpdatedAt:    sess.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateSession starts a new draft composition session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	h.sendJSON(w, http.StatusCreated, sessionResponse(sess))
}

// GetSession returns the current state of a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, http.StatusOK, sessionResponse(sess))
}

// DeleteSession discards a session and its draft
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// EditField applies a single manual edit to the draft
func (h *Handler) EditField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		if err := draft.ApplyManualEdit(sess.Draft, req.Field, req.Value); err != nil {
			return err
		}
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// AddItem appends a blank line item to the draft
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		draft.AddItem(sess.Draft)
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// RemoveItem deletes one line item; the last row cannot be removed
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid item index: "+vars["index"])
		return
	}

	var resp SessionResponse
	err = h.store.Update(vars["id"], func(sess *draft.Session) error {
		if err := draft.RemoveItem(sess.Draft, idx); err != nil {
			return err
		}
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// ValidateDraft runs the submission checks without submitting
func (h *Handler) ValidateDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, http.StatusOK, draft.ValidateForSubmission(sess.Draft))
}

// AcceptVoiceResult merges the pending extraction into the draft
func (h *Handler) AcceptVoiceResult(w http.ResponseWriter, r *http.Request) {
	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		if sess.PendingVoice == nil {
			return errNoPendingVoice
		}
		draft.ApplyVoiceResult(sess.Draft, sess.PendingVoice.InvoiceData)
		sess.PendingVoice = nil
		sess.VoiceError = ""
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// RejectVoiceResult discards the pending extraction, leaving the draft untouched
func (h *Handler) RejectVoiceResult(w http.ResponseWriter, r *http.Request) {
	var resp SessionResponse
	err := h.store.Update(mux.Vars(r)["id"], func(sess *draft.Session) error {
		sess.PendingVoice = nil
		sess.VoiceError = ""
		resp = sessionResponse(sess.Clone())
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

var errNoPendingVoice = errors.New("no pending voice result")

// writeDraftError maps draft-layer errors onto HTTP statuses
func (h *Handler) writeDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrSessionNotFound):
		h.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, draft.ErrLastItem), errors.Is(err, errNoPendingVoice):
		h.sendError(w, http.StatusConflict, err.Error())
	case errors.Is(err, draft.ErrUnknownField),
		errors.Is(err, draft.ErrBadValue),
		errors.Is(err, draft.ErrItemIndex):
		h.sendError(w, http.StatusBadRequest, err.Error())
	default:
		h.sendError(w, http.StatusInternalServerError, err.Error())
	}
}
