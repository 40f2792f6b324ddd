package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/gateway"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/invoiceForge/composer-service/internal/storage"
)

// Login authenticates against the backend and stores the issued token
// for all following backend calls
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.sendError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if err := h.backend.Login(r.Context(), req.Email, req.Password); err != nil {
		h.writeGatewayError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "login successful",
		"expires_at": h.tokens.ExpiresAt(),
	})
}

// SubmitInvoice validates the draft, pushes it to the backend and closes
// the session on success
func (h *Handler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		AIGenerated bool `json:"ai_generated"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if res := draft.ValidateForSubmission(sess.Draft); !res.Valid {
		h.sendJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	templateID := ""
	if sess.Selection.Template != nil {
		templateID = sess.Selection.Template.ID
	}

	invoice, err := h.backend.CreateInvoice(r.Context(), sess.Draft, templateID, req.AIGenerated)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}

	h.store.Delete(sess.ID)
	log.Printf("[gateway] invoice %s created from session %s", invoice.InvoiceNumber, sess.ID)

	h.sendJSON(w, http.StatusCreated, map[string]interface{}{
		"invoice":        invoice,
		"session_closed": true,
	})
}

// ListInvoices returns all backend invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.backend.Invoices(r.Context())
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// UpdateInvoiceStatus moves an invoice between draft/sent/paid/overdue
func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		h.sendError(w, http.StatusBadRequest, "status query parameter is required")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.backend.UpdateInvoiceStatus(r.Context(), id, status); err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]string{
		"id":     id,
		"status": status,
	})
}

// DeleteInvoice removes one backend invoice
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteInvoice(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeGatewayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllInvoices wipes every invoice. Both confirmation flags must be
// set in the request body.
func (h *Handler) DeleteAllInvoices(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmed   bool `json:"confirmed"`
		Reconfirmed bool `json:"reconfirmed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.backend.DeleteAllInvoices(r.Context(), req.Confirmed, req.Reconfirmed)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}

	log.Printf("[gateway] bulk delete removed %d invoices", count)
	h.sendJSON(w, http.StatusOK, map[string]int{
		"deleted_count": count,
	})
}

// SendInvoiceEmail asks the backend to email an invoice to its customer
func (h *Handler) SendInvoiceEmail(w http.ResponseWriter, r *http.Request) {
	var req gateway.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recipient == "" {
		h.sendError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.backend.SendInvoiceEmail(r.Context(), id, req); err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]string{
		"message": "invoice email queued",
	})
}

// SendReminder asks the backend to send a payment reminder
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.backend.SendPaymentReminder(r.Context(), id); err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]string{
		"message": "payment reminder queued",
	})
}

// GetBusinessProfile fetches the stored business profile
func (h *Handler) GetBusinessProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.backend.BusinessProfile(r.Context())
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, profile)
}

// SaveBusinessProfile stores the business profile on the backend
func (h *Handler) SaveBusinessProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.BusinessProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if profile.CompanyName == "" {
		h.sendError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	if err := h.backend.SaveBusinessProfile(r.Context(), &profile); err != nil {
		h.writeGatewayError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, profile)
}

// UploadAsset stores a brand asset (logo or signature) in object storage
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if kind != "logo" && kind != "signature" {
		h.sendError(w, http.StatusBadRequest, "asset kind must be logo or signature")
		return
	}

	if storage.Client == nil {
		h.sendError(w, http.StatusServiceUnavailable, "object storage is not available")
		return
	}

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to parse upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	path, err := storage.UploadBrandAsset(r.Context(), kind, header.Filename, file, header.Size, contentType)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}

	url, err := storage.GetPresignedURL(r.Context(), path)
	if err != nil {
		log.Printf("[storage] presign failed for %s: %v", path, err)
	}

	h.sendJSON(w, http.StatusCreated, map[string]string{
		"path": path,
		"url":  url,
	})
}

// DeleteAsset removes a previously uploaded brand asset from object storage
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	if kind != "logo" && kind != "signature" {
		h.sendError(w, http.StatusBadRequest, "asset kind must be logo or signature")
		return
	}

	if storage.Client == nil {
		h.sendError(w, http.StatusServiceUnavailable, "object storage is not available")
		return
	}

	objectPath := "branding/" + kind + "/" + vars["filename"]
	if err := storage.DeleteObject(r.Context(), objectPath); err != nil {
		h.sendError(w, http.StatusInternalServerError, "delete failed: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeGatewayError maps backend client errors onto HTTP statuses
func (h *Handler) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		h.sendError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, gateway.ErrNotFound):
		h.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gateway.ErrNotConfirmed):
		h.sendError(w, http.StatusBadRequest, err.Error())
	default:
		h.sendError(w, http.StatusBadGateway, err.Error())
	}
}
