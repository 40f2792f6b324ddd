package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/invoiceForge/composer-service/internal/export"
	"github.com/invoiceForge/composer-service/internal/storage"
)

const defaultRenderTimeout = 10 * time.Second

// ExportPDF renders the session's draft as a PDF invoice
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.exportDocument(w, r, export.BuildPDF)
}

// ExportXLSX renders the session's draft as an Excel workbook
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportDocument(w, r, export.BuildXLSX)
}

func (h *Handler) exportDocument(w http.ResponseWriter, r *http.Request,
	build func(context.Context, *export.Request) (*export.Document, error)) {

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	req := &export.Request{
		Draft:     sess.Draft,
		Selection: sess.Selection,
		Currency:  h.config.Export.Currency,
	}
	req.InvoiceNumber = r.URL.Query().Get("number")

	// profile is best-effort: an export still renders without branding
	if profile, err := h.backend.BusinessProfile(r.Context()); err == nil {
		req.Business = profile
	} else {
		log.Printf("[export] business profile unavailable, rendering unbranded: %v", err)
	}

	timeout := time.Duration(h.config.Export.RenderTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	doc, err := build(ctx, req)
	if err != nil {
		if errors.Is(err, export.ErrRenderTimeout) {
			h.sendError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		h.sendError(w, http.StatusInternalServerError, "rendering failed: "+err.Error())
		return
	}

	if h.config.Export.ArchiveExports && storage.Client != nil {
		path, err := storage.ArchiveExport(r.Context(), doc.Filename, doc.Data, doc.ContentType)
		if err != nil {
			log.Printf("[export] archive upload failed: %v", err)
		} else {
			log.Printf("[export] archived %s to %s", doc.Filename, path)
		}
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}
