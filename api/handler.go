package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/invoiceForge/composer-service/internal/ai"
	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/gateway"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/invoiceForge/composer-service/internal/speech"
	"github.com/invoiceForge/composer-service/internal/storage"
)

const (
	MaxUploadSize = 25 * 1024 * 1024 // 25MB audio uploads
	Version       = "1.0.0"
)

// Handler handles HTTP requests for invoice composition
type Handler struct {
	config      *models.Config
	store       *draft.Store
	captures    *speech.Manager
	extractor   *ai.Extractor
	transcriber *ai.Transcriber
	tokens      *gateway.TokenSource
	backend     *gateway.Client
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config) (*Handler, error) {
	provider, err := ai.NewProvider(config.AI.DefaultProvider, config.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	extractor := ai.NewExtractor(provider)

	silence := time.Duration(config.Voice.SilenceTimeoutMS) * time.Millisecond
	tokens := gateway.NewTokenSource()

	return &Handler{
		config:      config,
		store:       draft.NewStore(),
		captures:    speech.NewManager(silence, config.Voice.MinTranscriptLen),
		extractor:   extractor,
		transcriber: ai.NewTranscriber(config.AI.OpenAI, extractor),
		tokens:      tokens,
		backend:     gateway.NewClient(config.Gateway, tokens),
	}, nil
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Draft sessions
	router.HandleFunc("/api/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/api/sessions/{id}", h.GetSession).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", h.DeleteSession).Methods("DELETE")
	router.HandleFunc("/api/sessions/{id}/fields", h.EditField).Methods("PUT")
	router.HandleFunc("/api/sessions/{id}/items", h.AddItem).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/items/{index}", h.RemoveItem).Methods("DELETE")
	router.HandleFunc("/api/sessions/{id}/validate", h.ValidateDraft).Methods("GET")

	// Voice capture relay
	router.HandleFunc("/api/sessions/{id}/voice", h.OpenCapture).Methods("POST")
	router.HandleFunc("/api/voice/{captureId}", h.CaptureStatus).Methods("GET")
	router.HandleFunc("/api/voice/{captureId}/events", h.CaptureEvent).Methods("POST")
	router.HandleFunc("/api/voice/{captureId}/stop", h.StopCapture).Methods("POST")
	router.HandleFunc("/api/voice/{captureId}/fail", h.FailCapture).Methods("POST")

	// AI extraction
	router.HandleFunc("/api/ai/voice-to-invoice", h.VoiceToInvoice).Methods("POST")
	router.HandleFunc("/api/ai/voice-file-to-text", h.VoiceFileToText).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/voice-result/accept", h.AcceptVoiceResult).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/voice-result/reject", h.RejectVoiceResult).Methods("POST")

	// Templates
	router.HandleFunc("/api/templates", h.ListTemplates).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/template", h.SelectTemplate).Methods("PUT")
	router.HandleFunc("/api/sessions/{id}/template", h.ClearTemplate).Methods("DELETE")
	router.HandleFunc("/api/sessions/{id}/template/fonts", h.SetFonts).Methods("PUT")
	router.HandleFunc("/api/business/generate-template", h.GenerateTemplate).Methods("POST")

	// Exports
	router.HandleFunc("/api/sessions/{id}/export/pdf", h.ExportPDF).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/export/xlsx", h.ExportXLSX).Methods("GET")

	// Backend gateway
	router.HandleFunc("/api/login", h.Login).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/submit", h.SubmitInvoice).Methods("POST")
	router.HandleFunc("/api/invoices", h.ListInvoices).Methods("GET")
	router.HandleFunc("/api/invoices", h.DeleteAllInvoices).Methods("DELETE")
	router.HandleFunc("/api/invoices/{id}/status", h.UpdateInvoiceStatus).Methods("PUT")
	router.HandleFunc("/api/invoices/{id}", h.DeleteInvoice).Methods("DELETE")
	router.HandleFunc("/api/invoices/{id}/send-email", h.SendInvoiceEmail).Methods("POST")
	router.HandleFunc("/api/invoices/{id}/reminder", h.SendReminder).Methods("POST")
	router.HandleFunc("/api/business/profile", h.GetBusinessProfile).Methods("GET")
	router.HandleFunc("/api/business/profile", h.SaveBusinessProfile).Methods("POST")
	router.HandleFunc("/api/assets/{kind}", h.UploadAsset).Methods("POST")
	router.HandleFunc("/api/assets/{kind}/{filename}", h.DeleteAsset).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Sessions  int               `json:"sessions"`
	Captures  int               `json:"captures"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	storageStatus := ServiceStatus{Available: storage.Client != nil}
	if storage.Client == nil {
		storageStatus.Error = "object storage not initialized"
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Sessions: h.store.Len(),
		Captures: h.captures.Len(),
		Storage:  storageStatus,
		AI: map[string]string{
			"defaultProvider": h.config.AI.DefaultProvider,
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// sendJSON writes a 2xx JSON response
func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// session resolves the {id} route variable to a deep copy of the draft
// session, safe to read while concurrent edits continue
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*draft.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, err := h.store.Snapshot(id)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "session not found: "+id)
		return nil, false
	}
	return sess, true
}
