package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/invoiceForge/composer-service/internal/ai"
	"github.com/invoiceForge/composer-service/internal/models"
)

func newTestHandler(t *testing.T, backendURL string) *Handler {
	t.Helper()
	config := &models.Config{
		Port: 8080,
		Host: "127.0.0.1",
		Voice: models.VoiceConfig{
			SilenceTimeoutMS: 60000, // never fires during a test
			MinTranscriptLen: 10,
		},
		AI: models.AIConfig{DefaultProvider: "heuristic"},
		Gateway: models.GatewayConfig{
			BaseURL:   backendURL,
			TimeoutMS: 2000,
		},
	}
	h, err := NewHandler(config)
	require.NoError(t, err)
	return h
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	// tests reuse decode targets across requests; zero them first so
	// fields omitted from the new response don't keep stale values
	v := reflect.ValueOf(out).Elem()
	v.Set(reflect.Zero(v.Type()))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "customer.name", "value": "Acme Corp"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	decode(t, rec, &resp)
	require.Equal(t, "Acme Corp", resp.Draft.Customer.Name)

	rec = doJSON(t, router, "POST", "/api/sessions/"+id+"/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Len(t, resp.Draft.Items, 2)

	rec = doJSON(t, router, "DELETE", "/api/sessions/"+id+"/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Len(t, resp.Draft.Items, 1)

	rec = doJSON(t, router, "DELETE", "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionTotalsInResponse(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.description", "value": "Design"})
	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.quantity", "value": "2"})
	rec := doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.unit_price", "value": "250"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	decode(t, rec, &resp)
	require.Equal(t, "500.00", resp.Subtotal)
	require.Equal(t, "50.00", resp.Tax)
	require.Equal(t, "550.00", resp.Total)
}

func TestEditFieldErrors(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "customer.nickname", "value": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.quantity", "value": "lots"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// the last item row cannot be removed
	rec = doJSON(t, router, "DELETE", "/api/sessions/"+id+"/items/0", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, "PUT", "/api/sessions/unknown/fields",
		map[string]string{"field": "notes", "value": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateDraft(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "GET", "/api/sessions/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Code string `json:"code"`
		} `json:"errors"`
	}
	decode(t, rec, &result)
	require.False(t, result.Valid)

	codes := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		codes[i] = e.Code
	}
	require.Contains(t, codes, "customer_name_required")
}

func TestVoiceToInvoiceParksResultOnSession(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "POST", "/api/ai/voice-to-invoice", map[string]string{
		"text":       "create invoice for John Smith for web design 500 dollars",
		"session_id": id,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.VoiceExtractionResult
	decode(t, rec, &result)
	require.NotNil(t, result.InvoiceData)
	require.Equal(t, "John Smith", result.InvoiceData.CustomerName)

	// result is parked, not applied
	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	var resp SessionResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.PendingVoice)
	require.Empty(t, resp.Draft.Customer.Name)

	// accept merges it into the draft
	rec = doJSON(t, router, "POST", "/api/sessions/"+id+"/voice-result/accept", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Nil(t, resp.PendingVoice)
	require.Equal(t, "John Smith", resp.Draft.Customer.Name)
	require.Equal(t, "Web Design", resp.Draft.Items[0].Description)

	// a second accept has nothing to work with
	rec = doJSON(t, router, "POST", "/api/sessions/"+id+"/voice-result/accept", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestVoiceToInvoiceRejectsShortText(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()

	rec := doJSON(t, router, "POST", "/api/ai/voice-to-invoice",
		map[string]string{"text": "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectVoiceResult(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	doJSON(t, router, "POST", "/api/ai/voice-to-invoice", map[string]string{
		"text":       "create invoice for John Smith for web design 500 dollars",
		"session_id": id,
	})

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/voice-result/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	decode(t, rec, &resp)
	require.Nil(t, resp.PendingVoice)
	require.Empty(t, resp.Draft.Customer.Name)
}

func TestVoiceCaptureFlow(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/voice", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var opened map[string]string
	decode(t, rec, &opened)
	captureID := opened["capture_id"]
	require.NotEmpty(t, captureID)
	require.Equal(t, "listening", opened["state"])

	rec = doJSON(t, router, "POST", "/api/voice/"+captureID+"/events",
		map[string]string{"kind": "partial", "text": "create invoice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "POST", "/api/voice/"+captureID+"/events",
		map[string]string{"kind": "final", "text": "create invoice for John Smith for web design 500 dollars"})
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]string
	decode(t, rec, &status)
	require.Contains(t, status["transcript"], "John Smith")

	rec = doJSON(t, router, "POST", "/api/voice/"+captureID+"/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// extraction ran on stop and parked the result on the draft session
	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	var resp SessionResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.PendingVoice)
	require.Equal(t, "John Smith", resp.PendingVoice.InvoiceData.CustomerName)

	// capture is gone once finished
	rec = doJSON(t, router, "GET", "/api/voice/"+captureID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }
func (brokenProvider) ExtractData(context.Context, string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestCaptureExtractionFailureSurfacesOnSession(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")
	h.extractor = ai.NewExtractor(brokenProvider{})
	router := h.SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/voice", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened map[string]string
	decode(t, rec, &opened)

	doJSON(t, router, "POST", "/api/voice/"+opened["capture_id"]+"/events",
		map[string]string{"kind": "final", "text": "invoice for Jane Doe consulting 300 dollars"})
	rec = doJSON(t, router, "POST", "/api/voice/"+opened["capture_id"]+"/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// the failure is parked on the session, not just logged
	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	var resp SessionResponse
	decode(t, rec, &resp)
	require.Nil(t, resp.PendingVoice)
	require.Contains(t, resp.VoiceError, "model unavailable")

	// a fresh capture clears the stale error
	rec = doJSON(t, router, "POST", "/api/sessions/"+id+"/voice", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	decode(t, rec, &resp)
	require.Empty(t, resp.VoiceError)
}

func TestCaptureRejectsUnknownEventKind(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/voice", nil)
	var opened map[string]string
	decode(t, rec, &opened)

	rec = doJSON(t, router, "POST", "/api/voice/"+opened["capture_id"]+"/events",
		map[string]string{"kind": "interim", "text": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateSelection(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "GET", "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Templates []models.Template `json:"templates"`
	}
	decode(t, rec, &catalog)
	require.Len(t, catalog.Templates, 6)

	// fonts before a template is selected
	rec = doJSON(t, router, "PUT", "/api/sessions/"+id+"/template/fonts",
		map[string]interface{}{"header_font": "georgia"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, "PUT", "/api/sessions/"+id+"/template",
		map[string]string{"template_id": "modern-blue"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	decode(t, rec, &resp)
	require.Equal(t, "modern-blue", resp.Template.ID)

	rec = doJSON(t, router, "PUT", "/api/sessions/"+id+"/template",
		map[string]string{"template_id": "no-such-template"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, "DELETE", "/api/sessions/"+id+"/template", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Nil(t, resp.Template)
}

func TestGenerateTemplateFromBody(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()

	rec := doJSON(t, router, "POST", "/api/business/generate-template",
		models.BusinessProfile{CompanyName: "Forge Studio", BrandColor: "#10B981"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Template models.Template `json:"template"`
	}
	decode(t, rec, &resp)
	require.Equal(t, "Forge Studio Business Template", resp.Template.Name)
	require.Equal(t, "green", resp.Template.Color)
}

func TestExportPDF(t *testing.T) {
	// backend without a profile: export still renders unbranded
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer backend.Close()

	router := newTestHandler(t, backend.URL).SetupRoutes()
	id := createSession(t, router)

	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "customer.name", "value": "Acme Corp"})
	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.description", "value": "Web Design"})
	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.unit_price", "value": "500"})

	rec := doJSON(t, router, "GET", "/api/sessions/"+id+"/export/pdf?number=INV-042", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
}

func TestExportXLSX(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer backend.Close()

	router := newTestHandler(t, backend.URL).SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "GET", "/api/sessions/"+id+"/export/xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "spreadsheet")
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestSubmitInvoice(t *testing.T) {
	var invoicePayload map[string]interface{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == "GET" && r.URL.Path == "/api/customers":
			json.NewEncoder(w).Encode([]models.Customer{})
		case r.Method == "POST" && r.URL.Path == "/api/customers":
			json.NewEncoder(w).Encode(models.Customer{ID: "cust-1", Name: "Acme Corp"})
		case r.Method == "POST" && r.URL.Path == "/api/invoices":
			json.NewDecoder(r.Body).Decode(&invoicePayload)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":             "inv-1",
				"invoice_number": "INV-007",
				"customer_id":    "cust-1",
				"status":         "draft",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	router := newTestHandler(t, backend.URL).SetupRoutes()
	id := createSession(t, router)

	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "customer.name", "value": "Acme Corp"})
	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.description", "value": "Web Design"})
	doJSON(t, router, "PUT", "/api/sessions/"+id+"/fields",
		map[string]string{"field": "items.0.unit_price", "value": "500"})

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/submit",
		map[string]bool{"ai_generated": true})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Invoice       map[string]interface{} `json:"invoice"`
		SessionClosed bool                   `json:"session_closed"`
	}
	decode(t, rec, &resp)
	require.Equal(t, "INV-007", resp.Invoice["invoice_number"])
	require.True(t, resp.SessionClosed)
	require.Equal(t, true, invoicePayload["ai_generated"])
	require.Equal(t, "cust-1", invoicePayload["customer_id"])

	// session is gone after a successful submit
	rec = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitInvalidDraft(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()
	id := createSession(t, router)

	rec := doJSON(t, router, "POST", "/api/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var result struct {
		Valid bool `json:"valid"`
	}
	decode(t, rec, &result)
	require.False(t, result.Valid)
}

func TestDeleteAllInvoicesRequiresConfirmation(t *testing.T) {
	var calls int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]int{"deleted_count": 3})
	}))
	defer backend.Close()

	router := newTestHandler(t, backend.URL).SetupRoutes()

	rec := doJSON(t, router, "DELETE", "/api/invoices",
		map[string]bool{"confirmed": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, calls)

	rec = doJSON(t, router, "DELETE", "/api/invoices",
		map[string]bool{"confirmed": true, "reconfirmed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)

	var resp map[string]int
	decode(t, rec, &resp)
	require.Equal(t, 3, resp["deleted_count"])
}

func TestDeleteAssetValidation(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()

	rec := doJSON(t, router, "DELETE", "/api/assets/banner/logo.png", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// object storage is not initialized in tests
	rec = doJSON(t, router, "DELETE", "/api/assets/logo/logo.png", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()

	rec := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decode(t, rec, &resp)
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "heuristic", resp.AI["defaultProvider"])
	require.False(t, resp.Storage.Available)
}

func TestVoiceFileRejectsNonAudio(t *testing.T) {
	router := newTestHandler(t, "http://backend.invalid").SetupRoutes()

	var buf bytes.Buffer
	req := httptest.NewRequest("POST", "/api/ai/voice-file-to-text", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
