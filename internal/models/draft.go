package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer holds the billing party of a draft. Only Name is required
// before submission; everything else can stay empty.
type Customer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

// LineItem is a single row of an invoice draft. Total is derived from
// Quantity and UnitPrice and is never settable on its own.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceDraft is the in-memory invoice being composed during one
// creation session. Items is never empty: a draft always carries at
// least one (possibly blank) row.
type InvoiceDraft struct {
	Customer Customer        `json:"customer"`
	Items    []LineItem      `json:"items"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Notes    string          `json:"notes,omitempty"`
	DueDays  int             `json:"due_days"`
}

// VoiceInvoiceData is the structured guess an extraction run produces.
// All fields are optional: the merge policy only applies non-empty ones.
type VoiceInvoiceData struct {
	CustomerName    string     `json:"customer_name,omitempty"`
	CustomerEmail   string     `json:"customer_email,omitempty"`
	CustomerAddress string     `json:"customer_address,omitempty"`
	CustomerCity    string     `json:"customer_city,omitempty"`
	CustomerState   string     `json:"customer_state,omitempty"`
	BusinessName    string     `json:"business_name,omitempty"`
	Items           []LineItem `json:"items,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	DueDays         int        `json:"due_days,omitempty"`

	LanguageDetected    string   `json:"language_detected,omitempty"`
	OriginalText        string   `json:"original_text,omitempty"`
	ConfidenceScore     float64  `json:"confidence_score,omitempty"`
	TemplateSuggestions []string `json:"template_suggestions,omitempty"`
	ExtractedServices   []string `json:"extracted_services,omitempty"`
}

// VoiceExtractionResult is what the extraction pipeline hands back to the
// caller. Suggestions are advisory text and are never applied to a draft
// automatically; the data is held only until the user accepts or rejects it.
type VoiceExtractionResult struct {
	ID          string            `json:"id"`
	Message     string            `json:"message"`
	Suggestions []string          `json:"suggestions"`
	InvoiceData *VoiceInvoiceData `json:"invoice_data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TranscriptResult is the response of the audio-file transcription path.
type TranscriptResult struct {
	Transcript         string            `json:"transcript"`
	Confidence         float64           `json:"confidence"`
	LanguageDetected   string            `json:"language_detected"`
	InvoiceSuggestions []string          `json:"invoice_suggestions"`
	StructuredData     *VoiceInvoiceData `json:"structured_data,omitempty"`
}

// BusinessProfile mirrors the backend's business profile resource. It feeds
// template generation and the branded blocks of exported documents.
type BusinessProfile struct {
	CompanyName  string `json:"company_name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Country      string `json:"country,omitempty"`
	Website      string `json:"website,omitempty"`
	TaxID        string `json:"tax_id,omitempty"`
	BrandColor   string `json:"brand_color,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	SignatureURL string `json:"signature_url,omitempty"`
}

// DefaultTaxRate is applied to every fresh draft.
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// DefaultDueDays is applied to every fresh draft.
const DefaultDueDays = 30

// NewInvoiceDraft returns a draft with one blank item, the default tax
// rate and the default due terms.
func NewInvoiceDraft() *InvoiceDraft {
	return &InvoiceDraft{
		Items:   []LineItem{{Quantity: decimal.NewFromInt(1)}},
		TaxRate: DefaultTaxRate,
		DueDays: DefaultDueDays,
	}
}
