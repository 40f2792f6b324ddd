package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrExtractionFailed wraps any provider or parse failure. Extraction is
// single-attempt: the caller decides whether to re-run it.
var ErrExtractionFailed = errors.New("voice extraction failed")

const transcriptMarker = "Transcript:\n"

// Extractor turns a voice transcript into a structured invoice guess
type Extractor struct {
	provider Provider
}

// NewExtractor creates an extractor bound to one provider
func NewExtractor(provider Provider) *Extractor {
	return &Extractor{provider: provider}
}

// ExtractFromText processes a transcript and returns structured invoice
// data plus advisory suggestions. customerHint, when non-empty, names the
// customer the caller already knows and fills in for a transcript that
// never mentions one. The result is never applied to a draft here; the
// caller holds it for user confirmation.
func (e *Extractor) ExtractFromText(ctx context.Context, transcript, customerHint string) (*models.VoiceExtractionResult, error) {
	start := time.Now()

	prompt := e.buildPrompt(transcript, customerHint)
	response, err := e.provider.ExtractData(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: provider %s: %v", ErrExtractionFailed, e.provider.Name(), err)
	}

	log.Printf("[ai] provider=%s response_len=%d duration=%.2fs",
		e.provider.Name(), len(response), time.Since(start).Seconds())

	data, err := e.parseResponse(response, transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if data.CustomerName == "" {
		data.CustomerName = strings.TrimSpace(customerHint)
	}
	data.TemplateSuggestions = suggestTemplates(transcript)

	return &models.VoiceExtractionResult{
		ID:          uuid.NewString(),
		Message:     buildMessage(data),
		Suggestions: buildSuggestions(data),
		InvoiceData: data,
		CreatedAt:   time.Now(),
	}, nil
}

// buildPrompt asks for the extraction JSON document. The transcript rides
// after the marker so offline providers can recover it verbatim.
func (e *Extractor) buildPrompt(transcript, customerHint string) string {
	hint := ""
	if customerHint != "" {
		hint = "The customer being billed is likely " + customerHint + ".\n\n"
	}
	return hint + `You turn a spoken invoice request into structured data. The speaker may mix English and Hindi.

Return ONLY valid JSON (no markdown, no comments):
{
  "customer_name": "person or company being billed, empty string if not mentioned",
  "customer_email": "empty string if not mentioned",
  "customer_address": "empty string if not mentioned",
  "customer_city": "empty string if not mentioned",
  "customer_state": "empty string if not mentioned",
  "business_name": "customer's company, empty string if not mentioned",
  "items": [{"description": "service or product", "quantity": 1, "unit_price": 500, "total": 500}],
  "notes": "any payment remarks, empty string if none",
  "due_days": 0,
  "language_detected": "en-US or hi-IN",
  "extracted_services": ["raw service phrases heard"],
  "confidence_score": 0.0
}

Rules:
1. NEVER invent amounts; if a service has no price, use 500 as unit_price
2. Quantities default to 1
3. due_days 0 means not mentioned
4. confidence_score between 0 and 1 reflects how sure you are

` + transcriptMarker + transcript
}

// parseResponse converts the provider JSON to VoiceInvoiceData. Numbers
// may arrive as strings with thousand separators.
func (e *Extractor) parseResponse(response, transcript string) (*models.VoiceInvoiceData, error) {
	// strip markdown code fences if present
	cleaned := strings.TrimSpace(response)
	backticks := "```"
	cleaned = strings.ReplaceAll(cleaned, backticks+"json", "")
	cleaned = strings.ReplaceAll(cleaned, backticks, "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		CustomerName      string      `json:"customer_name"`
		CustomerEmail     string      `json:"customer_email"`
		CustomerAddress   string      `json:"customer_address"`
		CustomerCity      string      `json:"customer_city"`
		CustomerState     string      `json:"customer_state"`
		BusinessName      string      `json:"business_name"`
		Notes             string      `json:"notes"`
		DueDays           interface{} `json:"due_days"`
		LanguageDetected  string      `json:"language_detected"`
		ExtractedServices []string    `json:"extracted_services"`
		ConfidenceScore   interface{} `json:"confidence_score"`
		Items             []struct {
			Description string      `json:"description"`
			Quantity    interface{} `json:"quantity"`
			UnitPrice   interface{} `json:"unit_price"`
			Total       interface{} `json:"total"`
		} `json:"items"`
	}

	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w - Response: %s", err, cleaned)
	}

	data := &models.VoiceInvoiceData{
		CustomerName:      strings.TrimSpace(raw.CustomerName),
		CustomerEmail:     strings.TrimSpace(raw.CustomerEmail),
		CustomerAddress:   strings.TrimSpace(raw.CustomerAddress),
		CustomerCity:      strings.TrimSpace(raw.CustomerCity),
		CustomerState:     strings.TrimSpace(raw.CustomerState),
		BusinessName:      strings.TrimSpace(raw.BusinessName),
		Notes:             strings.TrimSpace(raw.Notes),
		DueDays:           int(parseDecimal(raw.DueDays).IntPart()),
		LanguageDetected:  raw.LanguageDetected,
		ExtractedServices: raw.ExtractedServices,
		OriginalText:      transcript,
	}
	if data.LanguageDetected == "" {
		data.LanguageDetected = DetectLanguage(transcript)
	}

	data.Items = make([]models.LineItem, len(raw.Items))
	for i, item := range raw.Items {
		qty := parseDecimal(item.Quantity)
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		price := parseDecimal(item.UnitPrice)
		data.Items[i] = models.LineItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    qty,
			UnitPrice:   price,
			Total:       qty.Mul(price),
		}
	}

	confidence, _ := parseDecimal(raw.ConfidenceScore).Float64()
	if confidence <= 0 || confidence > 1 {
		confidence = calculateConfidence(data)
	}
	data.ConfidenceScore = confidence

	return data, nil
}

// parseDecimal handles flexible number parsing from interface{}
// Supports: numbers, strings, strings with commas (e.g., "3,965.34")
func parseDecimal(v interface{}) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case string:
		if val == "" {
			return decimal.Zero
		}
		cleaned := strings.ReplaceAll(val, ",", "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		if val == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(string(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// calculateConfidence scores extraction quality when the provider did not
// report its own confidence.
//
// Score breakdown (max 1.0):
//
//	Customer name present:  0.30
//	At least one item:      0.30
//	Every item has a price: 0.20
//	Services recognized:    0.10
//	Language detected:      0.10
func calculateConfidence(data *models.VoiceInvoiceData) float64 {
	var score float64

	if data.CustomerName != "" {
		score += 0.30
	}
	if len(data.Items) > 0 {
		score += 0.30

		allPriced := true
		for _, it := range data.Items {
			if it.UnitPrice.IsZero() {
				allPriced = false
				break
			}
		}
		if allPriced {
			score += 0.20
		}
	}
	if len(data.ExtractedServices) > 0 {
		score += 0.10
	}
	if data.LanguageDetected != "" {
		score += 0.10
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// suggestTemplates maps transcript content to catalog template IDs
func suggestTemplates(transcript string) []string {
	lower := strings.ToLower(transcript)
	switch {
	case containsAny(lower, "web", "design", "development"):
		return []string{"modern-blue", "creative-green"}
	case containsAny(lower, "consulting", "business", "strategy"):
		return []string{"professional-blue", "elegant-purple"}
	default:
		return []string{"minimal-gray", "classic-black"}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func buildMessage(data *models.VoiceInvoiceData) string {
	if data.LanguageDetected == "hi-IN" {
		return fmt.Sprintf("AI ने आपका अनुरोध समझा: %d सेवाएं और %d आइटम मिले। चालान तैयार करने के लिए तैयार!",
			len(data.ExtractedServices), len(data.Items))
	}
	return fmt.Sprintf("AI understood your request: Found %d services and %d items. Ready to create your invoice!",
		len(data.ExtractedServices), len(data.Items))
}

func buildSuggestions(data *models.VoiceInvoiceData) []string {
	if data.LanguageDetected == "hi-IN" {
		return []string{
			"भाषा पहचानी गई: हिंदी",
			fmt.Sprintf("सेवाएं मिली: %d", len(data.ExtractedServices)),
			fmt.Sprintf("आइटम मिले: %d", len(data.Items)),
			"टेम्प्लेट सुझाव तैयार",
		}
	}
	return []string{
		"Language detected: English",
		fmt.Sprintf("Services found: %d", len(data.ExtractedServices)),
		fmt.Sprintf("Items found: %d", len(data.Items)),
		"Template suggestions ready",
	}
}
