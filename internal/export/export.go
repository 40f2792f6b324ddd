package export

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrRenderTimeout is returned when the context deadline cuts rendering short
var ErrRenderTimeout = errors.New("document rendering timed out")

// Document is a rendered export ready to ship to the client
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Request carries everything a renderer needs for one document
type Request struct {
	InvoiceNumber string
	Draft         *models.InvoiceDraft
	Selection     models.TemplateSelection
	Business      *models.BusinessProfile
	// Currency is the display symbol, "$" when empty
	Currency string
	// IssuedAt defaults to now; due date derives from the draft's terms
	IssuedAt time.Time
}

func (r *Request) currency() string {
	if r.Currency == "" {
		return "$"
	}
	return r.Currency
}

func (r *Request) number() string {
	if r.InvoiceNumber == "" {
		return "INV-001"
	}
	return r.InvoiceNumber
}

func (r *Request) issuedAt() time.Time {
	if r.IssuedAt.IsZero() {
		return time.Now()
	}
	return r.IssuedAt
}

func (r *Request) dueAt() time.Time {
	return r.issuedAt().AddDate(0, 0, r.Draft.DueDays)
}

// brandColor returns the selected template's brand color, default blue
func (r *Request) brandColor() string {
	if r.Selection.Template != nil && r.Selection.Template.BrandColor != "" {
		return r.Selection.Template.BrandColor
	}
	return "#3B82F6"
}

// hexToRGB parses "#RRGGBB"; bad input comes back black
func hexToRGB(hex string) (int, int, int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16), int(v >> 8 & 0xFF), int(v & 0xFF)
}

func money(symbol string, d decimal.Decimal) string {
	return fmt.Sprintf("%s%s", symbol, d.StringFixed(2))
}
