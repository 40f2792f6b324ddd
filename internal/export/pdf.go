package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// core font families gofpdf ships with; anything else renders as Arial
var pdfFontFamilies = map[string]string{
	"arial":     "Arial",
	"helvetica": "Helvetica",
	"times":     "Times",
	"georgia":   "Times",
	"courier":   "Courier",
}

func pdfFamily(name string) string {
	if fam, ok := pdfFontFamilies[strings.ToLower(name)]; ok {
		return fam
	}
	return "Arial"
}

// BuildPDF renders the draft as an A4 invoice. The context deadline
// bounds rendering; a finished document is never returned after expiry.
func BuildPDF(ctx context.Context, req *Request) (*Document, error) {
	headerFont, bodyFont := "Arial", "Arial"
	headerSize, bodySize := 22.0, 10.0
	if f := req.Selection.Fonts; f != nil {
		if f.HeaderFont != "" {
			headerFont = pdfFamily(f.HeaderFont)
		}
		if f.BodyFont != "" {
			bodyFont = pdfFamily(f.BodyFont)
		}
		if f.HeaderSize > 0 {
			headerSize = f.HeaderSize
		}
		if f.BodySize > 0 {
			bodySize = f.BodySize
		}
	}

	r, g, b := hexToRGB(req.brandColor())
	symbol := req.currency()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// brand band
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(headerFont, "B", headerSize)
	pdf.SetXY(12, 9)
	companyName := "InvoiceForge"
	if req.Business != nil && req.Business.CompanyName != "" {
		companyName = req.Business.CompanyName
	}
	pdf.CellFormat(120, 10, companyName, "", 0, "L", false, 0, "")
	pdf.SetFont(headerFont, "B", 16)
	pdf.CellFormat(66, 10, "INVOICE", "", 1, "R", false, 0, "")

	// meta block
	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont(bodyFont, "", bodySize)
	pdf.SetXY(12, 36)
	pdf.CellFormat(90, 6, "Invoice Number: "+req.number(), "", 1, "L", false, 0, "")
	pdf.SetX(12)
	pdf.CellFormat(90, 6, "Date: "+req.issuedAt().Format("Jan 2, 2006"), "", 1, "L", false, 0, "")
	pdf.SetX(12)
	pdf.CellFormat(90, 6, "Due: "+req.dueAt().Format("Jan 2, 2006"), "", 1, "L", false, 0, "")

	// bill-to block
	pdf.SetXY(120, 36)
	pdf.SetFont(bodyFont, "B", bodySize)
	pdf.CellFormat(78, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont(bodyFont, "", bodySize)
	c := req.Draft.Customer
	for _, line := range []string{
		c.Name,
		c.BusinessName,
		c.Address,
		strings.TrimSpace(strings.Trim(c.City+", "+c.State+" "+c.ZipCode, ", ")),
		c.Email,
	} {
		if strings.TrimSpace(line) == "" || line == "," {
			continue
		}
		pdf.SetX(120)
		pdf.CellFormat(78, 5, line, "", 1, "L", false, 0, "")
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	// items table
	pdf.SetY(72)
	pdf.SetX(12)
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(bodyFont, "B", bodySize)
	pdf.CellFormat(96, 8, "Description", "", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Total", "", 1, "R", true, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont(bodyFont, "", bodySize)
	fill := false
	for _, item := range req.Draft.Items {
		pdf.SetX(12)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(96, 7, item.Description, "", 0, "L", fill, 0, "")
		pdf.CellFormat(20, 7, item.Quantity.String(), "", 0, "R", fill, 0, "")
		pdf.CellFormat(35, 7, money(symbol, item.UnitPrice), "", 0, "R", fill, 0, "")
		pdf.CellFormat(35, 7, money(symbol, item.Quantity.Mul(item.UnitPrice)), "", 1, "R", fill, 0, "")
		fill = !fill
	}

	// totals
	taxPercent := req.Draft.TaxRate.Mul(decimalHundred).StringFixed(0)
	pdf.Ln(4)
	writeTotal := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetX(116)
		pdf.SetFont(bodyFont, style, bodySize)
		pdf.CellFormat(47, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, value, "", 1, "R", false, 0, "")
	}
	writeTotal("Subtotal", money(symbol, draft.Subtotal(req.Draft)), false)
	writeTotal(fmt.Sprintf("Tax (%s%%)", taxPercent), money(symbol, draft.Tax(req.Draft)), false)
	writeTotal("Total", money(symbol, draft.Total(req.Draft)), true)

	// notes
	if req.Draft.Notes != "" {
		pdf.Ln(8)
		pdf.SetX(12)
		pdf.SetFont(bodyFont, "B", bodySize)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetX(12)
		pdf.SetFont(bodyFont, "", bodySize)
		pdf.MultiCell(186, 5, req.Draft.Notes, "", "L", false)
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf render failed: %w", err)
	}

	return &Document{
		Data:        buf.Bytes(),
		Filename:    req.number() + ".pdf",
		ContentType: "application/pdf",
	}, nil
}

var decimalHundred = decimal.NewFromInt(100)

func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrRenderTimeout, ctx.Err())
	default:
		return nil
	}
}
