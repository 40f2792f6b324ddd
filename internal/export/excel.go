package export

import (
	"context"
	"fmt"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Invoice"

// BuildXLSX renders the draft as a spreadsheet with a fixed layout:
// meta rows, a styled item header, one row per item and a totals block.
func BuildXLSX(ctx context.Context, req *Request) (*Document, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet failed: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	symbol := req.currency()
	c := req.Draft.Customer

	companyName := "InvoiceForge"
	if req.Business != nil && req.Business.CompanyName != "" {
		companyName = req.Business.CompanyName
	}

	// meta block
	f.SetCellValue(sheetName, "A1", companyName)
	f.SetCellValue(sheetName, "A2", "Invoice Number")
	f.SetCellValue(sheetName, "B2", req.number())
	f.SetCellValue(sheetName, "A3", "Date")
	f.SetCellValue(sheetName, "B3", req.issuedAt().Format("2006-01-02"))
	f.SetCellValue(sheetName, "A4", "Due")
	f.SetCellValue(sheetName, "B4", req.dueAt().Format("2006-01-02"))
	f.SetCellValue(sheetName, "A5", "Bill To")
	f.SetCellValue(sheetName, "B5", c.Name)
	if c.Email != "" {
		f.SetCellValue(sheetName, "C5", c.Email)
	}

	// item header
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style failed: %w", err)
	}
	f.SetCellValue(sheetName, "A7", "Description")
	f.SetCellValue(sheetName, "B7", "Quantity")
	f.SetCellValue(sheetName, "C7", "Unit Price")
	f.SetCellValue(sheetName, "D7", "Total")
	f.SetCellStyle(sheetName, "A7", "D7", headerStyle)

	// items
	row := 8
	for _, item := range req.Draft.Items {
		qty, _ := item.Quantity.Float64()
		price, _ := item.UnitPrice.Float64()
		total, _ := item.Quantity.Mul(item.UnitPrice).Float64()
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), item.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), qty)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), price)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), total)
		row++
	}

	// totals
	row++
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style failed: %w", err)
	}
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), "Subtotal")
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), money(symbol, draft.Subtotal(req.Draft)))
	row++
	taxPercent := req.Draft.TaxRate.Mul(decimalHundred).StringFixed(0)
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("Tax (%s%%)", taxPercent))
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), money(symbol, draft.Tax(req.Draft)))
	row++
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), money(symbol, draft.Total(req.Draft)))
	f.SetCellStyle(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), boldStyle)

	if req.Draft.Notes != "" {
		row += 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Notes")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), req.Draft.Notes)
	}

	f.SetColWidth(sheetName, "A", "A", 40)
	f.SetColWidth(sheetName, "B", "D", 14)

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx render failed: %w", err)
	}

	return &Document{
		Data:        buf.Bytes(),
		Filename:    req.number() + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}, nil
}
