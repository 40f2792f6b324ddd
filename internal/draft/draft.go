package draft

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownField is returned when a manual edit path does not map to a draft field
	ErrUnknownField = errors.New("unknown draft field")

	// ErrBadValue is returned when a manual edit value cannot be parsed for its field
	ErrBadValue = errors.New("invalid value for field")

	// ErrItemIndex is returned when an item index is out of range
	ErrItemIndex = errors.New("item index out of range")

	// ErrLastItem is returned when removing the only remaining item
	ErrLastItem = errors.New("draft must keep at least one item")
)

// ApplyManualEdit sets a single draft field addressed by a dotted path.
// Supported paths: customer.<field>, items.<index>.<field>, tax_rate,
// notes, due_days. Item totals are recomputed after every edit.
func ApplyManualEdit(d *models.InvoiceDraft, path, value string) error {
	parts := strings.Split(path, ".")

	switch parts[0] {
	case "customer":
		if len(parts) != 2 {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return editCustomer(&d.Customer, parts[1], value)

	case "items":
		if len(parts) != 3 {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 || idx >= len(d.Items) {
			return fmt.Errorf("%w: %s", ErrItemIndex, parts[1])
		}
		return editItem(&d.Items[idx], parts[2], value)

	case "tax_rate":
		rate, err := parseAmount(value)
		if err != nil {
			return fmt.Errorf("%w: tax_rate=%q", ErrBadValue, value)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: tax_rate must be between 0 and 1", ErrBadValue)
		}
		d.TaxRate = rate
		return nil

	case "notes":
		d.Notes = value
		return nil

	case "due_days":
		days, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || days < 0 {
			return fmt.Errorf("%w: due_days=%q", ErrBadValue, value)
		}
		d.DueDays = days
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownField, path)
}

func editCustomer(c *models.Customer, field, value string) error {
	switch field {
	case "name":
		c.Name = value
	case "email":
		c.Email = value
	case "phone":
		c.Phone = value
	case "address":
		c.Address = value
	case "city":
		c.City = value
	case "state":
		c.State = value
	case "zip_code":
		c.ZipCode = value
	case "business_name":
		c.BusinessName = value
	default:
		return fmt.Errorf("%w: customer.%s", ErrUnknownField, field)
	}
	return nil
}

func editItem(it *models.LineItem, field, value string) error {
	switch field {
	case "description":
		it.Description = value
	case "quantity":
		qty, err := parseAmount(value)
		if err != nil || qty.IsNegative() {
			return fmt.Errorf("%w: quantity=%q", ErrBadValue, value)
		}
		it.Quantity = qty
	case "unit_price":
		price, err := parseAmount(value)
		if err != nil || price.IsNegative() {
			return fmt.Errorf("%w: unit_price=%q", ErrBadValue, value)
		}
		it.UnitPrice = price
	default:
		return fmt.Errorf("%w: items.*.%s", ErrUnknownField, field)
	}
	it.Total = it.Quantity.Mul(it.UnitPrice)
	return nil
}

// AddItem appends a blank row with quantity 1
func AddItem(d *models.InvoiceDraft) {
	d.Items = append(d.Items, models.LineItem{Quantity: decimal.NewFromInt(1)})
}

// RemoveItem deletes the item at idx. The last remaining item cannot be removed.
func RemoveItem(d *models.InvoiceDraft, idx int) error {
	if idx < 0 || idx >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, idx)
	}
	if len(d.Items) == 1 {
		return ErrLastItem
	}
	d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
	return nil
}

// ApplyVoiceResult merges extracted voice data into the draft. Non-empty
// scalar fields overwrite their targets; extracted items replace the item
// list entirely. Empty extraction fields leave the draft untouched.
func ApplyVoiceResult(d *models.InvoiceDraft, data *models.VoiceInvoiceData) {
	if data == nil {
		return
	}
	if data.CustomerName != "" {
		d.Customer.Name = data.CustomerName
	}
	if data.CustomerEmail != "" {
		d.Customer.Email = data.CustomerEmail
	}
	if data.CustomerAddress != "" {
		d.Customer.Address = data.CustomerAddress
	}
	if data.CustomerCity != "" {
		d.Customer.City = data.CustomerCity
	}
	if data.CustomerState != "" {
		d.Customer.State = data.CustomerState
	}
	if data.BusinessName != "" {
		d.Customer.BusinessName = data.BusinessName
	}
	if data.Notes != "" {
		d.Notes = data.Notes
	}
	if data.DueDays > 0 {
		d.DueDays = data.DueDays
	}
	if len(data.Items) > 0 {
		items := make([]models.LineItem, len(data.Items))
		for i, it := range data.Items {
			it.Total = it.Quantity.Mul(it.UnitPrice)
			items[i] = it
		}
		d.Items = items
	}
}

// Subtotal sums all item totals
func Subtotal(d *models.InvoiceDraft) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.Quantity.Mul(it.UnitPrice))
	}
	return sum
}

// Tax applies the draft's tax rate to the subtotal
func Tax(d *models.InvoiceDraft) decimal.Decimal {
	return Subtotal(d).Mul(d.TaxRate)
}

// Total is subtotal plus tax
func Total(d *models.InvoiceDraft) decimal.Decimal {
	return Subtotal(d).Add(Tax(d))
}

// parseAmount handles decimal strings with currency symbols, thousand
// separators and surrounding whitespace ("$1,250.00" -> 1250.00)
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}
