package draft

import (
	"regexp"
	"strconv"

	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/shopspring/decimal"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ComputedValues holds the derived amounts of the validated draft
type ComputedValues struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
	Computed    ComputedValues      `json:"computed"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateForSubmission checks whether the draft can be sent to the
// backend. Missing customer name or an empty item list are errors;
// blank descriptions and zero quantities only need review.
func ValidateForSubmission(d *models.InvoiceDraft) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		NeedsReview: false,
		Errors:      []ValidationError{},
		Warnings:    []ValidationWarning{},
	}

	if d.Customer.Name == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "customer.name",
			Code:    "customer_name_required",
			Message: "Customer name is required",
		})
	}
	if d.Customer.Email != "" && !emailPattern.MatchString(d.Customer.Email) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "customer.email",
			Code:    "email_invalid",
			Message: "Customer email does not look valid",
		})
	}

	if len(d.Items) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "items",
			Code:    "items_required",
			Message: "Invoice needs at least one line item",
		})
	}
	for i, it := range d.Items {
		field := "items." + strconv.Itoa(i)
		if it.Description == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   field + ".description",
				Code:    "description_empty",
				Message: "Line item has no description",
			})
		}
		if it.Quantity.IsZero() {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   field + ".quantity",
				Code:    "quantity_zero",
				Message: "Line item quantity is zero",
			})
		}
		if it.Quantity.IsNegative() {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".quantity",
				Code:    "quantity_negative",
				Message: "Line item quantity cannot be negative",
			})
		}
		if it.UnitPrice.IsNegative() {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".unit_price",
				Code:    "unit_price_negative",
				Message: "Line item unit price cannot be negative",
			})
		}
	}

	if d.TaxRate.IsNegative() || d.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "tax_rate",
			Code:    "tax_rate_out_of_range",
			Message: "Tax rate must be between 0 and 1",
		})
	}
	if d.DueDays < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "due_days",
			Code:    "due_days_negative",
			Message: "Due days cannot be negative",
		})
	}

	result.Computed = ComputedValues{
		Subtotal: Subtotal(d).StringFixed(2),
		Tax:      Tax(d).StringFixed(2),
		Total:    Total(d).StringFixed(2),
	}

	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0

	return result
}
