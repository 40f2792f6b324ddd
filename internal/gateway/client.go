package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthorized means the backend rejected the token. The stored
	// token is cleared so the next call starts clean.
	ErrUnauthorized = errors.New("backend rejected credentials")

	// ErrNotFound maps backend 404s
	ErrNotFound = errors.New("resource not found")

	// ErrBackend wraps any other non-2xx backend response
	ErrBackend = errors.New("backend request failed")

	// ErrNotConfirmed is returned when a destructive bulk call arrives
	// without both confirmations
	ErrNotConfirmed = errors.New("bulk delete requires double confirmation")
)

// Invoice is the backend's stored invoice resource
type Invoice struct {
	ID            string            `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    string            `json:"customer_id"`
	BusinessID    string            `json:"business_id"`
	IssueDate     string            `json:"issue_date"`
	DueDate       string            `json:"due_date"`
	Items         []models.LineItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	TaxAmount     decimal.Decimal   `json:"tax_amount"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Notes         string            `json:"notes,omitempty"`
	Status        string            `json:"status"`
	AIGenerated   bool              `json:"ai_generated"`
}

// EmailRequest describes an invoice email send. The invoice ID rides in
// the body, not the path: the backend's email endpoint is not nested
// under /api/invoices.
type EmailRequest struct {
	InvoiceID string `json:"invoice_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	AttachPDF bool   `json:"attach_pdf"`
}

// Client talks to the backend invoice API over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenSource
}

// NewClient creates a backend client. tokens must not be nil.
func NewClient(cfg models.GatewayConfig, tokens *TokenSource) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// do runs one request with the bearer token and decodes the JSON
// response into out (out may be nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		log.Printf("[gateway] 401 from %s %s, clearing stored token", method, path)
		c.tokens.Clear()
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrBackend, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login authenticates and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.tokens.Set(resp.AccessToken)
	return nil
}

// Customers lists all backend customers
func (c *Client) Customers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers", nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// UpsertCustomer returns the existing customer with the same email, or
// creates a new one. Customers without an email are always created.
func (c *Client) UpsertCustomer(ctx context.Context, customer models.Customer) (*models.Customer, error) {
	if customer.Email != "" {
		existing, err := c.Customers(ctx)
		if err != nil {
			return nil, err
		}
		for i := range existing {
			if strings.EqualFold(existing[i].Email, customer.Email) {
				return &existing[i], nil
			}
		}
	}

	var created models.Customer
	if err := c.do(ctx, http.MethodPost, "/api/customers", customer, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateInvoice submits the draft. The customer is upserted first and
// the backend computes the invoice number and totals.
func (c *Client) CreateInvoice(ctx context.Context, d *models.InvoiceDraft, templateID string, aiGenerated bool) (*Invoice, error) {
	if res := draft.ValidateForSubmission(d); !res.Valid {
		return nil, fmt.Errorf("draft not ready for submission: %s", res.Errors[0].Message)
	}

	customer, err := c.UpsertCustomer(ctx, d.Customer)
	if err != nil {
		return nil, err
	}

	dueDate := time.Now().AddDate(0, 0, d.DueDays).Format("2006-01-02")
	payload := map[string]interface{}{
		"customer_id":  customer.ID,
		"due_date":     dueDate,
		"items":        d.Items,
		"tax_rate":     d.TaxRate,
		"notes":        d.Notes,
		"ai_generated": aiGenerated,
	}
	if templateID != "" {
		payload["template_id"] = templateID
	}

	var inv Invoice
	if err := c.do(ctx, http.MethodPost, "/api/invoices", payload, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Invoices lists all backend invoices, newest first
func (c *Client) Invoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := c.do(ctx, http.MethodGet, "/api/invoices", nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// UpdateInvoiceStatus moves an invoice between draft/sent/paid/overdue
func (c *Client) UpdateInvoiceStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPut, "/api/invoices/"+id+"/status?status="+status, nil, nil)
}

// DeleteInvoice removes one invoice
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/invoices/"+id, nil, nil)
}

// DeleteAllInvoices wipes every invoice. Both confirmation flags must be
// true; exactly one backend call is made.
func (c *Client) DeleteAllInvoices(ctx context.Context, confirmed, reconfirmed bool) (int, error) {
	if !confirmed || !reconfirmed {
		return 0, ErrNotConfirmed
	}
	var resp struct {
		DeletedCount int `json:"deleted_count"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/invoices", nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// SendInvoiceEmail asks the backend to email an invoice
func (c *Client) SendInvoiceEmail(ctx context.Context, invoiceID string, req EmailRequest) error {
	req.InvoiceID = invoiceID
	return c.do(ctx, http.MethodPost, "/api/email/send-invoice", req, nil)
}

// SendPaymentReminder nudges the customer about an unpaid invoice
func (c *Client) SendPaymentReminder(ctx context.Context, invoiceID string) error {
	return c.do(ctx, http.MethodPost, "/api/invoices/"+invoiceID+"/reminder", nil, nil)
}

// BusinessProfile fetches the caller's business profile
func (c *Client) BusinessProfile(ctx context.Context) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	if err := c.do(ctx, http.MethodGet, "/api/business/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveBusinessProfile creates or replaces the business profile
func (c *Client) SaveBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	return c.do(ctx, http.MethodPost, "/api/business/profile", profile, nil)
}
