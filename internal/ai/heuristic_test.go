package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func extractWith(t *testing.T, transcript string) string {
	t.Helper()
	p := NewHeuristicProvider()
	e := NewExtractor(p)
	out, err := p.ExtractData(context.Background(), e.buildPrompt(transcript, ""))
	require.NoError(t, err)
	return out
}

func TestHeuristicEnglishInvoice(t *testing.T) {
	e := NewExtractor(NewHeuristicProvider())

	res, err := e.ExtractFromText(context.Background(), "create invoice for John Smith for web design 500 dollars", "")
	require.NoError(t, err)

	data := res.InvoiceData
	require.Equal(t, "John Smith", data.CustomerName)
	require.Equal(t, "en-US", data.LanguageDetected)
	require.NotEmpty(t, data.Items)
	require.Equal(t, "Web Design", data.Items[0].Description)
	require.Equal(t, "500", data.Items[0].UnitPrice.String())
	require.InDelta(t, 0.87, data.ConfidenceScore, 0.001)
}

func TestHeuristicDefaultPricing(t *testing.T) {
	e := NewExtractor(NewHeuristicProvider())

	res, err := e.ExtractFromText(context.Background(), "make an invoice for Acme Industries for consulting work", "")
	require.NoError(t, err)

	data := res.InvoiceData
	require.NotEmpty(t, data.Items)
	require.Equal(t, "500", data.Items[0].UnitPrice.String())
}

func TestHeuristicAmountWithoutService(t *testing.T) {
	e := NewExtractor(NewHeuristicProvider())

	res, err := e.ExtractFromText(context.Background(), "charge the client $1,200.50 please", "")
	require.NoError(t, err)

	data := res.InvoiceData
	require.NotEmpty(t, data.Items)
	require.Equal(t, "Professional Services", data.Items[0].Description)
	require.Equal(t, "1200.5", data.Items[0].UnitPrice.String())
}

func TestHeuristicHindiTranscript(t *testing.T) {
	e := NewExtractor(NewHeuristicProvider())

	res, err := e.ExtractFromText(context.Background(), "राहुल के लिए वेबसाइट का काम 5 हज़ार रुपए", "")
	require.NoError(t, err)

	data := res.InvoiceData
	require.Equal(t, "hi-IN", data.LanguageDetected)
	require.NotEmpty(t, data.Items)
	// 5 "hazaar" means 5000
	require.Equal(t, "5000", data.Items[0].UnitPrice.String())
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "en-US", DetectLanguage("invoice for acme"))
	require.Equal(t, "hi-IN", DetectLanguage("चालान बनाओ"))
	require.Equal(t, "hi-IN", DetectLanguage("invoice for राहुल"))
}

func TestTranscriptRecoveredFromPrompt(t *testing.T) {
	e := NewExtractor(NewHeuristicProvider())
	prompt := e.buildPrompt("web design $250", "")

	require.Equal(t, "web design $250", transcriptFromPrompt(prompt))
}

func TestHeuristicEmitsValidJSON(t *testing.T) {
	out := extractWith(t, "create invoice for Jane Doe for seo work 300 dollars")
	require.Contains(t, out, "\"customer_name\"")
	require.Contains(t, out, "Jane Doe")
}
