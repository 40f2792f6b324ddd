package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// HeuristicProvider extracts invoice data with regular expressions, no
// network calls. It understands English and Hindi transcripts and is the
// default provider when no API key is configured.
type HeuristicProvider struct{}

// NewHeuristicProvider creates the offline extraction provider
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{}
}

func (p *HeuristicProvider) Name() string { return "heuristic" }

// DefaultUnitPrice is assumed when a service is mentioned without an amount
const DefaultUnitPrice = 500.0

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([\d,]+\.?\d*)`),      // $500, $1,000.50
	regexp.MustCompile(`(?i)([\d,]+) dollars?`), // 500 dollars
	regexp.MustCompile(`(?i)([\d,]+) rupees?`),  // 500 rupees
	regexp.MustCompile(`([\d,]+) डॉलर`),         // Hindi: 500 dollars
	regexp.MustCompile(`([\d,]+) रुपए`),         // Hindi: 500 rupees
	regexp.MustCompile(`([\d,]+) रुपये`),        // Hindi: 500 rupees (alt spelling)
	regexp.MustCompile(`(\d+) सौ`),              // Hindi: 5 "hundred" (500)
	regexp.MustCompile(`(\d+) हज़ार`),           // Hindi: 1 "thousand" (1000)
	regexp.MustCompile(`(\d+) हजार`),            // Hindi: alt spelling
	regexp.MustCompile(`([०-९,]+) डॉलर`),        // Devanagari digits
	regexp.MustCompile(`([०-९,]+) रुपए`),
}

var devanagariDigits = strings.NewReplacer(
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

var englishServiceKeywords = []string{
	"web design", "website", "ui/ux", "consulting", "development",
	"programming", "design", "marketing", "seo", "maintenance",
	"software", "app", "application", "mobile app", "e-commerce",
	"logo design", "graphic design", "content writing", "translation",
}

var hindiServiceKeywords = []string{
	"वेब डिज़ाइन", "वेबसाइट", "वेब साइट", "परामर्श", "सलाह",
	"विकास", "डिज़ाइन", "डिजाइन", "प्रोग्रामिंग", "सॉफ्टवेयर",
	"एप्लिकेशन", "ऐप", "मोबाइल ऐप", "ई-कॉमर्स", "लोगो डिज़ाइन",
	"ग्राफिक डिज़ाइन", "कंटेंट राइटिंग", "अनुवाद", "मार्केटिंग",
	"एसईओ", "रखरखाव", "मेंटेनेंस", "सेवा", "काम", "प्रोजेक्ट",
}

var englishNamePatterns = []*regexp.Regexp{
	// "create invoice for [Name]" first, then looser fallbacks
	regexp.MustCompile(`(?i)(?:create|make)\s+(?:a\s+)?invoice\s+for\s+([A-Za-z][A-Za-z\s]*?)\s+for\s+`),
	regexp.MustCompile(`(?i)(?:create|make)\s+(?:a\s+)?invoice\s+for\s+([A-Za-z][A-Za-z\s]*?)\s+(?:web|design|consulting|project|software|development|service)`),
	regexp.MustCompile(`(?i)(?:create|make)\s+(?:a\s+)?invoice\s+for\s+([A-Za-z][A-Za-z\s]*?)\s+\$`),
	regexp.MustCompile(`(?i)(?:create|make)\s+(?:a\s+)?invoice\s+for\s+([A-Za-z][A-Za-z\s]*?)\s+[0-9]`),
	regexp.MustCompile(`(?i)for\s+([A-Za-z][A-Za-z\s]*?)\s+for\s+`),
	regexp.MustCompile(`(?i)for\s+([A-Za-z][A-Za-z\s]*?)\s+(?:web|design|consulting|project|software|development|service)`),
	regexp.MustCompile(`(?i)for\s+([A-Za-z][A-Za-z\s]*?)\s+\$`),
	regexp.MustCompile(`(?i)for\s+([A-Za-z][A-Za-z\s]*?)\s+[0-9]`),
	regexp.MustCompile(`(?i)client\s+([A-Za-z][A-Za-z\s]*?)(?:,|\.|$)`),
	regexp.MustCompile(`(?i)customer\s+([A-Za-z][A-Za-z\s]*?)(?:,|\.|$)`),
}

var hindiNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([अ-ह\s]+?) के लिए`),
	regexp.MustCompile(`ग्राहक ([अ-ह\s]+?)(?:,|\.|$)`),
	regexp.MustCompile(`क्लाइंट ([अ-ह\s]+?)(?:,|\.|$)`),
	regexp.MustCompile(`([A-Za-z][A-Za-z\s]*?) के लिए`),
	regexp.MustCompile(`([A-Za-z][A-Za-z\s]*?) का चालान`),
}

var englishGeneralServicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\w+\s*\w*) service`),
	regexp.MustCompile(`(?i)(\w+\s*\w*) work`),
	regexp.MustCompile(`(?i)(\w+\s*\w*) project`),
}

var hindiGeneralServicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(.*?) की सेवा`),
	regexp.MustCompile(`(.*?) का काम`),
	regexp.MustCompile(`(.*?) प्रोजेक्ट`),
}

// DetectLanguage returns hi-IN when the text carries Devanagari script
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return "hi-IN"
		}
	}
	return "en-US"
}

// ExtractData runs the regex engine and returns its findings as the same
// JSON document the network providers are prompted to produce
func (p *HeuristicProvider) ExtractData(_ context.Context, prompt string) (string, error) {
	// the transcript rides at the end of the prompt after a blank line
	text := transcriptFromPrompt(prompt)
	lang := DetectLanguage(text)

	amounts := extractAmounts(text)
	services := extractServices(text, lang)
	name := extractCustomerName(text, lang)
	items := assembleItems(services, amounts, lang)

	doc := map[string]interface{}{
		"customer_name":      name,
		"items":              items,
		"language_detected":  lang,
		"extracted_services": services,
		"confidence_score":   0.87,
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractAmounts(text string) []float64 {
	var amounts []float64
	for _, pattern := range amountPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			raw := devanagariDigits.Replace(match[1])
			raw = strings.ReplaceAll(raw, ",", "")
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			// bare counts before Hindi multiplier words
			if strings.Contains(text, "सौ") && amount < 100 {
				amount *= 100
			} else if (strings.Contains(text, "हज़ार") || strings.Contains(text, "हजार")) && amount < 100 {
				amount *= 1000
			}
			if amount > 0 {
				amounts = append(amounts, amount)
			}
		}
	}
	return amounts
}

func extractServices(text, lang string) []string {
	keywords := englishServiceKeywords
	if lang == "hi-IN" {
		keywords = hindiServiceKeywords
	}

	var services []string
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			services = append(services, kw)
		}
	}
	if len(services) > 0 {
		return services
	}

	// fall back to loose "<something> service/work/project" phrases
	patterns := englishGeneralServicePatterns
	if lang == "hi-IN" {
		patterns = hindiGeneralServicePatterns
	}
	for _, pattern := range patterns {
		matches := pattern.FindAllStringSubmatch(text, 2)
		for _, m := range matches {
			if s := strings.TrimSpace(m[1]); s != "" {
				services = append(services, s)
			}
		}
		if len(services) > 0 {
			break
		}
	}
	return services
}

func extractCustomerName(text, lang string) string {
	patterns := englishNamePatterns
	if lang == "hi-IN" {
		patterns = hindiNamePatterns
	}
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func assembleItems(services []string, amounts []float64, lang string) []map[string]interface{} {
	var items []map[string]interface{}
	add := func(desc string, price float64) {
		items = append(items, map[string]interface{}{
			"description": desc,
			"quantity":    1,
			"unit_price":  price,
			"total":       price,
		})
	}

	switch {
	case len(services) > 0 && len(amounts) > 0:
		for i, service := range services {
			if i >= len(amounts) {
				break
			}
			add(titleCase(service), amounts[i])
		}
	case len(services) > 0:
		for i, service := range services {
			if i >= 3 {
				break
			}
			add(titleCase(service), DefaultUnitPrice)
		}
	case len(amounts) > 0:
		generic := "Professional Services"
		if lang == "hi-IN" {
			generic = "व्यावसायिक सेवा"
		}
		for i, amount := range amounts {
			if i >= 3 {
				break
			}
			add(generic, amount)
		}
	}
	return items
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// transcriptFromPrompt recovers the raw transcript from the extraction
// prompt so the regex engine works on spoken text, not instructions
func transcriptFromPrompt(prompt string) string {
	if idx := strings.LastIndex(prompt, transcriptMarker); idx >= 0 {
		return strings.TrimSpace(prompt[idx+len(transcriptMarker):])
	}
	return prompt
}
