package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/invoiceForge/composer-service/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ErrInvalidFileType is returned for uploads that are not audio
var ErrInvalidFileType = errors.New("file must be an audio file")

// ErrTranscriptionFailed wraps speech-to-text service errors
var ErrTranscriptionFailed = errors.New("audio transcription failed")

var audioExtensions = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
}

// Transcriber converts uploaded audio files to text through Whisper and
// runs the extraction pipeline on the result
type Transcriber struct {
	client    *openai.Client
	model     string
	extractor *Extractor
}

// NewTranscriber creates a transcriber; model defaults to whisper-1
func NewTranscriber(cfg models.OpenAIConfig, extractor *Extractor) *Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Whisper
	if model == "" {
		model = "whisper-1"
	}
	return &Transcriber{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		extractor: extractor,
	}
}

// ValidAudioFile reports whether the filename carries a supported audio extension
func ValidAudioFile(filename string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}

// FromAudio transcribes the audio stream and extracts invoice data from
// the transcript. filename is only used for format detection. language is
// an optional ISO hint for the speech model; empty means auto-detect.
func (t *Transcriber) FromAudio(ctx context.Context, filename, language string, audio io.Reader) (*models.TranscriptResult, error) {
	if !ValidAudioFile(filename) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, filepath.Ext(filename))
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	transcript := strings.TrimSpace(resp.Text)
	log.Printf("[ai] transcribed %s, %d chars", filename, len(transcript))

	result := &models.TranscriptResult{
		Transcript:       transcript,
		Confidence:       0.85,
		LanguageDetected: DetectLanguage(transcript),
	}
	if transcript == "" {
		result.InvoiceSuggestions = []string{"Audio processed successfully", "Ready for manual review"}
		return result, nil
	}

	extraction, err := t.extractor.ExtractFromText(ctx, transcript, "")
	if err != nil {
		// transcript is still useful without structured data
		log.Printf("[ai] extraction after transcription failed: %v", err)
		result.InvoiceSuggestions = []string{"Audio processed successfully", "Ready for manual review"}
		return result, nil
	}

	result.StructuredData = extraction.InvoiceData
	result.LanguageDetected = extraction.InvoiceData.LanguageDetected
	for _, svc := range extraction.InvoiceData.ExtractedServices {
		result.InvoiceSuggestions = append(result.InvoiceSuggestions, "Detected service: "+svc)
	}
	for _, item := range extraction.InvoiceData.Items {
		result.InvoiceSuggestions = append(result.InvoiceSuggestions, "Detected amount: $"+item.UnitPrice.StringFixed(2))
	}
	if len(result.InvoiceSuggestions) == 0 {
		result.InvoiceSuggestions = []string{"Audio processed successfully", "Ready for manual review"}
	}
	return result, nil
}
