package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/invoiceForge/composer-service/api"
	"github.com/invoiceForge/composer-service/internal/models"
	"github.com/invoiceForge/composer-service/internal/storage"
	"gopkg.in/yaml.v3"
)

func main() {
	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Brand assets and export archives will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create API handler
	handler, err := api.NewHandler(config)
	if err != nil {
		log.Fatalf("Failed to create handler: %v", err)
	}
	router := handler.SetupRoutes()

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting InvoiceForge Composer Service v%s on %s", api.Version, addr)
	log.Printf("Default AI Provider: %s", config.AI.DefaultProvider)
	log.Printf("Backend gateway: %s", config.Gateway.BaseURL)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login                     - Authenticate against backend", addr)
	log.Printf("  POST http://%s/api/sessions                  - Start a draft session", addr)
	log.Printf("  PUT  http://%s/api/sessions/{id}/fields      - Edit a draft field", addr)
	log.Printf("  POST http://%s/api/sessions/{id}/voice       - Open a voice capture", addr)
	log.Printf("  POST http://%s/api/ai/voice-to-invoice       - Extract invoice data from text", addr)
	log.Printf("  POST http://%s/api/ai/voice-file-to-text     - Transcribe an audio file", addr)
	log.Printf("  GET  http://%s/api/templates                 - List invoice templates", addr)
	log.Printf("  GET  http://%s/api/sessions/{id}/export/pdf  - Export draft as PDF", addr)
	log.Printf("  GET  http://%s/api/sessions/{id}/export/xlsx - Export draft as Excel", addr)
	log.Printf("  POST http://%s/api/sessions/{id}/submit      - Submit invoice to backend", addr)
	log.Printf("  GET  http://%s/health                        - Health check", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		config.Gateway.BaseURL = baseURL
	}

	return &config, nil
}
