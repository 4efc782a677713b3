package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agroconta/danfe-ledger-service/api"
	"github.com/agroconta/danfe-ledger-service/internal/auth"
	"github.com/agroconta/danfe-ledger-service/internal/db"
	"github.com/agroconta/danfe-ledger-service/internal/ledger"
	"github.com/agroconta/danfe-ledger-service/internal/models"
	"github.com/agroconta/danfe-ledger-service/internal/pdf"
	"github.com/agroconta/danfe-ledger-service/internal/registry"
	"github.com/agroconta/danfe-ledger-service/internal/storage"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	deps := api.Deps{}

	// Initialize database connection pool
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in extraction-only mode (no persistence)")
	} else {
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		log.Println("Database connection pool initialized")

		registryStore := db.NewRegistryStore(pool)
		ledgerStore := db.NewLedgerStore(pool)

		deps.DB = pool
		deps.Registry = registry.NewResolver(registryStore)
		deps.Admin = registryStore
		deps.Committer = ledger.NewEngine(ledgerStore, registryStore)
		deps.Entries = ledgerStore
		deps.Login = auth.NewAuthenticator(db.NewUserStore(pool))
	}

	// Initialize MinIO document archive
	archive, err := storage.NewArchive()
	if err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Documents will not be archived")
	} else {
		deps.Archive = archive
		log.Println("MinIO storage initialized")
	}

	// Initialize PDF text extraction
	textSource, err := pdf.NewExtractor()
	if err != nil {
		log.Printf("Warning: PDF extraction not available: %v", err)
	} else {
		deps.PDF = textSource
		log.Println("pdftotext initialized")
	}

	// Create API handler
	handler := api.NewHandler(config, deps)
	router := handler.SetupRoutes()

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting DANFE Ledger Service v%s on %s", api.Version, addr)
	log.Printf("Default AI Provider: %s", config.AI.DefaultProvider)
	log.Printf("Database: %v", deps.DB != nil)
	log.Printf("Storage: %v", deps.Archive != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login                 - Authenticate", addr)
	log.Printf("  POST http://%s/api/upload                - Archive + extract DANFE (requires JWT)", addr)
	log.Printf("  POST http://%s/api/extrair-dados         - Extraction only (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/validar-fornecedor    - Validate supplier by CNPJ (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/validar-faturado      - Validate payee by CPF (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/validar-classificacao - Validate classification (requires JWT)", addr)
	log.Printf("  POST http://%s/api/criar-fornecedor      - Create supplier (requires JWT)", addr)
	log.Printf("  POST http://%s/api/criar-faturado        - Create payee (requires JWT)", addr)
	log.Printf("  POST http://%s/api/criar-classificacao   - Create classification (requires JWT)", addr)
	log.Printf("  POST http://%s/api/criar-lancamento      - Commit ledger entry (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/lancamentos           - List entries (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                    - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
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

	return &config, nil
}
