package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/agroconta/danfe-ledger-service/internal/ai"
	"github.com/agroconta/danfe-ledger-service/internal/auth"
	"github.com/agroconta/danfe-ledger-service/internal/ledger"
	"github.com/agroconta/danfe-ledger-service/internal/models"
	"github.com/agroconta/danfe-ledger-service/internal/registry"
	"github.com/agroconta/danfe-ledger-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"
)

// Registry is the resolver surface the validation and creation endpoints
// consume.
type Registry interface {
	ResolveParty(ctx context.Context, role registry.PartyRole, rawTaxID string) (*registry.PartyResolution, error)
	CreateParty(ctx context.Context, np registry.NewParty) (*registry.Party, error)
	ResolveClassification(ctx context.Context, kind registry.ClassificationKind, rawDescription string) (*registry.ClassificationResolution, error)
	CreateClassification(ctx context.Context, kind registry.ClassificationKind, rawDescription string) (*registry.Classification, error)
}

// RegistryAdmin covers the listing and activation endpoints.
type RegistryAdmin interface {
	ListParties(ctx context.Context, role registry.PartyRole, limit int) ([]registry.Party, error)
	ListClassifications(ctx context.Context, kind registry.ClassificationKind) ([]registry.Classification, error)
	SetPartyActive(ctx context.Context, id uuid.UUID, active bool) error
	SetClassificationActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Committer persists a validated draft as a ledger entry.
type Committer interface {
	Commit(ctx context.Context, in ledger.CommitInput) (*ledger.Entry, error)
}

// EntryReader serves the consultation endpoints.
type EntryReader interface {
	GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, []ledger.Installment, []ledger.Allocation, error)
	ListEntries(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// TextSource pulls the text layer out of an uploaded PDF.
type TextSource interface {
	ExtractText(ctx context.Context, pdfBytes []byte) (string, error)
	Available() bool
}

// DraftExtractor turns document text into a draft.
type DraftExtractor interface {
	Extract(ctx context.Context, documentText string) *models.Draft
}

// Archive stores the original documents.
type Archive interface {
	Upload(ctx context.Context, tenant, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// LoginService checks credentials and issues tokens.
type LoginService interface {
	Login(ctx context.Context, email, password string) (string, *auth.User, error)
}

// Pinger is the database liveness check used by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries the handler's collaborators. Nil fields degrade the
// corresponding endpoints to 503 instead of failing startup.
type Deps struct {
	Registry  Registry
	Admin     RegistryAdmin
	Committer Committer
	Entries   EntryReader
	PDF       TextSource
	Extractor DraftExtractor // nil builds one per request from config
	Archive   Archive
	Login     LoginService
	DB        Pinger
}

// Handler handles HTTP requests for DANFE ingestion.
type Handler struct {
	config *models.Config
	deps   Deps
}

// NewHandler creates a new API handler.
func NewHandler(config *models.Config, deps Deps) *Handler {
	return &Handler{config: config, deps: deps}
}

// SetupRoutes configures the HTTP routes.
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Authentication
	router.HandleFunc("/api/login", h.Login).Methods("POST")

	// Extraction
	router.HandleFunc("/api/upload", h.Upload).Methods("POST")
	router.HandleFunc("/api/extrair-dados", h.ExtractData).Methods("POST")

	// Validation
	router.HandleFunc("/api/validar-fornecedor", h.ValidateSupplier).Methods("GET")
	router.HandleFunc("/api/validar-faturado", h.ValidatePayee).Methods("GET")
	router.HandleFunc("/api/validar-classificacao", h.ValidateClassification).Methods("GET")

	// Creation
	router.HandleFunc("/api/criar-fornecedor", h.CreateSupplier).Methods("POST")
	router.HandleFunc("/api/criar-faturado", h.CreatePayee).Methods("POST")
	router.HandleFunc("/api/criar-classificacao", h.CreateClassification).Methods("POST")

	// Commit
	router.HandleFunc("/api/criar-lancamento", h.CreateEntry).Methods("POST")

	// Consultation
	router.HandleFunc("/api/lancamentos", h.ListEntries).Methods("GET")
	router.HandleFunc("/api/lancamentos/{id}", h.GetEntry).Methods("GET")
	router.HandleFunc("/api/pessoas", h.ListParties).Methods("GET")
	router.HandleFunc("/api/classificacoes", h.ListClassifications).Methods("GET")

	// Activation lifecycle
	router.HandleFunc("/api/pessoas/{id}/inativar", h.DeactivateParty).Methods("POST")
	router.HandleFunc("/api/pessoas/{id}/reativar", h.ReactivateParty).Methods("POST")
	router.HandleFunc("/api/classificacoes/{id}/inativar", h.DeactivateClassification).Methods("POST")
	router.HandleFunc("/api/classificacoes/{id}/reativar", h.ReactivateClassification).Methods("POST")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	PDFToText ServiceStatus     `json:"pdftotext"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.1f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.1f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.1f MB", float64(m.Sys)/1024/1024),
		},
		PDFToText: h.checkPDFToText(),
		Database:  h.checkDatabase(r.Context()),
		Storage:   ServiceStatus{Available: h.deps.Archive != nil},
		AI:        h.checkAI(),
	}

	if !response.Database.Available {
		response.Status = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

func (h *Handler) checkPDFToText() ServiceStatus {
	if h.deps.PDF == nil {
		return ServiceStatus{Available: false, Error: "not configured"}
	}
	if !h.deps.PDF.Available() {
		return ServiceStatus{Available: false, Error: "pdftotext binary not found"}
	}
	return ServiceStatus{Available: true}
}

func (h *Handler) checkDatabase(ctx context.Context) ServiceStatus {
	if h.deps.DB == nil {
		return ServiceStatus{Available: false, Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := h.deps.DB.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	return ServiceStatus{Available: true}
}

func (h *Handler) checkAI() map[string]string {
	status := map[string]string{}
	if h.config.AI.OpenAI.APIKey != "" {
		status["openai"] = h.config.AI.OpenAI.Model
	}
	if h.config.AI.Gemini.APIKey != "" {
		status["gemini"] = h.config.AI.Gemini.Model
	}
	status["default"] = h.config.AI.DefaultProvider
	return status
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Sucesso bool   `json:"sucesso"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Nome    string `json:"nome"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Login == nil {
		h.sendError(w, http.StatusServiceUnavailable, "autenticação indisponível")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.sendError(w, http.StatusBadRequest, "email e password são obrigatórios")
		return
	}

	token, user, err := h.deps.Login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "credenciais inválidas")
		return
	}

	json.NewEncoder(w).Encode(LoginResponse{
		Sucesso: true,
		Token:   token,
		UserID:  user.ID,
		Email:   user.Email,
		Nome:    user.Nome,
	})
}

// Upload archives a DANFE PDF, extracts its text and runs AI extraction.
// Extraction failures come back as a draft with the erro payload and HTTP
// 200; the client decides how to present them.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "arquivo muito grande ou formulário inválido")
		return
	}

	file, header, err := r.FormFile("pdf_file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "nenhum arquivo enviado (use o campo 'pdf_file')")
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "falha ao ler o arquivo")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	// Archive the original document. Storage is optional; failures are
	// logged by the archive and do not block extraction.
	var documentPath string
	if h.deps.Archive != nil {
		tenant := "geral"
		if claims, err := auth.GetClaimsFromContext(ctx); err == nil {
			tenant = claims.UserID
		}
		filename := fmt.Sprintf("%s_%s%s",
			time.Now().Format("20060102_150405"),
			uuid.New().String()[:8],
			storage.FileExtension(contentType),
		)
		documentPath, err = h.deps.Archive.Upload(ctx, tenant, filename, bytes.NewReader(pdfData), int64(len(pdfData)), contentType)
		if err != nil {
			fmt.Printf("Warning: failed to archive document: %v\n", err)
			documentPath = ""
		}
	}

	draft := h.extractFromPDF(ctx, pdfData)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":   !draft.Failed(),
		"dados":     draft,
		"documento": documentPath,
	})
}

// ExtractData runs extraction only, without archiving. Accepts either a
// multipart PDF under 'pdf_file' or a JSON body {"texto": "..."}.
func (h *Handler) ExtractData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	var draft *models.Draft

	// Accept charset parameters, e.g. "application/json; charset=utf-8".
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req struct {
			Texto string `json:"texto"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Texto == "" {
			h.sendError(w, http.StatusBadRequest, "campo 'texto' é obrigatório")
			return
		}
		draft = h.extractFromText(ctx, req.Texto)
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			h.sendError(w, http.StatusBadRequest, "arquivo muito grande ou formulário inválido")
			return
		}
		file, _, err := r.FormFile("pdf_file")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "nenhum arquivo enviado (use o campo 'pdf_file')")
			return
		}
		defer file.Close()

		pdfData, err := io.ReadAll(file)
		if err != nil {
			h.sendError(w, http.StatusInternalServerError, "falha ao ler o arquivo")
			return
		}
		draft = h.extractFromPDF(ctx, pdfData)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso": !draft.Failed(),
		"dados":   draft,
	})
}

func (h *Handler) extractFromPDF(ctx context.Context, pdfData []byte) *models.Draft {
	if h.deps.PDF == nil {
		return &models.Draft{Erro: "Extração indisponível", Detalhes: "pdftotext não configurado"}
	}
	text, err := h.deps.PDF.ExtractText(ctx, pdfData)
	if err != nil {
		return &models.Draft{Erro: "Falha ao ler o PDF", Detalhes: err.Error()}
	}
	return h.extractFromText(ctx, text)
}

func (h *Handler) extractFromText(ctx context.Context, text string) *models.Draft {
	extractor := h.deps.Extractor
	if extractor == nil {
		provider, err := h.createProvider(h.config.AI.DefaultProvider)
		if err != nil {
			return &models.Draft{Erro: "Extração indisponível", Detalhes: err.Error()}
		}
		extractor = ai.NewExtractor(provider, h.config.Categories)
	}
	return extractor.Extract(ctx, text)
}

// createProvider creates the appropriate AI provider
func (h *Handler) createProvider(providerName string) (ai.Provider, error) {
	switch providerName {
	case "openai":
		return ai.NewOpenAIProvider(
			h.config.AI.OpenAI.APIKey,
			h.config.AI.OpenAI.BaseURL,
			h.config.AI.OpenAI.Model,
		), nil

	case "gemini":
		return ai.NewGeminiProvider(
			h.config.AI.Gemini.APIKey,
			h.config.AI.Gemini.Model,
		), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// sendError sends an error response with the business envelope.
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso": false,
		"erro":    message,
	})
}

// sendOutcome sends an HTTP 200 business outcome, the contract for
// expected domain results such as "already exists".
func (h *Handler) sendOutcome(w http.ResponseWriter, message string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso": false,
		"erro":    message,
	})
}
