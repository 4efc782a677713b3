package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/agroconta/danfe-ledger-service/internal/registry"
)

// ValidateSupplier checks whether a supplier with the given CNPJ exists.
// Absence is a business outcome, not an error.
func (h *Handler) ValidateSupplier(w http.ResponseWriter, r *http.Request) {
	h.validateParty(w, r, registry.RoleSupplier, r.URL.Query().Get("cnpj"), "CNPJ não fornecido", "Fornecedor")
}

// ValidatePayee checks whether a payee with the given CPF exists.
func (h *Handler) ValidatePayee(w http.ResponseWriter, r *http.Request) {
	h.validateParty(w, r, registry.RolePayee, r.URL.Query().Get("cpf"), "CPF não fornecido", "Faturado")
}

func (h *Handler) validateParty(w http.ResponseWriter, r *http.Request, role registry.PartyRole, rawTaxID, missingMsg, label string) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Registry == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	res, err := h.deps.Registry.ResolveParty(r.Context(), role, rawTaxID)
	if err != nil {
		if errors.Is(err, registry.ErrMissingKey) {
			h.sendError(w, http.StatusBadRequest, missingMsg)
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !res.Found {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"existe":   false,
			"mensagem": label + " não encontrado no banco de dados",
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"existe":   true,
		"id":       res.Party.ID,
		"nome":     res.Party.LegalName,
		"mensagem": fmt.Sprintf("%s encontrado: %s", label, res.Party.LegalName),
	})
}

// ValidateClassification checks for a classification by description. The
// optional tipo parameter defaults to DESPESA.
func (h *Handler) ValidateClassification(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Registry == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	kind := classificationKind(r.URL.Query().Get("tipo"))
	res, err := h.deps.Registry.ResolveClassification(r.Context(), kind, r.URL.Query().Get("descricao"))
	if err != nil {
		if errors.Is(err, registry.ErrMissingKey) {
			h.sendError(w, http.StatusBadRequest, "Descrição não fornecida")
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !res.Found {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"existe":   false,
			"mensagem": "Classificação não encontrada no banco de dados",
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"existe":   true,
		"id":       res.Classification.ID,
		"nome":     res.Classification.Description,
		"mensagem": "Classificação encontrada: " + res.Classification.Description,
	})
}

// CreateSupplierRequest is the criar-fornecedor request body.
type CreateSupplierRequest struct {
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	CNPJ         string `json:"cnpj"`
	Telefone     string `json:"telefone"`
	Email        string `json:"email"`
	Endereco     string `json:"endereco"`
}

// CreateSupplier registers a new supplier. A duplicate tax id anywhere in
// the party set comes back as a sucesso:false outcome with HTTP 200.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Registry == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	party, err := h.deps.Registry.CreateParty(r.Context(), registry.NewParty{
		Role:      registry.RoleSupplier,
		LegalName: req.RazaoSocial,
		TradeName: req.NomeFantasia,
		TaxID:     req.CNPJ,
		Phone:     req.Telefone,
		Email:     req.Email,
		Address:   req.Endereco,
	})
	if err != nil {
		h.sendCreateFailure(w, err, "Fornecedor com este CNPJ/CPF já existe", "CNPJ não fornecido")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"id":       party.ID,
		"mensagem": "Fornecedor criado com sucesso: " + party.LegalName,
	})
}

// CreatePayeeRequest is the criar-faturado request body.
type CreatePayeeRequest struct {
	NomeCompleto string `json:"nome_completo"`
	CPF          string `json:"cpf"`
	Telefone     string `json:"telefone"`
	Email        string `json:"email"`
	Endereco     string `json:"endereco"`
}

// CreatePayee registers a new payee.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Registry == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	var req CreatePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	party, err := h.deps.Registry.CreateParty(r.Context(), registry.NewParty{
		Role:      registry.RolePayee,
		LegalName: req.NomeCompleto,
		TaxID:     req.CPF,
		Phone:     req.Telefone,
		Email:     req.Email,
		Address:   req.Endereco,
	})
	if err != nil {
		h.sendCreateFailure(w, err, "Faturado com este CNPJ/CPF já existe", "CPF não fornecido")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"id":       party.ID,
		"mensagem": "Faturado criado com sucesso: " + party.LegalName,
	})
}

// CreateClassificationRequest is the criar-classificacao request body.
type CreateClassificationRequest struct {
	Descricao string `json:"descricao"`
	Tipo      string `json:"tipo"` // DESPESA (default) or RECEITA
}

// CreateClassification registers a new expense or revenue classification.
func (h *Handler) CreateClassification(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Registry == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	var req CreateClassificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	c, err := h.deps.Registry.CreateClassification(r.Context(), classificationKind(req.Tipo), req.Descricao)
	if err != nil {
		h.sendCreateFailure(w, err, "Classificação com esta descrição já existe", "Descrição não fornecida")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"id":       c.ID,
		"mensagem": "Classificação criada com sucesso: " + c.Description,
	})
}

func (h *Handler) sendCreateFailure(w http.ResponseWriter, err error, existsMsg, missingMsg string) {
	switch {
	case errors.Is(err, registry.ErrAlreadyExists):
		h.sendOutcome(w, existsMsg)
	case errors.Is(err, registry.ErrMissingKey):
		h.sendError(w, http.StatusBadRequest, missingMsg)
	default:
		h.sendError(w, http.StatusInternalServerError, err.Error())
	}
}

// ListParties lists registered parties, optionally filtered by ?tipo=.
func (h *Handler) ListParties(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Admin == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	role := registry.PartyRole(r.URL.Query().Get("tipo"))
	parties, err := h.deps.Admin.ListParties(r.Context(), role, 200)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso": true,
		"pessoas": parties,
		"total":   len(parties),
	})
}

// ListClassifications lists classifications of a kind (default DESPESA).
func (h *Handler) ListClassifications(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Admin == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	kind := classificationKind(r.URL.Query().Get("tipo"))
	classifications, err := h.deps.Admin.ListClassifications(r.Context(), kind)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":        true,
		"classificacoes": classifications,
		"total":          len(classifications),
	})
}

// DeactivateParty soft-deletes a party. Records are never removed.
func (h *Handler) DeactivateParty(w http.ResponseWriter, r *http.Request) {
	h.setPartyActive(w, r, false, "Pessoa inativada")
}

// ReactivateParty reverses a deactivation.
func (h *Handler) ReactivateParty(w http.ResponseWriter, r *http.Request) {
	h.setPartyActive(w, r, true, "Pessoa reativada")
}

func (h *Handler) setPartyActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Admin == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if err := h.deps.Admin.SetPartyActive(r.Context(), id, active); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "pessoa não encontrada")
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"mensagem": message,
	})
}

// DeactivateClassification soft-deletes a classification.
func (h *Handler) DeactivateClassification(w http.ResponseWriter, r *http.Request) {
	h.setClassificationActive(w, r, false, "Classificação inativada")
}

// ReactivateClassification reverses a deactivation.
func (h *Handler) ReactivateClassification(w http.ResponseWriter, r *http.Request) {
	h.setClassificationActive(w, r, true, "Classificação reativada")
}

func (h *Handler) setClassificationActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Admin == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if err := h.deps.Admin.SetClassificationActive(r.Context(), id, active); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "classificação não encontrada")
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"mensagem": message,
	})
}

func classificationKind(tipo string) registry.ClassificationKind {
	if tipo == string(registry.KindRevenue) {
		return registry.KindRevenue
	}
	return registry.KindExpense
}
