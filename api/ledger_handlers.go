package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/agroconta/danfe-ledger-service/internal/ledger"
	"github.com/agroconta/danfe-ledger-service/internal/normalize"
	"github.com/agroconta/danfe-ledger-service/internal/registry"
)

// CreateEntryRequest is the criar-lancamento request body. It mirrors the
// validated draft: party keys, invoice fields and chosen classifications.
// Invoice fields may come nested under nota_fiscal or at the top level;
// the nested form wins when both are present.
type CreateEntryRequest struct {
	Fornecedor struct {
		CNPJ string `json:"cnpj"`
	} `json:"fornecedor"`
	Faturado struct {
		CPF string `json:"cpf"`
	} `json:"faturado"`

	NotaFiscal struct {
		Numero         string      `json:"numero"`
		Valor          interface{} `json:"valor"`
		DataEmissao    string      `json:"data_emissao"`
		DataVencimento string      `json:"data_vencimento"`
	} `json:"nota_fiscal"`

	NumeroNotaFiscal   string      `json:"numero_nota_fiscal"`
	ValorTotal         interface{} `json:"valor_total"`
	DataEmissao        string      `json:"data_emissao"`
	DataVencimento     string      `json:"data_vencimento"`
	QuantidadeParcelas int         `json:"quantidade_parcelas"`

	ClassificacaoDespesa []string `json:"classificacao_despesa"`
}

// CreateEntry commits a validated draft as a payable ledger entry with its
// installments and classification allocations, all in one transaction.
// Both parties must already exist; an unresolved party is a business
// outcome telling the client to redo validation.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if h.deps.Registry == nil || h.deps.Committer == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	supplier, err := h.deps.Registry.ResolveParty(ctx, registry.RoleSupplier, req.Fornecedor.CNPJ)
	if err != nil && !errors.Is(err, registry.ErrMissingKey) {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil || !supplier.Found {
		h.sendOutcome(w, "Fornecedor não encontrado. Por favor, valide os cadastros novamente.")
		return
	}

	payee, err := h.deps.Registry.ResolveParty(ctx, registry.RolePayee, req.Faturado.CPF)
	if err != nil && !errors.Is(err, registry.ErrMissingKey) {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil || !payee.Found {
		h.sendOutcome(w, "Faturado não encontrado. Por favor, valide os cadastros novamente.")
		return
	}

	numero := firstNonEmpty(req.NotaFiscal.Numero, req.NumeroNotaFiscal)
	description := "NF " + numero + " - " + supplier.Party.LegalName + " - Faturado: " + payee.Party.LegalName

	entry, err := h.deps.Committer.Commit(ctx, ledger.CommitInput{
		SupplierID:             supplier.Party.ID,
		PayeeID:                payee.Party.ID,
		Description:            description,
		RawAmount:              firstNonEmpty(rawString(req.NotaFiscal.Valor), rawString(req.ValorTotal)),
		RawEmissionDate:        firstNonEmpty(req.NotaFiscal.DataEmissao, req.DataEmissao),
		RawDueDate:             firstNonEmpty(req.NotaFiscal.DataVencimento, req.DataVencimento),
		InstallmentCount:       req.QuantidadeParcelas,
		ExpenseClassifications: req.ClassificacaoDespesa,
	})
	if err != nil {
		switch {
		case errors.Is(err, normalize.ErrInvalidDate):
			h.sendOutcome(w, "Data de emissão não informada ou inválida")
		case errors.Is(err, ledger.ErrUnresolvedParty):
			h.sendOutcome(w, "Cadastros não resolvidos. Por favor, valide os cadastros novamente.")
		case errors.Is(err, ledger.ErrIntegrityViolation):
			h.sendOutcome(w, "Lançamento conflita com um registro existente")
		default:
			h.sendError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":  true,
		"id":       entry.ID,
		"mensagem": "Lançamento criado com sucesso! ID: " + entry.ID.String(),
	})
}

// ListEntries returns the most recent ledger entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Entries == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.deps.Entries.ListEntries(r.Context(), limit)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":     true,
		"lancamentos": entries,
		"total":       len(entries),
	})
}

// GetEntry returns one entry with its installments and allocations.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.deps.Entries == nil {
		h.sendError(w, http.StatusServiceUnavailable, "banco de dados indisponível")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "id inválido")
		return
	}

	entry, installments, allocations, err := h.deps.Entries.GetEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "lançamento não encontrado")
			return
		}
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sucesso":        true,
		"lancamento":     entry,
		"parcelas":       installments,
		"classificacoes": allocations,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// rawString renders a JSON value that may arrive as string or number.
// Numbers are rendered with a decimal comma so they survive the
// Brazilian-locale amount parser unchanged.
func rawString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strings.ReplaceAll(strconv.FormatFloat(val, 'f', -1, 64), ".", ",")
	case nil:
		return ""
	default:
		return ""
	}
}
