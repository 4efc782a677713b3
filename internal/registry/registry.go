// Package registry holds the reference-data model (parties and expense/
// revenue classifications) and the resolver that matches loosely-formatted
// draft fields against it.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agroconta/danfe-ledger-service/internal/normalize"
)

// PartyRole distinguishes the registry roles. Values match the persisted
// column values inherited from the accounting schema.
type PartyRole string

const (
	RoleSupplier PartyRole = "FORNECEDOR"
	RolePayee    PartyRole = "FATURADO"
	RoleClient   PartyRole = "CLIENTE"
)

// DocKind returns the tax document layout expected for the role: suppliers
// carry a CNPJ, payees and clients a CPF.
func (r PartyRole) DocKind() normalize.DocKind {
	if r == RoleSupplier {
		return normalize.CNPJ
	}
	return normalize.CPF
}

// ClassificationKind distinguishes expense from revenue categories.
type ClassificationKind string

const (
	KindExpense ClassificationKind = "DESPESA"
	KindRevenue ClassificationKind = "RECEITA"
)

// Party is a supplier, payee or client. Parties are never deleted, only
// deactivated.
type Party struct {
	ID        uuid.UUID `json:"id"`
	Role      PartyRole `json:"tipo"`
	LegalName string    `json:"razao_social"`
	TradeName string    `json:"nome_fantasia,omitempty"`
	TaxID     string    `json:"cnpj_cpf"` // digits only
	Phone     string    `json:"telefone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"endereco,omitempty"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Classification is a named expense or revenue category. Like parties it is
// deactivated rather than deleted.
type Classification struct {
	ID          uuid.UUID          `json:"id"`
	Kind        ClassificationKind `json:"tipo"`
	Description string             `json:"descricao"`
	Active      bool               `json:"ativo"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Domain outcomes surfaced as errors by the store layer. Callers branch on
// them; they are expected business results, not failures.
var (
	ErrNotFound      = errors.New("registry: record not found")
	ErrAlreadyExists = errors.New("registry: record already exists")
	ErrMissingKey    = errors.New("registry: lookup key not provided")
)

// Store is the persistence contract the resolver needs. The pgx-backed
// implementation enforces the uniqueness invariants with storage-level
// constraints and maps violations to ErrAlreadyExists.
type Store interface {
	// FindParty looks up a party by role plus normalized tax id, active or
	// not. Returns ErrNotFound when absent.
	FindParty(ctx context.Context, role PartyRole, taxID string) (*Party, error)
	// FindPartyAnyRole looks up by normalized tax id across every role; the
	// tax id is globally unique in the party set.
	FindPartyAnyRole(ctx context.Context, taxID string) (*Party, error)
	// InsertParty persists a new party. ErrAlreadyExists on a tax id
	// uniqueness violation.
	InsertParty(ctx context.Context, p *Party) error

	// FindClassification matches kind plus case-insensitive description.
	FindClassification(ctx context.Context, kind ClassificationKind, description string) (*Classification, error)
	// InsertClassification persists a new classification. ErrAlreadyExists
	// on a (kind, lower(description)) uniqueness violation.
	InsertClassification(ctx context.Context, c *Classification) error
}
