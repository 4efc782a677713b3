// Package ledger implements the commit engine: turning a validated invoice
// draft into one ledger entry plus its installments and classification
// allocations, persisted in a single transaction.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a ledger entry.
type Direction string

const (
	Payable    Direction = "PAGAR"
	Receivable Direction = "RECEBER"
)

// EntryStatus is the lifecycle state of an entry.
type EntryStatus string

const (
	EntryOpen      EntryStatus = "ABERTO"
	EntryPaid      EntryStatus = "PAGO"
	EntryCancelled EntryStatus = "CANCELADO"
)

// InstallmentStatus is the lifecycle state of one installment.
type InstallmentStatus string

const (
	InstallmentOpen InstallmentStatus = "ABERTO"
	InstallmentPaid InstallmentStatus = "PAGO"
)

// Entry is one payable/receivable financial movement.
type Entry struct {
	ID               uuid.UUID       `json:"id"`
	Direction        Direction       `json:"tipo"`
	PartyID          uuid.UUID       `json:"pessoa_id"`
	Description      string          `json:"descricao"`
	TotalAmount      decimal.Decimal `json:"valor_total"`
	InstallmentCount int             `json:"quantidade_parcelas"`
	EmissionDate     time.Time       `json:"data_emissao"`
	Status           EntryStatus     `json:"status"`
	Active           bool            `json:"ativo"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Installment is one scheduled payment slice of an entry.
type Installment struct {
	ID             uuid.UUID         `json:"id"`
	EntryID        uuid.UUID         `json:"movimento_id"`
	Sequence       int               `json:"numero_parcela"` // 1-based, contiguous
	Amount         decimal.Decimal   `json:"valor_parcela"`
	DueDate        time.Time         `json:"data_vencimento"`
	PaymentDate    *time.Time        `json:"data_pagamento,omitempty"`
	Status         InstallmentStatus `json:"status"`
	Identification string            `json:"identificacao_unica"` // globally unique
	CreatedAt      time.Time         `json:"created_at"`
}

// Allocation attributes a portion of an entry's amount to one
// classification.
type Allocation struct {
	ID               uuid.UUID       `json:"id"`
	EntryID          uuid.UUID       `json:"movimento_id"`
	ClassificationID uuid.UUID       `json:"classificacao_id"`
	Amount           decimal.Decimal `json:"valor_classificado"`
}

var (
	// ErrUnresolvedParty aborts a commit whose supplier or payee was not
	// resolved beforehand. Resolution is a precondition; the engine never
	// performs it.
	ErrUnresolvedParty = errors.New("ledger: party not resolved")
	// ErrIntegrityViolation marks a uniqueness/constraint breach detected
	// at commit time. Fatal; the transaction is rolled back.
	ErrIntegrityViolation = errors.New("ledger: integrity violation")
)
