package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/agroconta/danfe-ledger-service/internal/normalize"
	"github.com/agroconta/danfe-ledger-service/internal/registry"
)

// Store persists a complete entry. The implementation must write the entry,
// its installments and its allocations inside one transaction: any failure
// leaves no partial rows. Constraint breaches surface as
// ErrIntegrityViolation.
type Store interface {
	SaveEntry(ctx context.Context, entry *Entry, installments []Installment, allocations []Allocation) error
}

// ClassificationFinder is the read-only registry lookup the engine needs to
// turn classification descriptions into ids.
type ClassificationFinder interface {
	FindClassification(ctx context.Context, kind registry.ClassificationKind, description string) (*registry.Classification, error)
}

// Engine is the ledger commit engine.
type Engine struct {
	store           Store
	classifications ClassificationFinder
}

func NewEngine(store Store, classifications ClassificationFinder) *Engine {
	return &Engine{store: store, classifications: classifications}
}

// CommitInput is a validated draft ready for commit. SupplierID and PayeeID
// must already be resolved; the engine checks presence, never performs
// resolution itself.
type CommitInput struct {
	SupplierID uuid.UUID
	PayeeID    uuid.UUID

	// Description is the free-text movement description composed by the
	// caller from supplier/payee names and the invoice number.
	Description string

	RawAmount        string // locale-formatted; unparsable falls back to zero
	RawEmissionDate  string // fatal when missing or unparsable
	RawDueDate       string // only honored for single-installment entries
	InstallmentCount int    // values below 1 are treated as 1

	// ExpenseClassifications are the chosen classification descriptions.
	// Unknown or non-expense descriptions are skipped, not errors.
	ExpenseClassifications []string
}

// Commit turns the input into one persisted payable entry with its
// installments and allocations, all-or-nothing.
func (e *Engine) Commit(ctx context.Context, in CommitInput) (*Entry, error) {
	if in.SupplierID == uuid.Nil || in.PayeeID == uuid.Nil {
		return nil, ErrUnresolvedParty
	}

	emission, err := normalize.Date(in.RawEmissionDate)
	if err != nil {
		return nil, err
	}

	// Amount parsing is the one non-fatal validation: an unreadable value
	// commits as zero rather than aborting the pipeline.
	total, err := normalize.Amount(in.RawAmount)
	if err != nil {
		log.Printf("ledger: unparsable amount %q, committing with zero", in.RawAmount)
	}

	count := in.InstallmentCount
	if count < 1 {
		count = 1
	}

	var due time.Time
	if in.RawDueDate != "" {
		// Best effort; an unparsable due date falls back to emission.
		due, _ = normalize.Date(in.RawDueDate)
	}

	entry := &Entry{
		ID:               uuid.New(),
		Direction:        Payable,
		PartyID:          in.SupplierID,
		Description:      in.Description,
		TotalAmount:      total,
		InstallmentCount: count,
		EmissionDate:     emission,
		Status:           EntryOpen,
		Active:           true,
	}

	installments := buildInstallments(entry, GenerateInstallments(total, emission, count, due))

	allocations, err := e.buildAllocations(ctx, entry, in.ExpenseClassifications)
	if err != nil {
		return nil, err
	}

	if err := e.store.SaveEntry(ctx, entry, installments, allocations); err != nil {
		return nil, fmt.Errorf("commit entry: %w", err)
	}
	return entry, nil
}

func buildInstallments(entry *Entry, specs []InstallmentSpec) []Installment {
	installments := make([]Installment, 0, len(specs))
	for _, spec := range specs {
		installments = append(installments, Installment{
			ID:             uuid.New(),
			EntryID:        entry.ID,
			Sequence:       spec.Sequence,
			Amount:         spec.Amount,
			DueDate:        spec.DueDate,
			Status:         InstallmentOpen,
			Identification: Identification(entry.ID, spec.Sequence, spec.DueDate),
		})
	}
	return installments
}

// buildAllocations resolves each chosen description against the expense
// classifications and splits the entry total over them. Descriptions that
// do not resolve are skipped silently: the share they would have received
// stays unallocated, a deliberate best-effort policy.
func (e *Engine) buildAllocations(ctx context.Context, entry *Entry, descriptions []string) ([]Allocation, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, description := range descriptions {
		c, err := e.classifications.FindClassification(ctx, registry.KindExpense, description)
		if err == registry.ErrNotFound {
			log.Printf("ledger: classification %q not found, skipping allocation", description)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup classification %q: %w", description, err)
		}
		ids = append(ids, c.ID)
	}

	specs := AllocateEvenly(entry.TotalAmount, ids, len(descriptions))
	allocations := make([]Allocation, 0, len(specs))
	for _, spec := range specs {
		allocations = append(allocations, Allocation{
			ID:               uuid.New(),
			EntryID:          entry.ID,
			ClassificationID: spec.ClassificationID,
			Amount:           spec.Amount,
		})
	}
	return allocations, nil
}
