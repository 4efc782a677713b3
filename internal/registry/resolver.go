package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agroconta/danfe-ledger-service/internal/normalize"
)

// Resolver normalizes raw draft identity fields and matches them against
// the registry. Resolve* calls are read-only and safe to repeat; Create*
// calls are the only mutating path and re-check uniqueness before insert.
// The check-then-insert window is not serializable: the storage unique
// constraint is the actual guarantee, surfaced as ErrAlreadyExists.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// PartyResolution reports a lookup outcome. When Found, Party carries the
// canonical record; otherwise TaxID carries the normalized key the caller
// may use for creation.
type PartyResolution struct {
	Found bool
	Party *Party
	TaxID string
}

// ResolveParty normalizes the raw tax identifier and looks up an existing
// party of the given role. Never mutates state.
func (r *Resolver) ResolveParty(ctx context.Context, role PartyRole, rawTaxID string) (*PartyResolution, error) {
	taxID := normalize.TaxID(rawTaxID, role.DocKind())
	if taxID == "" {
		return nil, ErrMissingKey
	}

	p, err := r.store.FindParty(ctx, role, taxID)
	if err == ErrNotFound {
		return &PartyResolution{Found: false, TaxID: taxID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve party: %w", err)
	}
	return &PartyResolution{Found: true, Party: p, TaxID: p.TaxID}, nil
}

// NewParty carries the fields accepted by CreateParty.
type NewParty struct {
	Role      PartyRole
	LegalName string
	TradeName string
	TaxID     string // raw, masked or not
	Phone     string
	Email     string
	Address   string
}

// CreateParty re-normalizes, re-checks uniqueness across all roles (the
// tax id is globally unique in the party set) and inserts with active=true.
// A record created concurrently between check and insert still surfaces as
// ErrAlreadyExists via the storage constraint.
func (r *Resolver) CreateParty(ctx context.Context, np NewParty) (*Party, error) {
	taxID := normalize.TaxID(np.TaxID, np.Role.DocKind())
	if taxID == "" {
		return nil, ErrMissingKey
	}

	if _, err := r.store.FindPartyAnyRole(ctx, taxID); err == nil {
		return nil, ErrAlreadyExists
	} else if err != ErrNotFound {
		return nil, fmt.Errorf("create party: %w", err)
	}

	p := &Party{
		ID:        uuid.New(),
		Role:      np.Role,
		LegalName: strings.TrimSpace(np.LegalName),
		TradeName: strings.TrimSpace(np.TradeName),
		TaxID:     taxID,
		Phone:     strings.TrimSpace(np.Phone),
		Email:     strings.TrimSpace(np.Email),
		Address:   strings.TrimSpace(np.Address),
		Active:    true,
	}
	if p.TradeName == "" {
		p.TradeName = p.LegalName
	}
	if err := r.store.InsertParty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ClassificationResolution reports a classification lookup outcome.
type ClassificationResolution struct {
	Found          bool
	Classification *Classification
	Description    string
}

// ResolveClassification matches kind plus case-insensitive description.
func (r *Resolver) ResolveClassification(ctx context.Context, kind ClassificationKind, rawDescription string) (*ClassificationResolution, error) {
	description := strings.TrimSpace(rawDescription)
	if description == "" {
		return nil, ErrMissingKey
	}

	c, err := r.store.FindClassification(ctx, kind, description)
	if err == ErrNotFound {
		return &ClassificationResolution{Found: false, Description: description}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve classification: %w", err)
	}
	return &ClassificationResolution{Found: true, Classification: c, Description: c.Description}, nil
}

// CreateClassification re-checks uniqueness and inserts with active=true.
func (r *Resolver) CreateClassification(ctx context.Context, kind ClassificationKind, rawDescription string) (*Classification, error) {
	description := strings.TrimSpace(rawDescription)
	if description == "" {
		return nil, ErrMissingKey
	}

	if _, err := r.store.FindClassification(ctx, kind, description); err == nil {
		return nil, ErrAlreadyExists
	} else if err != ErrNotFound {
		return nil, fmt.Errorf("create classification: %w", err)
	}

	c := &Classification{
		ID:          uuid.New(),
		Kind:        kind,
		Description: description,
		Active:      true,
	}
	if err := r.store.InsertClassification(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
