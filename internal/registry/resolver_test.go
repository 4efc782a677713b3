package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements Store in memory with the same uniqueness rules the
// SQL constraints enforce.
type fakeStore struct {
	parties         []*Party
	classifications []*Classification
	failInsert      error // forced InsertParty error, simulates a racing creator
}

func (f *fakeStore) FindParty(_ context.Context, role PartyRole, taxID string) (*Party, error) {
	for _, p := range f.parties {
		if p.Role == role && p.TaxID == taxID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) FindPartyAnyRole(_ context.Context, taxID string) (*Party, error) {
	for _, p := range f.parties {
		if p.TaxID == taxID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) InsertParty(_ context.Context, p *Party) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	for _, existing := range f.parties {
		if existing.TaxID == p.TaxID {
			return ErrAlreadyExists
		}
	}
	f.parties = append(f.parties, p)
	return nil
}

func (f *fakeStore) FindClassification(_ context.Context, kind ClassificationKind, description string) (*Classification, error) {
	for _, c := range f.classifications {
		if c.Kind == kind && strings.EqualFold(c.Description, description) {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) InsertClassification(_ context.Context, c *Classification) error {
	for _, existing := range f.classifications {
		if existing.Kind == c.Kind && strings.EqualFold(existing.Description, c.Description) {
			return ErrAlreadyExists
		}
	}
	f.classifications = append(f.classifications, c)
	return nil
}

func TestResolveParty_NormalizesBeforeLookup(t *testing.T) {
	store := &fakeStore{}
	r := NewResolver(store)

	created, err := r.CreateParty(context.Background(), NewParty{
		Role:      RoleSupplier,
		LegalName: "Agropecuaria Boa Safra LTDA",
		TaxID:     "12.345.678/0001-95",
	})
	require.NoError(t, err)
	assert.Equal(t, "12345678000195", created.TaxID)
	assert.True(t, created.Active)
	assert.Equal(t, created.LegalName, created.TradeName, "trade name defaults to legal name")

	// Masked and unmasked input resolve to the same record.
	for _, raw := range []string{"12.345.678/0001-95", "12345678000195"} {
		res, err := r.ResolveParty(context.Background(), RoleSupplier, raw)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, created.ID, res.Party.ID)
	}
}

func TestResolveParty_NotFound(t *testing.T) {
	r := NewResolver(&fakeStore{})

	res, err := r.ResolveParty(context.Background(), RolePayee, "123.456.789-01")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "12345678901", res.TaxID, "normalized key reported for creation")
	assert.Nil(t, res.Party)
}

func TestResolveParty_MissingKey(t *testing.T) {
	r := NewResolver(&fakeStore{})

	_, err := r.ResolveParty(context.Background(), RoleSupplier, "   ")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestCreateParty_DuplicateRejected(t *testing.T) {
	r := NewResolver(&fakeStore{})

	_, err := r.CreateParty(context.Background(), NewParty{
		Role: RoleSupplier, LegalName: "A", TaxID: "12345678000195",
	})
	require.NoError(t, err)

	_, err = r.CreateParty(context.Background(), NewParty{
		Role: RoleSupplier, LegalName: "B", TaxID: "12.345.678/0001-95",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateParty_UniqueAcrossRoles(t *testing.T) {
	// The tax id is unique over the whole party set, not per role.
	r := NewResolver(&fakeStore{})

	_, err := r.CreateParty(context.Background(), NewParty{
		Role: RolePayee, LegalName: "Jose", TaxID: "12345678901",
	})
	require.NoError(t, err)

	_, err = r.CreateParty(context.Background(), NewParty{
		Role: RoleClient, LegalName: "Jose", TaxID: "123.456.789-01",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateParty_RaceSurfacesAsAlreadyExists(t *testing.T) {
	// A row inserted between the uniqueness check and the insert trips the
	// storage constraint; the resolver passes that through unchanged.
	store := &fakeStore{failInsert: ErrAlreadyExists}
	r := NewResolver(store)

	_, err := r.CreateParty(context.Background(), NewParty{
		Role: RoleSupplier, LegalName: "X", TaxID: "12345678000195",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestResolveClassification_CaseInsensitive(t *testing.T) {
	r := NewResolver(&fakeStore{})

	created, err := r.CreateClassification(context.Background(), KindExpense, "Fertilizantes")
	require.NoError(t, err)

	res, err := r.ResolveClassification(context.Background(), KindExpense, "FERTILIZANTES")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, created.ID, res.Classification.ID)
	assert.Equal(t, "Fertilizantes", res.Description, "canonical casing returned")

	// Same description under the other kind is a distinct namespace.
	other, err := r.ResolveClassification(context.Background(), KindRevenue, "fertilizantes")
	require.NoError(t, err)
	assert.False(t, other.Found)
}

func TestCreateClassification_DuplicateRejected(t *testing.T) {
	r := NewResolver(&fakeStore{})

	_, err := r.CreateClassification(context.Background(), KindExpense, "Sementes")
	require.NoError(t, err)

	_, err = r.CreateClassification(context.Background(), KindExpense, "sementes")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
