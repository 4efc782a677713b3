package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroconta/danfe-ledger-service/internal/ledger"
	"github.com/agroconta/danfe-ledger-service/internal/registry"
)

// LedgerStore implements ledger.Store on PostgreSQL.
type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// SaveEntry writes the entry with all its installments and allocations in
// one transaction. A failure at any point rolls everything back; no partial
// entry ever persists. Unique or check constraint breaches surface as
// ledger.ErrIntegrityViolation.
func (s *LedgerStore) SaveEntry(ctx context.Context, entry *ledger.Entry, installments []ledger.Installment, allocations []ledger.Allocation) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO movimentocontas
				(id, tipo, pessoa_id, descricao, valor_total, quantidade_parcelas, data_emissao, status, ativo)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`,
			entry.ID, entry.Direction, entry.PartyID, entry.Description,
			entry.TotalAmount, entry.InstallmentCount, entry.EmissionDate,
			entry.Status, entry.Active,
		).Scan(&entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		for i := range installments {
			ins := &installments[i]
			err := tx.QueryRow(ctx, `
				INSERT INTO parcelacontas
					(id, movimento_id, numero_parcela, valor_parcela, data_vencimento, data_pagamento, status, identificacao_unica)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at
			`,
				ins.ID, ins.EntryID, ins.Sequence, ins.Amount,
				ins.DueDate, ins.PaymentDate, ins.Status, ins.Identification,
			).Scan(&ins.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert installment %d: %w", ins.Sequence, err)
			}
		}

		for _, alloc := range allocations {
			_, err := tx.Exec(ctx, `
				INSERT INTO movimento_classificacao (id, movimento_id, classificacao_id, valor_classificado)
				VALUES ($1, $2, $3, $4)
			`, alloc.ID, alloc.EntryID, alloc.ClassificationID, alloc.Amount)
			if err != nil {
				return fmt.Errorf("insert allocation: %w", err)
			}
		}
		return nil
	})

	if isUniqueViolation(err) || isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %v", ledger.ErrIntegrityViolation, err)
	}
	return err
}

// GetEntry loads one entry with its installments (in sequence order) and
// allocations.
func (s *LedgerStore) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, []ledger.Installment, []ledger.Allocation, error) {
	var entry ledger.Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, tipo, pessoa_id, descricao, valor_total, quantidade_parcelas,
		       data_emissao, status, ativo, created_at
		FROM movimentocontas
		WHERE id = $1
	`, id).Scan(
		&entry.ID, &entry.Direction, &entry.PartyID, &entry.Description,
		&entry.TotalAmount, &entry.InstallmentCount, &entry.EmissionDate,
		&entry.Status, &entry.Active, &entry.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get entry: %w", err)
	}

	// Explicit sort key: installment order is sequence order.
	rows, err := s.pool.Query(ctx, `
		SELECT id, movimento_id, numero_parcela, valor_parcela, data_vencimento,
		       data_pagamento, status, identificacao_unica, created_at
		FROM parcelacontas
		WHERE movimento_id = $1
		ORDER BY numero_parcela
	`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get installments: %w", err)
	}
	defer rows.Close()

	var installments []ledger.Installment
	for rows.Next() {
		var ins ledger.Installment
		err := rows.Scan(
			&ins.ID, &ins.EntryID, &ins.Sequence, &ins.Amount, &ins.DueDate,
			&ins.PaymentDate, &ins.Status, &ins.Identification, &ins.CreatedAt,
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("get installments: %w", err)
		}
		installments = append(installments, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	allocRows, err := s.pool.Query(ctx, `
		SELECT id, movimento_id, classificacao_id, valor_classificado
		FROM movimento_classificacao
		WHERE movimento_id = $1
	`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get allocations: %w", err)
	}
	defer allocRows.Close()

	var allocations []ledger.Allocation
	for allocRows.Next() {
		var alloc ledger.Allocation
		if err := allocRows.Scan(&alloc.ID, &alloc.EntryID, &alloc.ClassificationID, &alloc.Amount); err != nil {
			return nil, nil, nil, fmt.Errorf("get allocations: %w", err)
		}
		allocations = append(allocations, alloc)
	}

	return &entry, installments, allocations, allocRows.Err()
}

// ListEntries returns entries newest first.
func (s *LedgerStore) ListEntries(ctx context.Context, limit int) ([]ledger.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tipo, pessoa_id, descricao, valor_total, quantidade_parcelas,
		       data_emissao, status, ativo, created_at
		FROM movimentocontas
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		err := rows.Scan(
			&entry.ID, &entry.Direction, &entry.PartyID, &entry.Description,
			&entry.TotalAmount, &entry.InstallmentCount, &entry.EmissionDate,
			&entry.Status, &entry.Active, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
