package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema. The invariants the application relies on live here, not only in
// code: the party tax id is unique across the whole table regardless of
// role, classification descriptions are unique per kind case-insensitively,
// installment identifications are globally unique and contiguous per entry,
// and referenced parties/classifications are protected from deletion by
// RESTRICT foreign keys. Installments and allocations cascade with their
// entry, which itself is never deleted by the business rules.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS pessoas (
		id            UUID PRIMARY KEY,
		tipo          TEXT NOT NULL CHECK (tipo IN ('CLIENTE', 'FORNECEDOR', 'FATURADO')),
		razao_social  TEXT NOT NULL,
		nome_fantasia TEXT NOT NULL DEFAULT '',
		cnpj_cpf      TEXT NOT NULL UNIQUE,
		telefone      TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		endereco      TEXT NOT NULL DEFAULT '',
		ativo         BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS classificacao (
		id         UUID PRIMARY KEY,
		tipo       TEXT NOT NULL CHECK (tipo IN ('DESPESA', 'RECEITA')),
		descricao  TEXT NOT NULL,
		ativo      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS classificacao_tipo_descricao_idx
		ON classificacao (tipo, LOWER(descricao))`,

	`CREATE TABLE IF NOT EXISTS movimentocontas (
		id                  UUID PRIMARY KEY,
		tipo                TEXT NOT NULL CHECK (tipo IN ('PAGAR', 'RECEBER')),
		pessoa_id           UUID NOT NULL REFERENCES pessoas(id) ON DELETE RESTRICT,
		descricao           TEXT NOT NULL,
		valor_total         NUMERIC(12,2) NOT NULL CHECK (valor_total >= 0),
		quantidade_parcelas INTEGER NOT NULL DEFAULT 1 CHECK (quantidade_parcelas >= 1),
		data_emissao        DATE NOT NULL,
		status              TEXT NOT NULL DEFAULT 'ABERTO' CHECK (status IN ('ABERTO', 'PAGO', 'CANCELADO')),
		ativo               BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS parcelacontas (
		id                  UUID PRIMARY KEY,
		movimento_id        UUID NOT NULL REFERENCES movimentocontas(id) ON DELETE CASCADE,
		numero_parcela      INTEGER NOT NULL CHECK (numero_parcela >= 1),
		valor_parcela       NUMERIC(12,2) NOT NULL,
		data_vencimento     DATE NOT NULL,
		data_pagamento      DATE,
		status              TEXT NOT NULL DEFAULT 'ABERTO' CHECK (status IN ('ABERTO', 'PAGO')),
		identificacao_unica TEXT NOT NULL UNIQUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (movimento_id, numero_parcela)
	)`,

	`CREATE TABLE IF NOT EXISTS movimento_classificacao (
		id                 UUID PRIMARY KEY,
		movimento_id       UUID NOT NULL REFERENCES movimentocontas(id) ON DELETE CASCADE,
		classificacao_id   UUID NOT NULL REFERENCES classificacao(id) ON DELETE RESTRICT,
		valor_classificado NUMERIC(12,2) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS usuarios (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		nome          TEXT NOT NULL,
		senha_hash    TEXT NOT NULL,
		ativo         BOOLEAN NOT NULL DEFAULT TRUE,
		ultimo_acesso TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the tables and indexes if absent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
