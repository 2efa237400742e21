package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/msgir/internal/ir"
)

// WriteSequence stores seq under its content hash and returns the hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency: writing a sequence that
// is already stored leaves the existing row (and its name) untouched.
func (s *Store) WriteSequence(ctx context.Context, name string, seq ir.Sequence) (string, error) {
	if name == "" {
		return "", errors.New("write sequence: name is required")
	}

	hash, err := ir.SequenceHash(seq)
	if err != nil {
		return "", fmt.Errorf("write sequence: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write sequence: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sequences (hash, name, token_count, ir_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, name, seq.Len(), ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("write sequence: insert: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("write sequence: rows affected: %w", err)
	}
	if inserted == 0 {
		return hash, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tokens
		(sequence_hash, position, signal, name, schema_id, primitive_type, size, byte_offset, byte_order, constraints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write sequence: prepare tokens: %w", err)
	}
	defer stmt.Close()

	for i, tok := range seq.All() {
		v := tok.View()
		constraints, err := marshalConstraints(v.Constraints)
		if err != nil {
			return "", fmt.Errorf("write sequence: token %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			hash, i, v.Signal, v.Name, v.SchemaID, v.PrimitiveType,
			v.Size, v.Offset, v.ByteOrder, constraints,
		); err != nil {
			return "", fmt.Errorf("write sequence: token %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write sequence: commit: %w", err)
	}
	return hash, nil
}

// RecordCompilation records one compile run over source and the ordered
// sequence hashes it produced. Every hash must already be stored.
// Returns the new compilation id.
func (s *Store) RecordCompilation(ctx context.Context, source string, hashes []string) (string, error) {
	id := s.ids.Generate()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record compilation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO compilations (id, source, tool_version, ir_version)
		VALUES (?, ?, ?, ?)
	`, id, source, ir.ToolVersion, ir.IRVersion); err != nil {
		return "", fmt.Errorf("record compilation: insert: %w", err)
	}

	for i, hash := range hashes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO compilation_messages (compilation_id, position, sequence_hash)
			VALUES (?, ?, ?)
		`, id, i, hash); err != nil {
			return "", fmt.Errorf("record compilation: sequence %s: %w", hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record compilation: commit: %w", err)
	}
	return id, nil
}
