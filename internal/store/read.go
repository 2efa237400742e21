package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/msgir/internal/ir"
)

// SequenceInfo summarizes a stored sequence.
type SequenceInfo struct {
	Hash         string `json:"hash" yaml:"hash"`
	Name         string `json:"name" yaml:"name"`
	TokenCount   int    `json:"token_count" yaml:"token_count"`
	IRVersion    string `json:"ir_version" yaml:"ir_version"`
	Compilations int    `json:"compilations" yaml:"compilations"`
}

// Compilation is one recorded compile run.
type Compilation struct {
	ID          string   `json:"id" yaml:"id"`
	Source      string   `json:"source" yaml:"source"`
	ToolVersion string   `json:"tool_version" yaml:"tool_version"`
	IRVersion   string   `json:"ir_version" yaml:"ir_version"`
	Hashes      []string `json:"hashes" yaml:"hashes"`
}

// ReadSequence loads the sequence stored under hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSequence(ctx context.Context, hash string) (ir.Sequence, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT token_count FROM sequences WHERE hash = ?
	`, hash).Scan(&count)
	if err != nil {
		return ir.Sequence{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT signal, name, schema_id, primitive_type, size, byte_offset, byte_order, constraints
		FROM tokens
		WHERE sequence_hash = ?
		ORDER BY position ASC
	`, hash)
	if err != nil {
		return ir.Sequence{}, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	views := make([]ir.TokenView, 0, count)
	for rows.Next() {
		v, err := scanTokenView(rows)
		if err != nil {
			return ir.Sequence{}, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return ir.Sequence{}, fmt.Errorf("iterate tokens: %w", err)
	}

	if len(views) != count {
		return ir.Sequence{}, fmt.Errorf("sequence %s: stored %d tokens, expected %d", hash, len(views), count)
	}

	seq, err := ir.SequenceFromViews(views)
	if err != nil {
		return ir.Sequence{}, fmt.Errorf("sequence %s: %w", hash, err)
	}
	return seq, nil
}

func scanTokenView(rows *sql.Rows) (ir.TokenView, error) {
	var (
		v           ir.TokenView
		constraints string
	)
	if err := rows.Scan(
		&v.Signal, &v.Name, &v.SchemaID, &v.PrimitiveType,
		&v.Size, &v.Offset, &v.ByteOrder, &constraints,
	); err != nil {
		return ir.TokenView{}, fmt.Errorf("scan token: %w", err)
	}

	cv, err := unmarshalConstraints(constraints)
	if err != nil {
		return ir.TokenView{}, err
	}
	v.Constraints = cv
	return v, nil
}

// ListSequences returns every stored sequence.
// Results are ordered deterministically: ORDER BY name, hash COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListSequences(ctx context.Context) ([]SequenceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.hash, s.name, s.token_count, s.ir_version, COUNT(cm.compilation_id)
		FROM sequences s
		LEFT JOIN compilation_messages cm ON cm.sequence_hash = s.hash
		GROUP BY s.hash
		ORDER BY s.name COLLATE BINARY ASC, s.hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	infos := []SequenceInfo{}
	for rows.Next() {
		var info SequenceInfo
		if err := rows.Scan(&info.Hash, &info.Name, &info.TokenCount, &info.IRVersion, &info.Compilations); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sequences: %w", err)
	}
	return infos, nil
}

// ReadCompilation loads a compilation and its sequence hashes in the order
// they were recorded.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCompilation(ctx context.Context, id string) (Compilation, error) {
	c := Compilation{ID: id, Hashes: []string{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT source, tool_version, ir_version FROM compilations WHERE id = ?
	`, id).Scan(&c.Source, &c.ToolVersion, &c.IRVersion)
	if err != nil {
		return Compilation{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_hash FROM compilation_messages
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return Compilation{}, fmt.Errorf("query compilation messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return Compilation{}, fmt.Errorf("scan compilation message: %w", err)
		}
		c.Hashes = append(c.Hashes, hash)
	}
	if err := rows.Err(); err != nil {
		return Compilation{}, fmt.Errorf("iterate compilation messages: %w", err)
	}
	return c, nil
}
