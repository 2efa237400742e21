package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/msgir/internal/compiler"
	"github.com/roach88/msgir/internal/ir"
	"github.com/roach88/msgir/internal/irpass"
	"github.com/roach88/msgir/internal/store"
	"github.com/roach88/msgir/internal/testutil"
)

// compilationID is the fixed id of the compilation each run records.
const compilationID = "scenario"

// Harness holds the per-run dependencies.
type Harness struct {
	store    *store.Store
	pipeline *irpass.Pipeline
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the CUE schema
// 2. Validate it
// 3. Run every message through the default pass pipeline
// 4. Write and read back every message through the store
// 5. Evaluate assertions
//
// A schema that fails to compile or validate is not an error: the failure
// is recorded on the result for compile_error and validation_error
// assertions.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewFixedIDGenerator(compilationID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store:    st,
		pipeline: irpass.DefaultPipeline(logger),
		logger:   logger,
	}

	result := NewResult()
	if err := h.execute(context.Background(), scenario, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	byteOrder := ir.LittleEndian
	if scenario.ByteOrder != "" {
		bo, err := ir.LookupByteOrder(scenario.ByteOrder)
		if err != nil {
			return fmt.Errorf("byte_order: %w", err)
		}
		byteOrder = bo
	}

	v := cuecontext.New().CompileString(scenario.Schema)
	if err := v.Err(); err != nil {
		result.CompileError = err.Error()
		return nil
	}
	schema, err := compiler.CompileSchema(v, compiler.WithByteOrder(byteOrder))
	if err != nil {
		result.CompileError = err.Error()
		return nil
	}

	if errs := compiler.Validate(schema); len(errs) > 0 {
		for _, e := range errs {
			result.ValidationCodes = append(result.ValidationCodes, e.Code)
		}
		return nil
	}

	hashes := make([]string, 0, len(schema.Messages))
	for _, msg := range schema.Messages {
		seq, err := h.pipeline.Run(msg.Tokens)
		if err != nil {
			return fmt.Errorf("message %s: %w", msg.Name, err)
		}

		hash, err := h.roundTrip(ctx, msg.Name, seq)
		if err != nil {
			return fmt.Errorf("message %s: %w", msg.Name, err)
		}
		hashes = append(hashes, hash)

		result.Messages = append(result.Messages, MessageTrace{
			Name:   msg.Name,
			Hash:   hash,
			Tokens: seq.Views(),
			seq:    seq,
		})
	}

	if _, err := h.store.RecordCompilation(ctx, scenario.Name, hashes); err != nil {
		return fmt.Errorf("recording compilation: %w", err)
	}
	return nil
}

// roundTrip writes seq, reads it back and checks the content hash is
// unchanged.
func (h *Harness) roundTrip(ctx context.Context, name string, seq ir.Sequence) (string, error) {
	hash, err := h.store.WriteSequence(ctx, name, seq)
	if err != nil {
		return "", fmt.Errorf("writing sequence: %w", err)
	}

	read, err := h.store.ReadSequence(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("reading sequence: %w", err)
	}

	readHash, err := ir.SequenceHash(read)
	if err != nil {
		return "", err
	}
	if readHash != hash {
		return "", fmt.Errorf("store round trip changed hash %s to %s", hash, readHash)
	}

	h.logger.Debug("sequence stored", "message", name, "hash", hash, "tokens", read.Len())
	return hash, nil
}
