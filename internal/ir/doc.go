// Package ir provides the intermediate representation for binary message schemas.
//
// A schema is carried as a flat Sequence of Tokens. Nesting is encoded with
// BEGIN/END Signal pairs rather than a tree, so every consumer recovers the
// structure by a linear scan. This package contains the value types only;
// passes over sequences live in internal/irpass and producers in
// internal/compiler. ir imports nothing internal.
//
// Key design constraints:
//   - Tokens, Constraints and Sequences are immutable once constructed
//   - Optional encoding metadata is exposed as (value, ok), never as nil
//   - InvalidID, VariableSize and UnknownOffset keep their exact meanings;
//     0 is a real size and a real offset
//   - All JSON tags use snake_case
package ir
