package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStatement is returned by Run when no statement anchors the ledger.
	ErrNoStatement = errors.New("no statement document")

	// ErrMultipleStatements is returned by Run when more than one statement is given.
	ErrMultipleStatements = errors.New("more than one statement document")
)

// AliasResolutionError is returned in strict alias mode for a symbol that cannot
// be mapped to a canonical symbol.
type AliasResolutionError struct {
	Symbol   string
	Filename string
	Line     int
}

func (e *AliasResolutionError) Error() string {
	return fmt.Sprintf("%s:%d: cannot resolve symbol %q: not an alias, alias target or held position", e.Filename, e.Line, e.Symbol)
}

func (e *AliasResolutionError) GetSymbol() string {
	return e.Symbol
}

func (e *AliasResolutionError) GetLine() int {
	return e.Line
}

// RowError locates a ledger error at the activity row that caused it.
type RowError struct {
	Filename string
	Line     int
	Text     string
	Err      error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Err)
}

func (e *RowError) GetLine() int {
	return e.Line
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func (e *RowError) GetText() string {
	return e.Text
}
