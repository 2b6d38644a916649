// Package pipeline turns a batch of broker documents for one holding account into
// a lot-level ledger.
//
// A run starts from exactly one statement, which ParseSnapshot turns into an
// initial PositionSet, and then folds every later activity report into it with
// MergeActivity, in date order. Each merge works on a private copy of the
// ledger, so a failing document leaves the previous ledger untouched:
//
//	result, err := pipeline.Run(ctx, docs, pipeline.WithAliases(map[string]string{"TUP": "TUPBQ"}))
//	for _, outcome := range result.Outcomes {
//		fmt.Println(outcome.Filename, outcome.Status)
//	}
//
// RunAccounts runs several independent accounts concurrently.
package pipeline

import (
	"fmt"

	"github.com/robinvdvleuten/holdings/ledger"
)

// Kind distinguishes statements from activity reports.
type Kind string

const (
	KindStatement Kind = "statement"
	KindActivity  Kind = "activity"
)

// ParseKind parses a document kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStatement, KindActivity:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown document kind %q (expected %q or %q)", s, KindStatement, KindActivity)
}

// Document is the extracted text of one broker document.
type Document struct {
	ID       string
	Kind     Kind
	Date     ledger.Date // Zero when the date should be read from the document
	Account  string      // Account number filter, empty for all accounts
	Filename string
	Text     []byte
}

// Status is the result of processing one document.
type Status string

const (
	StatusApplied      Status = "applied"
	StatusFailed       Status = "failed"
	StatusSkipped      Status = "skipped"
	StatusNotAttempted Status = "not-attempted"
)

// DocumentOutcome reports what happened to one document of a run.
type DocumentOutcome struct {
	DocumentID string
	Filename   string
	Kind       Kind
	Date       ledger.Date
	Status     Status
	Rows       int // Rows or holdings applied
	Skipped    int // Rows already part of the prior ledger
	Err        error
}

func newOutcome(doc Document, status Status) DocumentOutcome {
	return DocumentOutcome{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Kind:       doc.Kind,
		Date:       doc.Date,
		Status:     status,
	}
}
