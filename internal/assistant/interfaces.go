package assistant

import (
	"context"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// ParseStatus tags the outcome of a parse attempt. The parser never hands a
// partially-filled record across this boundary: either every required field
// is present (ParseSuccess) or the outcome is Incomplete/Failure.
type ParseStatus int

const (
	// ParseSuccess means all required fields were extracted.
	ParseSuccess ParseStatus = iota
	// ParseIncomplete means the text was understood but required fields are
	// missing (e.g. no amount); the user should clarify.
	ParseIncomplete
	// ParseFailure means the model output could not be interpreted at all.
	ParseFailure
)

// ParsedRecord is a complete candidate transaction extracted from free text.
type ParsedRecord struct {
	Kind        domain.TransactionKind
	Amount      float64
	Category    string
	Description string
	Date        time.Time
}

// ParseResult is the tagged parse outcome. Record is non-nil only when
// Status is ParseSuccess.
type ParseResult struct {
	Status ParseStatus
	Record *ParsedRecord
}

// Parser turns a free-text money description into a candidate record.
// A returned error means the call itself failed, as opposed to a clean
// Incomplete/Failure outcome.
type Parser interface {
	Parse(ctx context.Context, text string, now time.Time) (ParseResult, error)
}

// Advisor produces a short natural-language reaction to a persisted
// transaction and its budget status text.
type Advisor interface {
	Advise(ctx context.Context, tx domain.Transaction, statusText string) (string, error)
}
