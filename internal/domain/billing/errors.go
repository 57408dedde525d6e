package billing

import (
	"errors"
	"fmt"

	"github.com/quick-ledger/ottero/internal/domain/shared"
)

// Sentinels for errors.Is comparisons. Detailed errors returned by this
// package carry the same codes with a specific message.
var (
	ErrValidation           = shared.NewDomainError(shared.CodeValidation, "Validation failed")
	ErrInvalidTransition    = shared.NewDomainError(shared.CodeInvalidTransition, "Status transition not allowed")
	ErrDocumentLocked       = shared.NewDomainError(shared.CodeDocumentLocked, "Document is locked")
	ErrUnsupportedOperation = shared.NewDomainError(shared.CodeUnsupportedOperation, "Operation not supported")
)

func validationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf(format, args...))
}

func invalidTransition(kind Kind, from, to Status) *shared.DomainError {
	return shared.NewDomainError(shared.CodeInvalidTransition,
		fmt.Sprintf("Cannot move %s from %s to %s", kind.Label(), from, to))
}

func documentLocked(d *Document, field string) *shared.DomainError {
	if d.superseded {
		return shared.NewDomainError(shared.CodeDocumentLocked,
			fmt.Sprintf("Cannot change %s: revision %d of %s has been superseded", field, d.revision, d.documentNumber))
	}
	return shared.NewDomainError(shared.CodeDocumentLocked,
		fmt.Sprintf("Cannot change %s of %s in %s status", field, d.kind.Label(), d.status))
}

func unsupported(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeUnsupportedOperation, fmt.Sprintf(format, args...))
}

// IsValidationError reports whether err is a validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidTransition reports whether err is an illegal status change
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsDocumentLocked reports whether err rejected a mutation of a locked document
func IsDocumentLocked(err error) bool {
	return errors.Is(err, ErrDocumentLocked)
}

// IsUnsupportedOperation reports whether err rejected an operation for the document kind
func IsUnsupportedOperation(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}
