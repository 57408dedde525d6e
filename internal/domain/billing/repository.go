package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/shared"
)

// Filter keys understood by DocumentRepository.FindAllForCompany
const (
	FilterKind           = "kind"
	FilterStatus         = "status"
	FilterClientID       = "client_id"
	FilterDocumentNumber = "document_number"
	FilterLatestOnly     = "latest_only"
)

// DocumentRepository persists documents. Every method is scoped to one company.
// Loaded documents carry their superseded flag.
type DocumentRepository interface {
	// FindByIDForCompany finds a document by ID
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Document, error)

	// FindByNumberAndRevision finds one revision of a document number
	FindByNumberAndRevision(ctx context.Context, companyID uuid.UUID, number string, revision int) (*Document, error)

	// FindLatestRevision finds the highest revision of a document number
	FindLatestRevision(ctx context.Context, companyID uuid.UUID, number string) (*Document, error)

	// FindRevisions lists every revision of a document number, oldest first
	FindRevisions(ctx context.Context, companyID uuid.UUID, number string) ([]*Document, error)

	// FindBySourceDocument lists the invoices converted from a quote
	FindBySourceDocument(ctx context.Context, companyID, sourceID uuid.UUID) ([]*Document, error)

	// FindAllForCompany lists documents with filtering and pagination
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]*Document, error)

	// CountForCompany counts documents matching the filter
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts documents of a kind per status
	CountByStatus(ctx context.Context, companyID uuid.UUID, kind Kind) (map[Status]int64, error)

	// CountBySourceDocument counts the invoices converted from a quote
	CountBySourceDocument(ctx context.Context, companyID, sourceID uuid.UUID) (int64, error)

	// Create inserts a new document and its lines
	Create(ctx context.Context, doc *Document) error

	// SaveWithLock updates a document if its version is unchanged since it was loaded.
	// The version is incremented on success; a mismatch returns shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, doc *Document) error

	// CreateRevision inserts next and bumps the version of prior in one transaction,
	// so concurrent writers of prior see a conflict
	CreateRevision(ctx context.Context, prior, next *Document) error

	// DeleteForCompany hard deletes a draft and its lines if it is still at
	// version. A stale version or a non-draft row is ErrConcurrencyConflict.
	DeleteForCompany(ctx context.Context, companyID, id uuid.UUID, version int) error

	// ExistsByDocumentNumber checks whether any revision uses the number
	ExistsByDocumentNumber(ctx context.Context, companyID uuid.UUID, number string) (bool, error)
}

// NumberSequence hands out document sequence values. Values are strictly
// increasing per company and kind and each value is returned exactly once.
type NumberSequence interface {
	Next(ctx context.Context, companyID uuid.UUID, kind Kind) (int64, error)
}

// SequenceValue is the last value a sequence issued for a company and kind
type SequenceValue struct {
	CompanyID uuid.UUID
	Kind      Kind
	Last      int64
}
