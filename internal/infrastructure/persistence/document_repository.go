package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/domain/shared"
	"github.com/quick-ledger/ottero/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDocumentRepository implements billing.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_order ASC")
}

func (r *GormDocumentRepository) scoped(ctx context.Context, companyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Preload("Items", preloadItems).
		Where("company_id = ?", companyID)
}

// FindByIDForCompany finds a document by ID within a company
func (r *GormDocumentRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*billing.Document, error) {
	return r.first(ctx, companyID, r.scoped(ctx, companyID).Where("id = ?", id))
}

// FindByNumberAndRevision finds one revision of a document number
func (r *GormDocumentRepository) FindByNumberAndRevision(ctx context.Context, companyID uuid.UUID, number string, revision int) (*billing.Document, error) {
	return r.first(ctx, companyID, r.scoped(ctx, companyID).
		Where("document_number = ? AND revision = ?", number, revision))
}

// FindLatestRevision finds the highest revision of a document number
func (r *GormDocumentRepository) FindLatestRevision(ctx context.Context, companyID uuid.UUID, number string) (*billing.Document, error) {
	return r.first(ctx, companyID, r.scoped(ctx, companyID).
		Where("document_number = ?", number).
		Order("revision DESC"))
}

// FindRevisions lists every revision of a document number, oldest first
func (r *GormDocumentRepository) FindRevisions(ctx context.Context, companyID uuid.UUID, number string) ([]*billing.Document, error) {
	var rows []models.DocumentModel
	if err := r.scoped(ctx, companyID).
		Where("document_number = ?", number).
		Order("revision ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find revisions of %s: %w", number, err)
	}
	return r.toDomain(ctx, companyID, rows)
}

// FindBySourceDocument lists the invoices converted from a quote, oldest first
func (r *GormDocumentRepository) FindBySourceDocument(ctx context.Context, companyID, sourceID uuid.UUID) ([]*billing.Document, error) {
	var rows []models.DocumentModel
	if err := r.scoped(ctx, companyID).
		Where("source_document_id = ?", sourceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find documents from source %s: %w", sourceID, err)
	}
	return r.toDomain(ctx, companyID, rows)
}

// FindAllForCompany lists documents with filtering and pagination
func (r *GormDocumentRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]*billing.Document, error) {
	var rows []models.DocumentModel
	if err := r.applyFilter(r.scoped(ctx, companyID), filter).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return r.toDomain(ctx, companyID, rows)
}

// CountForCompany counts documents matching the filter
func (r *GormDocumentRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("company_id = ?", companyID)
	if err := r.applyFilterWithoutPagination(query, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// CountByStatus counts the latest revisions of a kind per status
func (r *GormDocumentRepository) CountByStatus(ctx context.Context, companyID uuid.UUID, kind billing.Kind) (map[billing.Status]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Select("status, COUNT(*) AS count").
		Where("company_id = ? AND kind = ?", companyID, kind).
		Where(latestRevisionCondition).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}

	counts := make(map[billing.Status]int64)
	if machine := billing.MachineFor(kind); machine != nil {
		for _, s := range machine.Statuses() {
			counts[s] = 0
		}
	}
	for _, row := range rows {
		counts[billing.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// CountBySourceDocument counts the invoices converted from a quote
func (r *GormDocumentRepository) CountBySourceDocument(ctx context.Context, companyID, sourceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("company_id = ? AND source_document_id = ?", companyID, sourceID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents from source %s: %w", sourceID, err)
	}
	return count, nil
}

// Create inserts a new document and its lines
func (r *GormDocumentRepository) Create(ctx context.Context, doc *billing.Document) error {
	doc.IdentifyLines()
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertDocument(tx, model); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.CodeAlreadyExists,
					fmt.Sprintf("Document %s revision %d already exists", model.DocumentNumber, model.Revision))
			}
			return err
		}
		return nil
	})
}

// SaveWithLock updates a document if its version is unchanged since it was loaded.
// Lines are replaced as a whole.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *billing.Document) error {
	doc.IdentifyLines()
	model := models.DocumentModelFromDomain(doc)
	expected := doc.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := model.UpdateColumns()
		columns["version"] = gorm.Expr("version + 1")

		result := tx.Model(&models.DocumentModel{}).
			Where("id = ? AND company_id = ? AND version = ?", doc.ID, doc.CompanyID, expected).
			Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("update document %s: %w", doc.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrConflict(tx, doc.CompanyID, doc.ID)
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
			return fmt.Errorf("replace lines of %s: %w", doc.ID, err)
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return fmt.Errorf("replace lines of %s: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.IncrementVersion()
	return nil
}

// CreateRevision inserts next and bumps the version of prior in one transaction
func (r *GormDocumentRepository) CreateRevision(ctx context.Context, prior, next *billing.Document) error {
	next.IdentifyLines()
	model := models.DocumentModelFromDomain(next)
	expected := prior.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DocumentModel{}).
			Where("id = ? AND company_id = ? AND version = ?", prior.ID, prior.CompanyID, expected).
			Updates(map[string]interface{}{
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("lock revision %s: %w", prior.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrConflict(tx, prior.CompanyID, prior.ID)
		}

		if err := insertDocument(tx, model); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrConcurrencyConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	prior.IncrementVersion()
	prior.MarkSuperseded()
	return nil
}

// DeleteForCompany hard deletes a draft and its lines. The row must still be a
// draft at the version the caller loaded; otherwise nothing is removed.
func (r *GormDocumentRepository) DeleteForCompany(ctx context.Context, companyID, id uuid.UUID, version int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("company_id = ? AND id = ? AND version = ? AND status = ?",
			companyID, id, version, billing.StatusDraft).
			Delete(&models.DocumentModel{})
		if result.Error != nil {
			return fmt.Errorf("delete document %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrConflict(tx, companyID, id)
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentItemModel{}).Error; err != nil {
			return fmt.Errorf("delete lines of %s: %w", id, err)
		}
		return nil
	})
}

// ExistsByDocumentNumber checks whether any revision uses the number
func (r *GormDocumentRepository) ExistsByDocumentNumber(ctx context.Context, companyID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("company_id = ? AND document_number = ?", companyID, number).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check document number %s: %w", number, err)
	}
	return count > 0, nil
}

func insertDocument(tx *gorm.DB, model *models.DocumentModel) error {
	items := model.Items
	model.Items = nil
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	model.Items = items
	if len(items) > 0 {
		if err := tx.Create(&model.Items).Error; err != nil {
			return fmt.Errorf("insert document lines: %w", err)
		}
	}
	return nil
}

// missingOrConflict tells a deleted row from a stale version after an update matched nothing
func (r *GormDocumentRepository) missingOrConflict(tx *gorm.DB, companyID, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.DocumentModel{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

func (r *GormDocumentRepository) first(ctx context.Context, companyID uuid.UUID, query *gorm.DB) (*billing.Document, error) {
	var row models.DocumentModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	docs, err := r.toDomain(ctx, companyID, []models.DocumentModel{row})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// toDomain converts rows and sets the superseded flag from the highest
// revision stored for each number
func (r *GormDocumentRepository) toDomain(ctx context.Context, companyID uuid.UUID, rows []models.DocumentModel) ([]*billing.Document, error) {
	docs := make([]*billing.Document, 0, len(rows))
	if len(rows) == 0 {
		return docs, nil
	}

	latest, err := r.latestRevisions(ctx, companyID, rows)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		row := &rows[i]
		doc, err := row.ToDomain(row.Revision < latest[row.DocumentNumber])
		if err != nil {
			return nil, fmt.Errorf("load document %s: %w", row.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *GormDocumentRepository) latestRevisions(ctx context.Context, companyID uuid.UUID, rows []models.DocumentModel) (map[string]int, error) {
	seen := make(map[string]bool, len(rows))
	numbers := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.DocumentNumber] {
			seen[row.DocumentNumber] = true
			numbers = append(numbers, row.DocumentNumber)
		}
	}

	var maxRows []struct {
		DocumentNumber string
		MaxRevision    int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Select("document_number, MAX(revision) AS max_revision").
		Where("company_id = ? AND document_number IN ?", companyID, numbers).
		Group("document_number").
		Scan(&maxRows).Error; err != nil {
		return nil, fmt.Errorf("load latest revisions: %w", err)
	}

	latest := make(map[string]int, len(maxRows))
	for _, row := range maxRows {
		latest[row.DocumentNumber] = row.MaxRevision
	}
	return latest, nil
}

// latestRevisionCondition keeps only rows with no higher revision of the same number
const latestRevisionCondition = `NOT EXISTS (SELECT 1 FROM billing_documents newer
	WHERE newer.company_id = billing_documents.company_id
	AND newer.document_number = billing_documents.document_number
	AND newer.revision > billing_documents.revision)`

// applyFilter applies filter options with pagination and ordering
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if orderBy == "document_number" {
		query = query.Order("revision " + orderDir)
	}
	return query
}

// applyFilterWithoutPagination applies search and field filters
func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(document_number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case billing.FilterKind:
			query = query.Where("kind = ?", value)
		case billing.FilterStatus:
			switch v := value.(type) {
			case []billing.Status:
				if len(v) > 0 {
					query = query.Where("status IN ?", v)
				}
			case []string:
				if len(v) > 0 {
					query = query.Where("status IN ?", v)
				}
			default:
				query = query.Where("status = ?", value)
			}
		case billing.FilterClientID:
			query = query.Where("client_id = ?", value)
		case billing.FilterDocumentNumber:
			query = query.Where("document_number = ?", value)
		case billing.FilterLatestOnly:
			if latest, ok := value.(bool); ok && latest {
				query = query.Where(latestRevisionCondition)
			}
		}
	}
	return query
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ billing.DocumentRepository = (*GormDocumentRepository)(nil)
