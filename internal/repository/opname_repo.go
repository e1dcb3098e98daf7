package repository

import (
	"sort"

	"go-opname-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordBatchSize bounds one INSERT of the session seed
const recordBatchSize = 200

// Row lock strengths for the session row
const (
	LockShare     = "SHARE"
	LockExclusive = "UPDATE"
)

// OpnameSummary aggregates the records of one session
type OpnameSummary struct {
	SessionID        uuid.UUID `json:"session_id"`
	TotalRecords     int64     `json:"total_records"`
	CountedRecords   int64     `json:"counted_records"`
	UncountedRecords int64     `json:"uncounted_records"`
	TotalReturned    int64     `json:"total_returned"`
	TotalDifference  int64     `json:"total_difference"`
	Progress         float64   `json:"progress"` // percent counted
}

// RecordCounts is total/counted per session for list views
type RecordCounts struct {
	SessionID      uuid.UUID
	TotalRecords   int64
	CountedRecords int64
}

type OpnameRepository interface {
	CreateSession(tx *gorm.DB, session *model.OpnameSession) error
	CreateRecords(tx *gorm.DB, records []model.OpnameRecord) error
	LockSession(tx *gorm.DB, id uuid.UUID, strength string) (*model.OpnameSession, error)
	CompleteSession(tx *gorm.DB, session *model.OpnameSession) error
	DeleteSession(tx *gorm.DB, id uuid.UUID) error

	FindAll(teamID uuid.UUID, status model.OpnameStatus) ([]model.OpnameSession, error)
	FindByID(teamID, id uuid.UUID) (*model.OpnameSession, error)
	FindHeader(teamID, id uuid.UUID) (*model.OpnameSession, error)
	CountRecords(sessionIDs []uuid.UUID) (map[uuid.UUID]RecordCounts, error)
	ListRecords(sessionID uuid.UUID, counted *bool) ([]model.OpnameRecord, error)
	Summary(sessionID uuid.UUID) (*OpnameSummary, error)

	FindRecord(tx *gorm.DB, sessionID, productID uuid.UUID) (*model.OpnameRecord, error)
	UpdateRecord(tx *gorm.DB, record *model.OpnameRecord) error
	CountedRecords(tx *gorm.DB, sessionID uuid.UUID) ([]model.OpnameRecord, error)
	CountUncounted(tx *gorm.DB, sessionID uuid.UUID) (int64, error)

	AddPhoto(tx *gorm.DB, photo *model.RecordPhoto) error
	DeletePhoto(tx *gorm.DB, recordID, photoID uuid.UUID) (int64, error)
}

type opnameRepo struct {
	db *gorm.DB
}

func NewOpnameRepo(db *gorm.DB) OpnameRepository {
	return &opnameRepo{db}
}

func (r *opnameRepo) CreateSession(tx *gorm.DB, session *model.OpnameSession) error {
	return tx.Omit(clause.Associations).Create(session).Error
}

// CreateRecords inserts the snapshot in batches inside the caller's transaction
func (r *opnameRepo) CreateRecords(tx *gorm.DB, records []model.OpnameRecord) error {
	if len(records) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).CreateInBatches(&records, recordBatchSize).Error
}

func (r *opnameRepo) LockSession(tx *gorm.DB, id uuid.UUID, strength string) (*model.OpnameSession, error) {
	var session model.OpnameSession
	err := tx.Clauses(clause.Locking{Strength: strength}).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *opnameRepo) CompleteSession(tx *gorm.DB, session *model.OpnameSession) error {
	return tx.Model(&model.OpnameSession{}).
		Where("id = ? AND status = ?", session.ID, model.OpnameInProgress).
		Updates(map[string]interface{}{
			"status":       model.OpnameCompleted,
			"completed_at": session.CompletedAt,
			"completed_by": session.CompletedBy,
			"updated_by":   session.UpdatedBy,
		}).Error
}

// DeleteSession removes the session with its records and photos
func (r *opnameRepo) DeleteSession(tx *gorm.DB, id uuid.UUID) error {
	var recordIDs []uuid.UUID
	if err := tx.Model(&model.OpnameRecord{}).Unscoped().Where("session_id = ?", id).Pluck("id", &recordIDs).Error; err != nil {
		return err
	}
	if len(recordIDs) > 0 {
		if err := tx.Unscoped().Where("record_id IN ?", recordIDs).Delete(&model.RecordPhoto{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Unscoped().Where("session_id = ?", id).Delete(&model.OpnameRecord{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&model.OpnameSession{}, "id = ?", id).Error
}

func (r *opnameRepo) FindAll(teamID uuid.UUID, status model.OpnameStatus) ([]model.OpnameSession, error) {
	var sessions []model.OpnameSession
	query := r.db.Where("team_id = ?", teamID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *opnameRepo) FindByID(teamID, id uuid.UUID) (*model.OpnameSession, error) {
	var session model.OpnameSession
	err := r.db.
		Preload("Records.Product.Units", preloadUnits).
		Preload("Records.Photos").
		First(&session, "id = ? AND team_id = ?", id, teamID).Error
	if err != nil {
		return nil, err
	}
	sortRecordsByProductName(session.Records)
	return &session, nil
}

// FindHeader loads the session row without records
func (r *opnameRepo) FindHeader(teamID, id uuid.UUID) (*model.OpnameSession, error) {
	var session model.OpnameSession
	if err := r.db.First(&session, "id = ? AND team_id = ?", id, teamID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *opnameRepo) CountRecords(sessionIDs []uuid.UUID) (map[uuid.UUID]RecordCounts, error) {
	counts := make(map[uuid.UUID]RecordCounts, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	var rows []RecordCounts
	err := r.db.Model(&model.OpnameRecord{}).
		Select("session_id, COUNT(*) AS total_records, COUNT(actual_stock) AS counted_records").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = row
	}
	return counts, nil
}

func (r *opnameRepo) ListRecords(sessionID uuid.UUID, counted *bool) ([]model.OpnameRecord, error) {
	var records []model.OpnameRecord
	query := r.db.
		Preload("Product.Units", preloadUnits).
		Preload("Photos").
		Where("session_id = ?", sessionID)
	if counted != nil {
		if *counted {
			query = query.Where("actual_stock IS NOT NULL")
		} else {
			query = query.Where("actual_stock IS NULL")
		}
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	sortRecordsByProductName(records)
	return records, nil
}

func (r *opnameRepo) Summary(sessionID uuid.UUID) (*OpnameSummary, error) {
	var summary OpnameSummary
	err := r.db.Model(&model.OpnameRecord{}).
		Select(`
			COUNT(*) AS total_records,
			COUNT(actual_stock) AS counted_records,
			COALESCE(SUM(returned_quantity), 0) AS total_returned,
			COALESCE(SUM(CASE WHEN actual_stock IS NOT NULL THEN actual_stock - system_stock ELSE 0 END), 0) AS total_difference
		`).
		Where("session_id = ?", sessionID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	summary.SessionID = sessionID
	summary.UncountedRecords = summary.TotalRecords - summary.CountedRecords
	if summary.TotalRecords > 0 {
		summary.Progress = float64(summary.CountedRecords) * 100 / float64(summary.TotalRecords)
	}
	return &summary, nil
}

func (r *opnameRepo) FindRecord(tx *gorm.DB, sessionID, productID uuid.UUID) (*model.OpnameRecord, error) {
	var record model.OpnameRecord
	err := tx.
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Product.Units", preloadUnits).
		First(&record, "session_id = ? AND product_id = ?", sessionID, productID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecord writes every count column, including nil/zero values
func (r *opnameRepo) UpdateRecord(tx *gorm.DB, record *model.OpnameRecord) error {
	return tx.Model(record).
		Omit(clause.Associations).
		Select("actual_stock", "unit_values", "returned_quantity", "notes", "counted_by", "counted_at", "updated_by", "updated_at").
		Updates(record).Error
}

func (r *opnameRepo) CountedRecords(tx *gorm.DB, sessionID uuid.UUID) ([]model.OpnameRecord, error) {
	var records []model.OpnameRecord
	err := tx.Where("session_id = ? AND actual_stock IS NOT NULL", sessionID).
		Order("product_id ASC").
		Find(&records).Error
	return records, err
}

func (r *opnameRepo) CountUncounted(tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.OpnameRecord{}).
		Where("session_id = ? AND actual_stock IS NULL", sessionID).
		Count(&count).Error
	return count, err
}

func (r *opnameRepo) AddPhoto(tx *gorm.DB, photo *model.RecordPhoto) error {
	return tx.Create(photo).Error
}

func (r *opnameRepo) DeletePhoto(tx *gorm.DB, recordID, photoID uuid.UUID) (int64, error) {
	result := tx.Unscoped().Where("id = ? AND record_id = ?", photoID, recordID).Delete(&model.RecordPhoto{})
	return result.RowsAffected, result.Error
}

func sortRecordsByProductName(records []model.OpnameRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Product, records[j].Product
		if a == nil || b == nil {
			return b != nil
		}
		return a.Name < b.Name
	})
}
