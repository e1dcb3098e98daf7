package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go-opname-ws/internal/cache"
	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/ws"
	"go-opname-ws/pkg/unitconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string
	Name   string
	Email  string
	TeamID uuid.UUID
}

// DisplayName is what gets stored in counted_by / completed_by
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return a.UserID
}

func (a Actor) payload() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.UserID,
		"name":  a.Name,
		"email": a.Email,
	}
}

type CreateOpnameRequest struct {
	Title        string   `json:"title" validate:"required,max=255"`
	Notes        string   `json:"notes"`
	LocationType string   `json:"location_type" validate:"required,location_type"`
	AssignedTo   []string `json:"assigned_to" validate:"required,min=1,no_blank,no_comma"`
}

// UpsertRecordRequest carries a partial count. Nil fields are left as stored.
type UpsertRecordRequest struct {
	ActualStock      *int                   `json:"actual_stock"`
	UnitValues       map[string]interface{} `json:"unit_values"`
	ReturnedQuantity *int                   `json:"returned_quantity"`
	Notes            *string                `json:"notes"`
}

type AddPhotoRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"max=255"`
}

// CompletionResult describes what reconciliation did
type CompletionResult struct {
	Session     *model.OpnameSession    `json:"session"`
	Reconciled  int                     `json:"reconciled"`
	Uncounted   int64                   `json:"uncounted"`
	Missing     int                     `json:"missing"`
	Adjustments []model.StockAdjustment `json:"adjustments"`
}

type OpnameService interface {
	CreateSession(req *CreateOpnameRequest, actor Actor) (*model.OpnameSession, error)
	UpsertRecord(sessionID, productID uuid.UUID, req *UpsertRecordRequest, actor Actor) (*model.OpnameRecord, error)
	CompleteSession(sessionID uuid.UUID, actor Actor) (*CompletionResult, error)
	DeleteSession(sessionID uuid.UUID, actor Actor) error

	GetSession(teamID, sessionID uuid.UUID) (*model.OpnameSession, error)
	ListSessions(teamID uuid.UUID, status string) ([]model.OpnameSessionResponse, error)
	ListRecords(teamID, sessionID uuid.UUID, counted *bool) ([]model.OpnameRecord, error)
	GetSummary(ctx context.Context, teamID, sessionID uuid.UUID) (*repository.OpnameSummary, error)

	AddPhoto(sessionID, productID uuid.UUID, req *AddPhotoRequest, actor Actor) (*model.RecordPhoto, error)
	RemovePhoto(sessionID, productID, photoID uuid.UUID, actor Actor) error
}

type opnameService struct {
	opnameRepo     repository.OpnameRepository
	productRepo    repository.ProductRepository
	adjustmentRepo repository.AdjustmentRepository
	db             *gorm.DB
	summaryCache   cache.SummaryCache
	cacheTTL       time.Duration
	wsHub          *ws.Hub
}

func NewOpnameService(
	oRepo repository.OpnameRepository,
	pRepo repository.ProductRepository,
	aRepo repository.AdjustmentRepository,
	db *gorm.DB,
	summaryCache cache.SummaryCache,
	cacheTTL time.Duration,
	hub *ws.Hub,
) OpnameService {
	if summaryCache == nil {
		summaryCache = cache.NoopSummaryCache{}
	}
	return &opnameService{
		opnameRepo:     oRepo,
		productRepo:    pRepo,
		adjustmentRepo: aRepo,
		db:             db,
		summaryCache:   summaryCache,
		cacheTTL:       cacheTTL,
		wsHub:          hub,
	}
}

// notFoundAs maps gorm's not-found into the given domain error
func notFoundAs(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func (s *opnameService) CreateSession(req *CreateOpnameRequest, actor Actor) (*model.OpnameSession, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate(req); err != nil {
		return nil, err
	}

	session := &model.OpnameSession{
		TeamID:       actor.TeamID,
		Title:        req.Title,
		Notes:        req.Notes,
		Status:       model.OpnameInProgress,
		LocationType: model.LocationType(req.LocationType),
		StartedAt:    time.Now(),
	}
	session.SetAssignedStaff(req.AssignedTo)
	session.CreatedBy = actor.UserID
	session.UpdatedBy = actor.UserID

	// Snapshot dan seed record dalam satu transaksi
	err := s.db.Transaction(func(tx *gorm.DB) error {
		products, err := s.productRepo.Snapshot(tx, actor.TeamID, session.LocationType)
		if err != nil {
			return err
		}
		if err := s.opnameRepo.CreateSession(tx, session); err != nil {
			return err
		}

		records := make([]model.OpnameRecord, 0, len(products))
		for _, p := range products {
			record := model.OpnameRecord{
				SessionID:   session.ID,
				ProductID:   p.ID,
				SystemStock: p.CurrentStock,
			}
			record.CreatedBy = actor.UserID
			record.UpdatedBy = actor.UserID
			records = append(records, record)
		}
		return s.opnameRepo.CreateRecords(tx, records)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.opnameRepo.FindByID(actor.TeamID, session.ID)
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":   "opname_update",
		"action": "session_created",
		"session": map[string]interface{}{
			"id":            created.ID,
			"title":         created.Title,
			"location_type": created.LocationType,
			"total_records": len(created.Records),
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s started opname '%s'", actor.DisplayName(), created.Title),
	})

	return created, nil
}

// checkUpsert validates the request before any state is touched and returns
// the parsed unit entries (nil when unit_values was not supplied).
func checkUpsert(req *UpsertRecordRequest) (map[string]decimal.Decimal, error) {
	if req.ActualStock == nil && req.UnitValues == nil && req.ReturnedQuantity == nil && req.Notes == nil {
		return nil, newValidationError("", "at least one of actual_stock, unit_values, returned_quantity or notes is required")
	}
	if req.ActualStock != nil && *req.ActualStock < 0 {
		return nil, newValidationError("actual_stock", "must not be negative")
	}
	if req.ActualStock != nil && *req.ActualStock > unitconv.MaxTotal {
		return nil, newValidationError("actual_stock", unitconv.ErrQuantityTooLarge.Error())
	}
	if req.ReturnedQuantity != nil && *req.ReturnedQuantity < 0 {
		return nil, newValidationError("returned_quantity", "must not be negative")
	}
	if req.ReturnedQuantity != nil && *req.ReturnedQuantity > unitconv.MaxTotal {
		return nil, newValidationError("returned_quantity", unitconv.ErrQuantityTooLarge.Error())
	}
	if req.UnitValues == nil {
		return nil, nil
	}
	entered, err := unitconv.ParseQuantities(req.UnitValues)
	if err != nil {
		var qErr *unitconv.QuantityError
		if errors.As(err, &qErr) {
			return nil, newValidationError("unit_values."+qErr.Unit, qErr.Reason)
		}
		return nil, newValidationError("unit_values", err.Error())
	}
	return entered, nil
}

// productUnits converts the preloaded product units for the calculator
func productUnits(p *model.Product) []unitconv.Unit {
	if p == nil {
		return nil
	}
	units := make([]unitconv.Unit, 0, len(p.Units))
	for _, u := range p.Units {
		units = append(units, unitconv.Unit{Name: u.UnitName, ConversionToBase: u.ConversionToBase, SortOrder: u.SortOrder})
	}
	return units
}

// canonicalEntries keeps entries for the product's own units only, keyed by
// the unit's stored name (matching is case-insensitive).
func canonicalEntries(units []unitconv.Unit, entered map[string]decimal.Decimal) map[string]decimal.Decimal {
	byName := make(map[string]string, len(units))
	for _, u := range units {
		byName[strings.ToLower(u.Name)] = u.Name
	}
	out := make(map[string]decimal.Decimal, len(entered))
	for name, qty := range entered {
		if canonical, ok := byName[strings.ToLower(name)]; ok {
			out[canonical] = qty
		}
	}
	return out
}

// applyCount overwrites the supplied fields of the record. unit_values wins
// over actual_stock; a bare actual_stock clears any stored breakdown.
func applyCount(record *model.OpnameRecord, req *UpsertRecordRequest, entered map[string]decimal.Decimal) error {
	switch {
	case entered != nil:
		units := productUnits(record.Product)
		if len(units) == 0 {
			return integrityError(unitconv.ErrNoUnits)
		}
		values := canonicalEntries(units, entered)
		total, err := unitconv.Total(units, values)
		if errors.Is(err, unitconv.ErrQuantityTooLarge) {
			return newValidationError("unit_values", err.Error())
		}
		if err != nil {
			return integrityError(err)
		}
		raw, err := model.EncodeUnitValues(values)
		if err != nil {
			return err
		}
		record.ActualStock = &total
		record.UnitValues = raw
	case req.ActualStock != nil:
		actual := *req.ActualStock
		record.ActualStock = &actual
		record.UnitValues = nil
	}

	if req.ReturnedQuantity != nil {
		record.ReturnedQuantity = *req.ReturnedQuantity
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	record.Difference = record.StockDifference()
	return nil
}

func (s *opnameService) UpsertRecord(sessionID, productID uuid.UUID, req *UpsertRecordRequest, actor Actor) (*model.OpnameRecord, error) {
	entered, err := checkUpsert(req)
	if err != nil {
		return nil, err
	}

	var record *model.OpnameRecord
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Share lock: upsert lain tetap jalan, CompleteSession harus menunggu
		session, err := s.opnameRepo.LockSession(tx, sessionID, repository.LockShare)
		if err != nil {
			return notFoundAs(err, ErrSessionNotFound)
		}
		if session.TeamID != actor.TeamID {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		rec, err := s.opnameRepo.FindRecord(tx, sessionID, productID)
		if err != nil {
			return notFoundAs(err, ErrRecordNotFound)
		}
		if err := applyCount(rec, req, entered); err != nil {
			return err
		}

		now := time.Now()
		rec.CountedBy = actor.DisplayName()
		rec.CountedAt = &now
		rec.UpdatedBy = actor.UserID
		if err := s.opnameRepo.UpdateRecord(tx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(sessionID)

	productName := ""
	if record.Product != nil {
		productName = record.Product.Name
	}
	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":   "opname_update",
		"action": "record_updated",
		"record": map[string]interface{}{
			"session_id":        sessionID,
			"product_id":        productID,
			"product_name":      productName,
			"system_stock":      record.SystemStock,
			"actual_stock":      record.ActualStock,
			"difference":        record.Difference,
			"returned_quantity": record.ReturnedQuantity,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s counted '%s'", actor.DisplayName(), productName),
	})

	return record, nil
}

func (s *opnameService) CompleteSession(sessionID uuid.UUID, actor Actor) (*CompletionResult, error) {
	result := &CompletionResult{Adjustments: []model.StockAdjustment{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Exclusive lock: menunggu semua upsert yang sedang berjalan
		session, err := s.opnameRepo.LockSession(tx, sessionID, repository.LockExclusive)
		if err != nil {
			return notFoundAs(err, ErrSessionNotFound)
		}
		if session.TeamID != actor.TeamID {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		uncounted, err := s.opnameRepo.CountUncounted(tx, sessionID)
		if err != nil {
			return err
		}
		result.Uncounted = uncounted

		now := time.Now()
		session.Status = model.OpnameCompleted
		session.CompletedAt = &now
		session.CompletedBy = actor.DisplayName()
		session.UpdatedBy = actor.UserID
		if err := s.opnameRepo.CompleteSession(tx, session); err != nil {
			return err
		}

		return s.reconcile(tx, session, actor, result)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(sessionID)

	completed, err := s.opnameRepo.FindByID(actor.TeamID, sessionID)
	if err != nil {
		return nil, err
	}
	result.Session = completed

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":   "opname_update",
		"action": "session_completed",
		"session": map[string]interface{}{
			"id":         completed.ID,
			"title":      completed.Title,
			"reconciled": result.Reconciled,
			"uncounted":  result.Uncounted,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s completed opname '%s'", actor.DisplayName(), completed.Title),
	})
	if len(result.Adjustments) > 0 {
		changes := make([]map[string]interface{}, 0, len(result.Adjustments))
		for _, adj := range result.Adjustments {
			changes = append(changes, map[string]interface{}{
				"product_id": adj.ProductID,
				"old_stock":  adj.PreviousStock,
				"new_stock":  adj.NewStock,
				"delta":      adj.Delta,
			})
		}
		s.wsHub.Publish(actor.TeamID, map[string]interface{}{
			"type":     "stock_update",
			"action":   "opname_reconciled",
			"products": changes,
			"user":     actor.payload(),
			"message":  fmt.Sprintf("Opname '%s' adjusted %d products", completed.Title, len(changes)),
		})
	}

	return result, nil
}

// reconcile writes counted stock back to the catalog. Runs inside
// CompleteSession's transaction; products are locked in product_id order.
func (s *opnameService) reconcile(tx *gorm.DB, session *model.OpnameSession, actor Actor, result *CompletionResult) error {
	records, err := s.opnameRepo.CountedRecords(tx, session.ID)
	if err != nil {
		return err
	}

	sessionID := session.ID
	for _, rec := range records {
		product, err := s.productRepo.LockByID(tx, rec.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Produk sudah dihapus dari katalog
			result.Missing++
			continue
		}
		if err != nil {
			return err
		}

		previous := product.CurrentStock
		counted := *rec.ActualStock
		if err := s.productRepo.UpdateStock(tx, product.ID, counted, actor.UserID); err != nil {
			return err
		}
		result.Reconciled++

		if counted == previous {
			continue
		}
		adj := model.StockAdjustment{
			TeamID:        session.TeamID,
			ProductID:     product.ID,
			SessionID:     &sessionID,
			Source:        model.AdjustmentOpname,
			PreviousStock: previous,
			NewStock:      counted,
			Delta:         counted - previous,
		}
		adj.CreatedBy = actor.UserID
		adj.UpdatedBy = actor.UserID
		if err := s.adjustmentRepo.Create(tx, &adj); err != nil {
			return err
		}
		result.Adjustments = append(result.Adjustments, adj)
	}
	return nil
}

func (s *opnameService) DeleteSession(sessionID uuid.UUID, actor Actor) error {
	var title string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.opnameRepo.LockSession(tx, sessionID, repository.LockExclusive)
		if err != nil {
			return notFoundAs(err, ErrSessionNotFound)
		}
		if session.TeamID != actor.TeamID {
			return ErrSessionNotFound
		}
		title = session.Title
		return s.opnameRepo.DeleteSession(tx, sessionID)
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(sessionID)

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":       "opname_update",
		"action":     "session_deleted",
		"session_id": sessionID,
		"user":       actor.payload(),
		"message":    fmt.Sprintf("%s deleted opname '%s'", actor.DisplayName(), title),
	})
	return nil
}

func (s *opnameService) GetSession(teamID, sessionID uuid.UUID) (*model.OpnameSession, error) {
	session, err := s.opnameRepo.FindByID(teamID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}
	return session, nil
}

func (s *opnameService) ListSessions(teamID uuid.UUID, status string) ([]model.OpnameSessionResponse, error) {
	filter := model.OpnameStatus(status)
	if filter != "" && filter != model.OpnameInProgress && filter != model.OpnameCompleted {
		return nil, newValidationError("status", "must be in_progress or completed")
	}

	sessions, err := s.opnameRepo.FindAll(teamID, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	counts, err := s.opnameRepo.CountRecords(ids)
	if err != nil {
		return nil, err
	}

	responses := make([]model.OpnameSessionResponse, 0, len(sessions))
	for i := range sessions {
		resp := sessions[i].ToResponse()
		if c, ok := counts[sessions[i].ID]; ok {
			resp.TotalRecords = int(c.TotalRecords)
			resp.CountedRecords = int(c.CountedRecords)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *opnameService) ListRecords(teamID, sessionID uuid.UUID, counted *bool) ([]model.OpnameRecord, error) {
	if _, err := s.opnameRepo.FindHeader(teamID, sessionID); err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}
	return s.opnameRepo.ListRecords(sessionID, counted)
}

func (s *opnameService) GetSummary(ctx context.Context, teamID, sessionID uuid.UUID) (*repository.OpnameSummary, error) {
	if _, err := s.opnameRepo.FindHeader(teamID, sessionID); err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}

	cached, ok, err := s.summaryCache.Get(ctx, sessionID)
	if err != nil {
		log.Printf("summary cache get %s: %v", sessionID, err)
	}
	if ok {
		return cached, nil
	}

	summary, err := s.opnameRepo.Summary(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.summaryCache.Set(ctx, summary, s.cacheTTL); err != nil {
		log.Printf("summary cache set %s: %v", sessionID, err)
	}
	return summary, nil
}

// lockOpenRecord locks the session for sharing and loads one of its records.
// Used by the photo operations, which follow the same rules as a count.
func (s *opnameService) lockOpenRecord(tx *gorm.DB, sessionID, productID uuid.UUID, actor Actor) (*model.OpnameRecord, error) {
	session, err := s.opnameRepo.LockSession(tx, sessionID, repository.LockShare)
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}
	if session.TeamID != actor.TeamID {
		return nil, ErrSessionNotFound
	}
	if session.IsCompleted() {
		return nil, ErrSessionCompleted
	}
	record, err := s.opnameRepo.FindRecord(tx, sessionID, productID)
	if err != nil {
		return nil, notFoundAs(err, ErrRecordNotFound)
	}
	return record, nil
}

func (s *opnameService) AddPhoto(sessionID, productID uuid.UUID, req *AddPhotoRequest, actor Actor) (*model.RecordPhoto, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := validate(req); err != nil {
		return nil, err
	}

	var photo *model.RecordPhoto
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lockOpenRecord(tx, sessionID, productID, actor)
		if err != nil {
			return err
		}
		photo = &model.RecordPhoto{
			RecordID:   record.ID,
			URL:        req.URL,
			Caption:    req.Caption,
			UploadedBy: actor.DisplayName(),
		}
		photo.CreatedBy = actor.UserID
		photo.UpdatedBy = actor.UserID
		return s.opnameRepo.AddPhoto(tx, photo)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(sessionID)
	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":       "opname_update",
		"action":     "photo_added",
		"session_id": sessionID,
		"product_id": productID,
		"photo_id":   photo.ID,
		"user":       actor.payload(),
	})
	return photo, nil
}

func (s *opnameService) RemovePhoto(sessionID, productID, photoID uuid.UUID, actor Actor) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lockOpenRecord(tx, sessionID, productID, actor)
		if err != nil {
			return err
		}
		removed, err := s.opnameRepo.DeletePhoto(tx, record.ID, photoID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return ErrPhotoNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(sessionID)
	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":       "opname_update",
		"action":     "photo_removed",
		"session_id": sessionID,
		"product_id": productID,
		"photo_id":   photoID,
		"user":       actor.payload(),
	})
	return nil
}

// invalidateSummary drops the cached summary; failures only cost freshness
func (s *opnameService) invalidateSummary(sessionID uuid.UUID) {
	if err := s.summaryCache.Invalidate(context.Background(), sessionID); err != nil {
		log.Printf("summary cache invalidate %s: %v", sessionID, err)
	}
}
