package service

import (
	"fmt"
	"strings"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/ws"
	"go-opname-ws/pkg/database"
	"go-opname-ws/pkg/unitconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultUnitName is used when a product is created without units
const defaultUnitName = "Pcs"

type UnitRequest struct {
	UnitName         string          `json:"unit_name" validate:"required,max=30"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base"`
	SortOrder        int             `json:"sort_order"`
}

type ProductRequest struct {
	SKU          string        `json:"sku" validate:"required,max=50"`
	Name         string        `json:"name" validate:"required,max=255"`
	Category     string        `json:"category" validate:"max=100"`
	SubCategory  string        `json:"sub_category" validate:"max=100"`
	LocationType string        `json:"location_type" validate:"required,location_type"`
	CurrentStock *int          `json:"current_stock" validate:"omitempty,min=0"`
	Units        []UnitRequest `json:"units" validate:"omitempty,dive"`
}

type CatalogService interface {
	CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	DeleteProduct(id uuid.UUID, actor Actor) error
	GetProduct(teamID, id uuid.UUID) (*model.Product, error)
	ListProducts(teamID uuid.UUID, filter repository.ProductFilter) ([]model.Product, error)
	ListAdjustments(teamID uuid.UUID, filter repository.AdjustmentFilter) ([]model.StockAdjustment, error)
}

type catalogService struct {
	productRepo    repository.ProductRepository
	adjustmentRepo repository.AdjustmentRepository
	db             *gorm.DB
	wsHub          *ws.Hub
}

func NewCatalogService(pRepo repository.ProductRepository, aRepo repository.AdjustmentRepository, db *gorm.DB, hub *ws.Hub) CatalogService {
	return &catalogService{
		productRepo:    pRepo,
		adjustmentRepo: aRepo,
		db:             db,
		wsHub:          hub,
	}
}

// buildUnits checks the unit set and fills BaseUnit on every row
func buildUnits(reqs []UnitRequest, actorID string) ([]model.ProductUnit, error) {
	if len(reqs) == 0 {
		reqs = []UnitRequest{{UnitName: defaultUnitName, ConversionToBase: decimal.NewFromInt(1)}}
	}

	calc := make([]unitconv.Unit, 0, len(reqs))
	for i := range reqs {
		reqs[i].UnitName = strings.TrimSpace(reqs[i].UnitName)
		calc = append(calc, unitconv.Unit{Name: reqs[i].UnitName, ConversionToBase: reqs[i].ConversionToBase, SortOrder: reqs[i].SortOrder})
	}
	if err := unitconv.ValidateUnits(calc); err != nil {
		return nil, newValidationError("units", err.Error())
	}
	base, _ := unitconv.BaseUnit(calc)

	units := make([]model.ProductUnit, 0, len(reqs))
	for _, r := range reqs {
		u := model.ProductUnit{
			UnitName:         r.UnitName,
			ConversionToBase: r.ConversionToBase,
			BaseUnit:         base,
			SortOrder:        r.SortOrder,
		}
		u.CreatedBy = actorID
		u.UpdatedBy = actorID
		units = append(units, u)
	}
	return units, nil
}

func normalizeProductRequest(req *ProductRequest) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.SubCategory = strings.TrimSpace(req.SubCategory)
}

func (s *catalogService) CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error) {
	// 1. Validasi Struct Dasar
	normalizeProductRequest(req)
	if err := validate(req); err != nil {
		return nil, err
	}
	units, err := buildUnits(req.Units, actor.UserID)
	if err != nil {
		return nil, err
	}

	// 2. Cek Duplikasi SKU
	if existing, err := s.productRepo.FindBySKU(actor.TeamID, req.SKU); err == nil && existing != nil {
		return nil, ErrSKUExists
	}

	product := &model.Product{
		TeamID:       actor.TeamID,
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		SubCategory:  req.SubCategory,
		LocationType: model.LocationType(req.LocationType),
		Units:        units,
	}
	if req.CurrentStock != nil {
		product.CurrentStock = *req.CurrentStock
	}
	product.CreatedBy = actor.UserID
	product.UpdatedBy = actor.UserID

	// 3. Simpan produk, satuan, dan stok awal dalam satu transaksi
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, product); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrSKUExists
			}
			return err
		}
		if product.CurrentStock == 0 {
			return nil
		}
		return s.logManualAdjustment(tx, product, 0, actor)
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":   "stock_update",
		"action": "product_created",
		"product": map[string]interface{}{
			"id":    product.ID,
			"sku":   product.SKU,
			"name":  product.Name,
			"stock": product.CurrentStock,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s created product '%s'", actor.DisplayName(), product.Name),
	})

	return s.productRepo.FindByID(actor.TeamID, product.ID)
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	normalizeProductRequest(req)
	if err := validate(req); err != nil {
		return nil, err
	}
	var units []model.ProductUnit
	if req.Units != nil {
		built, err := buildUnits(req.Units, actor.UserID)
		if err != nil {
			return nil, err
		}
		units = built
	}

	var oldStock int
	var product *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. Cari & Lock Product (Pessimistic Locking)
		existing, err := s.productRepo.LockByID(tx, id)
		if err != nil {
			return notFoundAs(err, ErrProductNotFound)
		}
		if existing.TeamID != actor.TeamID {
			return ErrProductNotFound
		}

		if req.SKU != existing.SKU {
			var count int64
			if err := tx.Model(&model.Product{}).
				Where("team_id = ? AND sku = ? AND id <> ?", actor.TeamID, req.SKU, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrSKUExists
			}
		}

		// 2. Track perubahan stock untuk broadcast
		oldStock = existing.CurrentStock

		existing.SKU = req.SKU
		existing.Name = req.Name
		existing.Category = req.Category
		existing.SubCategory = req.SubCategory
		existing.LocationType = model.LocationType(req.LocationType)
		existing.UpdatedBy = actor.UserID
		if req.CurrentStock != nil {
			existing.CurrentStock = *req.CurrentStock
		}

		if err := s.productRepo.Update(tx, existing); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrSKUExists
			}
			return err
		}
		if units != nil {
			if err := s.productRepo.ReplaceUnits(tx, existing.ID, units); err != nil {
				return err
			}
		}
		if existing.CurrentStock != oldStock {
			if err := s.logManualAdjustment(tx, existing, oldStock, actor); err != nil {
				return err
			}
		}
		product = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":   "stock_update",
		"action": "product_updated",
		"product": map[string]interface{}{
			"id":        product.ID,
			"sku":       product.SKU,
			"name":      product.Name,
			"old_stock": oldStock,
			"new_stock": product.CurrentStock,
		},
		"user":    actor.payload(),
		"message": fmt.Sprintf("%s updated product '%s'", actor.DisplayName(), product.Name),
	})

	return s.productRepo.FindByID(actor.TeamID, id)
}

func (s *catalogService) logManualAdjustment(tx *gorm.DB, product *model.Product, previous int, actor Actor) error {
	adj := &model.StockAdjustment{
		TeamID:        product.TeamID,
		ProductID:     product.ID,
		Source:        model.AdjustmentManual,
		PreviousStock: previous,
		NewStock:      product.CurrentStock,
		Delta:         product.CurrentStock - previous,
	}
	adj.CreatedBy = actor.UserID
	adj.UpdatedBy = actor.UserID
	return s.adjustmentRepo.Create(tx, adj)
}

// DeleteProduct soft-deletes; sessions that already snapshot it keep their records
func (s *catalogService) DeleteProduct(id uuid.UUID, actor Actor) error {
	product, err := s.productRepo.FindByID(actor.TeamID, id)
	if err != nil {
		return notFoundAs(err, ErrProductNotFound)
	}
	if err := s.productRepo.Delete(product.ID, actor.UserID); err != nil {
		return err
	}

	s.wsHub.Publish(actor.TeamID, map[string]interface{}{
		"type":       "stock_update",
		"action":     "product_deleted",
		"product_id": product.ID,
		"user":       actor.payload(),
		"message":    fmt.Sprintf("%s deleted product '%s'", actor.DisplayName(), product.Name),
	})
	return nil
}

func (s *catalogService) GetProduct(teamID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(teamID, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *catalogService) ListProducts(teamID uuid.UUID, filter repository.ProductFilter) ([]model.Product, error) {
	if filter.LocationType != "" && !filter.LocationType.Valid() {
		return nil, newValidationError("location_type", "must be toko or gudang")
	}
	return s.productRepo.FindAll(teamID, filter)
}

func (s *catalogService) ListAdjustments(teamID uuid.UUID, filter repository.AdjustmentFilter) ([]model.StockAdjustment, error) {
	if filter.Limit < 0 {
		return nil, newValidationError("limit", "must not be negative")
	}
	return s.adjustmentRepo.FindAll(teamID, filter)
}
