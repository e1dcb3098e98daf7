package repository

import (
	"go-opname-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	LocationType model.LocationType
	Category     string
	Search       string
}

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(teamID uuid.UUID, filter ProductFilter) ([]model.Product, error)
	FindByID(teamID, id uuid.UUID) (*model.Product, error)
	FindBySKU(teamID uuid.UUID, sku string) (*model.Product, error)
	Delete(id uuid.UUID, deletedBy string) error

	// Snapshot reads the catalog of one team/location under a share lock,
	// so the read and the record seed see the same product set.
	Snapshot(tx *gorm.DB, teamID uuid.UUID, location model.LocationType) ([]model.Product, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	Update(tx *gorm.DB, product *model.Product) error
	ReplaceUnits(tx *gorm.DB, productID uuid.UUID, units []model.ProductUnit) error
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func preloadUnits(db *gorm.DB) *gorm.DB {
	return db.Order("product_units.sort_order ASC, product_units.unit_name ASC")
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}

func (r *productRepo) FindAll(teamID uuid.UUID, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	query := r.db.Preload("Units", preloadUnits).Where("team_id = ?", teamID)
	if filter.LocationType != "" {
		query = query.Where("location_type = ?", filter.LocationType)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?))", like, like)
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(teamID, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Units", preloadUnits).
		First(&product, "id = ? AND team_id = ?", id, teamID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(teamID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "team_id = ? AND sku = ?", teamID, sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) Snapshot(tx *gorm.DB, teamID uuid.UUID, location model.LocationType) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("team_id = ? AND location_type = ?", teamID, location).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update writes the product row only; units go through ReplaceUnits
func (r *productRepo) Update(tx *gorm.DB, product *model.Product) error {
	return tx.Omit(clause.Associations).Save(product).Error
}

func (r *productRepo) ReplaceUnits(tx *gorm.DB, productID uuid.UUID, units []model.ProductUnit) error {
	if err := tx.Unscoped().Where("product_id = ?", productID).Delete(&model.ProductUnit{}).Error; err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}
	for i := range units {
		units[i].ProductID = productID
	}
	return tx.Create(&units).Error
}

// UpdateStock menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock": newStock,
			"updated_by":    updatedBy,
		}).Error
}
