package repository

import (
	"time"

	"go-opname-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lowStockThreshold marks a product as running low
const lowStockThreshold = 10

type AdjustmentRepository interface {
	Create(tx *gorm.DB, adj *model.StockAdjustment) error
	FindAll(teamID uuid.UUID, filter AdjustmentFilter) ([]model.StockAdjustment, error)
	GetStockMovement(teamID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(teamID uuid.UUID) (*DashboardStats, error)
}

type AdjustmentFilter struct {
	ProductID *uuid.UUID
	SessionID *uuid.UUID
	Limit     int
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts     int64 `json:"total_products"`
	LowStockCount     int64 `json:"low_stock_count"`
	TotalStock        int64 `json:"total_stock"`
	OpenSessions      int64 `json:"open_sessions"`
	CompletedSessions int64 `json:"completed_sessions"`
}

type adjustmentRepo struct {
	db *gorm.DB
}

func NewAdjustmentRepo(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepo{db}
}

func (r *adjustmentRepo) Create(tx *gorm.DB, adj *model.StockAdjustment) error {
	return tx.Omit("Product").Create(adj).Error
}

func (r *adjustmentRepo) FindAll(teamID uuid.UUID, filter AdjustmentFilter) ([]model.StockAdjustment, error) {
	var adjustments []model.StockAdjustment
	query := r.db.Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("team_id = ?", teamID)
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Order("created_at DESC").Find(&adjustments).Error
	return adjustments, err
}

func (r *adjustmentRepo) GetStockMovement(teamID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate adjustments per hari
	rows, err := r.db.Model(&model.StockAdjustment{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) as outbound
		`).
		Where("team_id = ? AND created_at BETWEEN ? AND ?", teamID, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *adjustmentRepo) GetDashboardStats(teamID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats

	products := func() *gorm.DB {
		return r.db.Model(&model.Product{}).Where("team_id = ?", teamID)
	}
	sessions := func() *gorm.DB {
		return r.db.Model(&model.OpnameSession{}).Where("team_id = ?", teamID)
	}

	if err := products().Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := products().Where("current_stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := products().Select("COALESCE(SUM(current_stock), 0)").Scan(&stats.TotalStock).Error; err != nil {
		return nil, err
	}
	if err := sessions().Where("status = ?", model.OpnameInProgress).Count(&stats.OpenSessions).Error; err != nil {
		return nil, err
	}
	if err := sessions().Where("status = ?", model.OpnameCompleted).Count(&stats.CompletedSessions).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
