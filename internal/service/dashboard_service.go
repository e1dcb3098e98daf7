package service

import (
	"time"

	"go-opname-ws/internal/repository"

	"github.com/google/uuid"
)

// maxMovementDays caps the stock movement chart range
const maxMovementDays = 365

type DashboardService interface {
	GetStockMovement(teamID uuid.UUID, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(teamID uuid.UUID) (*repository.DashboardStats, error)
}

type dashboardService struct {
	adjustmentRepo repository.AdjustmentRepository
}

func NewDashboardService(aRepo repository.AdjustmentRepository) DashboardService {
	return &dashboardService{adjustmentRepo: aRepo}
}

func (s *dashboardService) GetStockMovement(teamID uuid.UUID, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > maxMovementDays {
		return nil, newValidationError("days", "must be between 1 and 365")
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.adjustmentRepo.GetStockMovement(teamID, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(teamID uuid.UUID) (*repository.DashboardStats, error) {
	return s.adjustmentRepo.GetDashboardStats(teamID)
}
