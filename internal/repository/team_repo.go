package repository

import (
	"go-opname-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamRepository interface {
	Create(team *model.Team) error
	FindByID(id uuid.UUID) (*model.Team, error)
	FirstOrCreate(name string) (*model.Team, error)
}

type teamRepo struct {
	db *gorm.DB
}

func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db}
}

func (r *teamRepo) Create(team *model.Team) error {
	return r.db.Create(team).Error
}

func (r *teamRepo) FindByID(id uuid.UUID) (*model.Team, error) {
	var team model.Team
	if err := r.db.First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FirstOrCreate returns the team with the given name, creating it when missing
func (r *teamRepo) FirstOrCreate(name string) (*model.Team, error) {
	var team model.Team
	err := r.db.Where("name = ?", name).First(&team).Error
	if err == gorm.ErrRecordNotFound {
		team = model.Team{Name: name}
		team.CreatedBy = "system"
		team.UpdatedBy = "system"
		if err := r.db.Create(&team).Error; err != nil {
			return nil, err
		}
		return &team, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}
