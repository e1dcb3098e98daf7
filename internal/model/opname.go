package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OpnameStatus string

const (
	OpnameInProgress OpnameStatus = "in_progress"
	OpnameCompleted  OpnameStatus = "completed"
)

// assignedToSeparator joins staff names in OpnameSession.AssignedTo
const assignedToSeparator = ","

// OpnameSession is one physical stock count. Status only moves
// in_progress -> completed.
type OpnameSession struct {
	BaseModel
	TeamID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"team_id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Notes        string       `gorm:"type:text" json:"notes"`
	Status       OpnameStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	LocationType LocationType `gorm:"type:varchar(10);not null" json:"location_type"`
	AssignedTo   string       `gorm:"type:text;not null" json:"-"`
	StartedAt    time.Time    `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at"`
	CompletedBy  string       `gorm:"type:varchar(255)" json:"completed_by,omitempty"`

	Records []OpnameRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
}

func (OpnameSession) TableName() string {
	return "opname_sessions"
}

func (s *OpnameSession) IsCompleted() bool {
	return s.Status == OpnameCompleted
}

// AssignedStaff returns the ordered list of staff names
func (s *OpnameSession) AssignedStaff() []string {
	if s.AssignedTo == "" {
		return []string{}
	}
	parts := strings.Split(s.AssignedTo, assignedToSeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func (s *OpnameSession) SetAssignedStaff(names []string) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	s.AssignedTo = strings.Join(cleaned, assignedToSeparator)
}

// OpnameRecord is the count entry of one product inside one session.
// ActualStock nil means the product has not been counted yet.
type OpnameRecord struct {
	BaseModel
	SessionID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_opname_session_product" json:"session_id"`
	ProductID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_opname_session_product" json:"product_id"`
	Product          *Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SystemStock      int            `gorm:"not null;default:0" json:"system_stock"`
	ActualStock      *int           `json:"actual_stock"`
	UnitValues       datatypes.JSON `json:"unit_values"`
	ReturnedQuantity int            `gorm:"not null;default:0" json:"returned_quantity"`
	Notes            string         `gorm:"type:text" json:"notes"`
	CountedBy        string         `gorm:"type:varchar(255)" json:"counted_by"`
	CountedAt        *time.Time     `json:"counted_at"`
	Difference       *int           `gorm:"-" json:"difference"`

	Photos []RecordPhoto `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

func (OpnameRecord) TableName() string {
	return "opname_records"
}

func (r *OpnameRecord) IsCounted() bool {
	return r.ActualStock != nil
}

// AfterFind fills the computed difference on every load
func (r *OpnameRecord) AfterFind(tx *gorm.DB) error {
	r.Difference = r.StockDifference()
	return nil
}

// StockDifference is counted minus frozen system stock, nil while uncounted
func (r *OpnameRecord) StockDifference() *int {
	if r.ActualStock == nil {
		return nil
	}
	d := *r.ActualStock - r.SystemStock
	return &d
}

// DecodeUnitValues returns the stored per-unit entry, or nil if none was stored
func (r *OpnameRecord) DecodeUnitValues() (map[string]decimal.Decimal, error) {
	if len(r.UnitValues) == 0 {
		return nil, nil
	}
	var values map[string]decimal.Decimal
	if err := json.Unmarshal(r.UnitValues, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func EncodeUnitValues(values map[string]decimal.Decimal) (datatypes.JSON, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// RecordPhoto is an evidence reference attached to a record
type RecordPhoto struct {
	BaseModel
	RecordID   uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	Caption    string    `gorm:"type:varchar(255)" json:"caption"`
	UploadedBy string    `gorm:"type:varchar(255)" json:"uploaded_by"`
}

func (RecordPhoto) TableName() string {
	return "opname_record_photos"
}

// OpnameSessionResponse for API responses
type OpnameSessionResponse struct {
	ID             uuid.UUID      `json:"id"`
	TeamID         uuid.UUID      `json:"team_id"`
	Title          string         `json:"title"`
	Notes          string         `json:"notes"`
	Status         OpnameStatus   `json:"status"`
	LocationType   LocationType   `json:"location_type"`
	AssignedTo     []string       `json:"assigned_to"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CompletedBy    string         `json:"completed_by,omitempty"`
	TotalRecords   int            `json:"total_records"`
	CountedRecords int            `json:"counted_records"`
	Records        []OpnameRecord `json:"records,omitempty"`
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ToResponse converts OpnameSession to OpnameSessionResponse
func (s *OpnameSession) ToResponse() OpnameSessionResponse {
	return OpnameSessionResponse{
		ID:             s.ID,
		TeamID:         s.TeamID,
		Title:          s.Title,
		Notes:          s.Notes,
		Status:         s.Status,
		LocationType:   s.LocationType,
		AssignedTo:     s.AssignedStaff(),
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		CompletedBy:    s.CompletedBy,
		TotalRecords:   len(s.Records),
		CountedRecords: countCounted(s.Records),
		Records:        s.Records,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
	}
}

func countCounted(records []OpnameRecord) int {
	n := 0
	for i := range records {
		if records[i].IsCounted() {
			n++
		}
	}
	return n
}
