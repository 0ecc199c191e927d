package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressComplete   = "complete"
)

type ProgressRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_pathway,unique" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PathwayID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_pathway,unique" json:"pathway_id"`
	Pathway     *Pathway       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayID;references:ID" json:"pathway,omitempty"`
	State       string         `gorm:"column:state;not null;default:'not_started'" json:"state"`
	StartedAt   *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProgressRecord) TableName() string { return "progress_record" }

// ProgressRank orders the progress states so transitions can be checked
// for monotonicity. Unknown states rank below not_started.
func ProgressRank(state string) int {
	switch state {
	case ProgressNotStarted:
		return 0
	case ProgressInProgress:
		return 1
	case ProgressComplete:
		return 2
	default:
		return -1
	}
}

func ValidProgressState(state string) bool {
	return ProgressRank(state) >= 0
}
