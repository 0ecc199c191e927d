package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContentTypeArticle  = "article"
	ContentTypeVideo    = "video"
	ContentTypeExercise = "exercise"
	ContentTypeQuiz     = "quiz"
	ContentTypeLink     = "link"
)

// ContentItem belongs to exactly one pathway. Position is zero-based
// and kept contiguous per pathway by the content service; all
// re-indexing happens inside the transaction that inserts or removes a
// row.
type ContentItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PathwayID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"pathway_id"`
	Pathway     *Pathway       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayID;references:ID" json:"pathway,omitempty"`
	Position    int            `gorm:"column:position;not null" json:"position"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Body        string         `gorm:"column:body" json:"body"`
	ContentType string         `gorm:"column:content_type;not null;default:'article'" json:"content_type"`
	URL         string         `gorm:"column:url" json:"url,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_item" }
