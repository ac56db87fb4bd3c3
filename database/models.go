package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel holds the columns every table shares.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns a UUID when none is set.
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// WorkflowRecord is the workflows table row.
type WorkflowRecord struct {
	BaseModel
	Name        string `gorm:"size:200;not null;uniqueIndex"`
	Description string `gorm:"size:2000"`
	// Definition is the JSON wire graph.
	Definition string `gorm:"type:text;not null"`
}

func (WorkflowRecord) TableName() string { return "workflows" }

// Models lists every model AutoMigrate manages.
func Models() []interface{} {
	return []interface{}{&WorkflowRecord{}}
}
