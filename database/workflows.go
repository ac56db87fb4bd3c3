package database

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/ragflow/errors"
)

// Workflow is a saved, named workflow definition.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Definition  json.RawMessage `json:"definition"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r *WorkflowRecord) toWorkflow() Workflow {
	return Workflow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Definition:  json.RawMessage(r.Definition),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// WorkflowRepository stores workflows in the workflows table.
type WorkflowRepository struct {
	db *DB
}

func NewWorkflowRepository(db *DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create saves a new workflow. Names are unique; a taken name is an
// ALREADY_EXISTS error.
func (r *WorkflowRepository) Create(ctx context.Context, name, description string, definition json.RawMessage) (*Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.MissingField("name")
	}
	if !json.Valid(definition) {
		return nil, errors.MalformedWorkflow("definition is not valid JSON")
	}

	rec := WorkflowRecord{Name: name, Description: description, Definition: string(definition)}
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&WorkflowRecord{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.AlreadyExists("workflow", name)
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, FromDatabase(err, "workflow", name)
	}

	wf := rec.toWorkflow()
	return &wf, nil
}

// List returns every workflow, newest first.
func (r *WorkflowRepository) List(ctx context.Context) ([]Workflow, error) {
	var recs []WorkflowRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, name").Find(&recs).Error; err != nil {
		return nil, FromDatabase(err, "workflow", "")
	}
	out := make([]Workflow, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toWorkflow())
	}
	return out, nil
}

func (r *WorkflowRepository) Get(ctx context.Context, id string) (*Workflow, error) {
	var rec WorkflowRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, FromDatabase(err, "workflow", id)
	}
	wf := rec.toWorkflow()
	return &wf, nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&WorkflowRecord{})
	if res.Error != nil {
		return FromDatabase(res.Error, "workflow", id)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("workflow", id)
	}
	return nil
}
