package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/database"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/ingest"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/redis"
	"github.com/kbukum/ragflow/retrieval"
)

// WorkflowStore persists named workflow definitions.
type WorkflowStore interface {
	Create(ctx context.Context, name, description string, definition json.RawMessage) (*database.Workflow, error)
	List(ctx context.Context) ([]database.Workflow, error)
	Get(ctx context.Context, id string) (*database.Workflow, error)
	Delete(ctx context.Context, id string) error
}

// RunStore keeps the results of finished runs.
type RunStore interface {
	Save(ctx context.Context, rec *redis.RunRecord) error
	Get(ctx context.Context, runID string) (*redis.RunRecord, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]redis.RunRecord, error)
}

// DocumentService ingests and manages uploaded documents.
type DocumentService interface {
	Upload(ctx context.Context, up ingest.Upload) (*retrieval.Document, error)
	List(ctx context.Context) ([]retrieval.Document, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators of a Handler. Runs may be nil.
type Deps struct {
	Engine        *dag.Engine
	Collaborators dag.Collaborators
	Workflows     WorkflowStore
	Runs          RunStore
	Documents     DocumentService
	Logger        *logger.Logger
	// MaxUploadBytes is reported when a multipart body is cut off by the
	// server's body limit. Defaults to ingest's 10MB.
	MaxUploadBytes int64
	// Now and NewID default to time.Now and a random UUID.
	Now   func() time.Time
	NewID func() string
}

// Handler serves the API routes.
type Handler struct {
	Deps
	log *logger.Logger
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger.GetGlobalLogger()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = ingest.DefaultMaxUploadBytes
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = newRunID
	}
	return &Handler{Deps: deps, log: deps.Logger.WithComponent("api")}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/workflow/run", h.RunWorkflow)
	r.POST("/workflow/validate", h.ValidateWorkflow)
	r.GET("/workflow/runs/:run_id", h.GetRun)

	r.POST("/workflows", h.CreateWorkflow)
	r.GET("/workflows", h.ListWorkflows)
	r.GET("/workflows/:id", h.GetWorkflow)
	r.DELETE("/workflows/:id", h.DeleteWorkflow)
	r.GET("/workflows/:id/runs", h.ListWorkflowRuns)

	r.POST("/documents/upload", h.UploadDocument)
	r.GET("/documents", h.ListDocuments)
	r.DELETE("/documents/:id", h.DeleteDocument)
}

// bindJSON decodes the body into dst, reporting a decoding failure as
// INVALID_INPUT.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.InvalidInput("body", "request body is not valid JSON").WithCause(err)
	}
	return nil
}

// present reports whether a raw JSON field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
