package api

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/database"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/server"
	"github.com/kbukum/ragflow/validation"
)

// CreateWorkflowRequest saves a workflow under a unique name.
type CreateWorkflowRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Definition  json.RawMessage `json:"definition" validate:"required"`
}

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// CreateWorkflow handles POST /workflows. The definition must decode as a
// workflow but need not pass structural validation, so drafts can be saved.
func (h *Handler) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if _, err := dag.DecodeGraph(req.Definition, h.Engine.Registry()); err != nil {
		server.RespondWithError(c, err)
		return
	}

	wf, err := h.Workflows.Create(c.Request.Context(), req.Name, req.Description, req.Definition)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Info("workflow saved", map[string]interface{}{
		"workflow_id": wf.ID, "name": wf.Name,
	})
	server.RespondCreated(c, wf)
}

func (h *Handler) ListWorkflows(c *gin.Context) {
	list, err := h.Workflows.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if list == nil {
		list = []database.Workflow{}
	}
	server.RespondOK(c, gin.H{"workflows": list})
}

func (h *Handler) GetWorkflow(c *gin.Context) {
	wf, err := h.Workflows.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, wf)
}

func (h *Handler) DeleteWorkflow(c *gin.Context) {
	if err := h.Workflows.Delete(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// ListWorkflowRuns handles GET /workflows/:id/runs?limit=N, newest first.
func (h *Handler) ListWorkflowRuns(c *gin.Context) {
	if h.Runs == nil {
		server.RespondWithError(c, errors.ServiceUnavailable("run history"))
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			server.RespondWithError(c, errors.InvalidInput("limit", "limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.Workflows.Get(ctx, id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	runs, err := h.Runs.ListByWorkflow(ctx, id, limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"runs": runs})
}
