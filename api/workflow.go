package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/redis"
	"github.com/kbukum/ragflow/server"
)

// RunRequest runs either an inline workflow or a saved one.
type RunRequest struct {
	Workflow   json.RawMessage `json:"workflow,omitempty"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	Query      string          `json:"query"`
}

// RunResponse is the result of one run.
type RunResponse struct {
	RunID       string           `json:"run_id"`
	Status      dag.RunStatus    `json:"status"`
	FinalOutput *string          `json:"final_output,omitempty"`
	Trace       []dag.StepResult `json:"trace"`
}

// ValidateRequest carries the graph the editor wants checked.
type ValidateRequest struct {
	Workflow json.RawMessage `json:"workflow"`
}

// ValidateResponse lists structural problems; Errors is never null.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newRunID() string { return uuid.NewString() }

// RunWorkflow handles POST /workflow/run.
func (h *Handler) RunWorkflow(c *gin.Context) {
	var req RunRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()

	g, err := h.resolveGraph(ctx, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	runID := h.NewID()
	log := h.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldRunID, runID))
	started := h.Now()
	res, err := h.Engine.Execute(ctx, g, req.Query, h.Collaborators)
	if err != nil {
		if problems := errors.Problems(err); problems != nil {
			log.Info("workflow refused", logger.Fields("problems", len(problems)))
		}
		server.RespondWithError(c, err)
		return
	}

	h.recordRun(ctx, log, &redis.RunRecord{
		RunID:       runID,
		WorkflowID:  req.WorkflowID,
		Query:       req.Query,
		Status:      res.Status,
		FinalOutput: res.FinalOutput,
		Trace:       res.Trace,
		StartedAt:   started.UTC(),
		DurationMS:  h.Now().Sub(started).Milliseconds(),
	})

	server.RespondOK(c, RunResponse{
		RunID:       runID,
		Status:      res.Status,
		FinalOutput: res.FinalOutput,
		Trace:       res.Trace,
	})
}

// resolveGraph checks the request shape and decodes the graph it names.
func (h *Handler) resolveGraph(ctx context.Context, req RunRequest) (*dag.Graph, error) {
	inline := present(req.Workflow)
	switch {
	case strings.TrimSpace(req.Query) == "":
		return nil, errors.MissingField("query")
	case inline && req.WorkflowID != "":
		return nil, errors.InvalidInput("workflow_id", "send either workflow or workflow_id, not both")
	case inline:
		return dag.DecodeGraph(req.Workflow, h.Engine.Registry())
	case req.WorkflowID != "":
		wf, err := h.Workflows.Get(ctx, req.WorkflowID)
		if err != nil {
			return nil, err
		}
		return dag.DecodeGraph(wf.Definition, h.Engine.Registry())
	default:
		return nil, errors.MissingField("workflow")
	}
}

// recordRun stores the run when history is enabled. A storage failure is
// logged and does not fail the request: the caller already has the result.
func (h *Handler) recordRun(ctx context.Context, log *logger.Logger, rec *redis.RunRecord) {
	if h.Runs == nil {
		return
	}
	if err := h.Runs.Save(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("run history not saved", logger.MergeWithError(nil, err))
	}
}

// ValidateWorkflow handles POST /workflow/validate. Structural problems are
// a 200 with valid=false; only a payload that is not a workflow is a 400.
func (h *Handler) ValidateWorkflow(c *gin.Context) {
	var req ValidateRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if !present(req.Workflow) {
		server.RespondWithError(c, errors.MissingField("workflow"))
		return
	}
	g, err := dag.DecodeGraph(req.Workflow, h.Engine.Registry())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	problems := dag.Validate(g)
	if problems == nil {
		problems = []string{}
	}
	server.RespondOK(c, ValidateResponse{Valid: len(problems) == 0, Errors: problems})
}

// GetRun handles GET /workflow/runs/:run_id.
func (h *Handler) GetRun(c *gin.Context) {
	if h.Runs == nil {
		server.RespondWithError(c, errors.ServiceUnavailable("run history"))
		return
	}
	rec, err := h.Runs.Get(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}
