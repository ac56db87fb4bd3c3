package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
)

// RunRecord is a finished workflow run.
type RunRecord struct {
	RunID string `json:"run_id"`
	// WorkflowID is empty for ad-hoc runs of an unsaved graph.
	WorkflowID  string           `json:"workflow_id,omitempty"`
	Query       string           `json:"query"`
	Status      dag.RunStatus    `json:"status"`
	FinalOutput *string          `json:"final_output,omitempty"`
	Trace       []dag.StepResult `json:"trace"`
	StartedAt   time.Time        `json:"started_at"`
	DurationMS  int64            `json:"duration_ms"`
}

// RunStore keeps run records for Config.RunTTL.
type RunStore struct {
	rdb     goredis.UniversalClient
	records *TypedStore[RunRecord]
	prefix  string
	ttl     time.Duration
	maxRuns int
}

func NewRunStore(client *Client, cfg Config) *RunStore {
	cfg.ApplyDefaults()
	return &RunStore{
		rdb:     client.Unwrap(),
		records: NewTypedStore[RunRecord](client.Unwrap(), cfg.KeyPrefix+":run"),
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.RunTTL,
		maxRuns: cfg.MaxRunsPerWorkflow,
	}
}

func (s *RunStore) indexKey(workflowID string) string {
	return s.prefix + ":workflow:" + workflowID + ":runs"
}

// Save writes rec and, for saved workflows, pushes it onto the workflow's
// recent-run list in the same transaction.
func (s *RunStore) Save(ctx context.Context, rec *RunRecord) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if err := NewTypedStore[RunRecord](pipe, s.prefix+":run").Save(ctx, rec.RunID, rec, s.ttl); err != nil {
			return err
		}
		if rec.WorkflowID == "" {
			return nil
		}
		key := s.indexKey(rec.WorkflowID)
		pipe.LPush(ctx, key, rec.RunID)
		pipe.LTrim(ctx, key, 0, int64(s.maxRuns-1))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return errors.ServiceUnavailable("run history").WithCause(err)
	}
	return nil
}

// Get returns a NOT_FOUND AppError for unknown or expired runs.
func (s *RunStore) Get(ctx context.Context, runID string) (*RunRecord, error) {
	rec, err := s.records.Load(ctx, runID)
	if err != nil {
		return nil, errors.ServiceUnavailable("run history").WithCause(err)
	}
	if rec == nil {
		return nil, errors.NotFound("run", runID)
	}
	return rec, nil
}

// ListByWorkflow returns up to limit runs of workflowID, newest first.
// Runs whose records expired before the index are left out.
func (s *RunStore) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > s.maxRuns {
		limit = s.maxRuns
	}
	ids, err := s.rdb.LRange(ctx, s.indexKey(workflowID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.ServiceUnavailable("run history").WithCause(err)
	}
	runs, err := s.records.LoadMany(ctx, ids)
	if err != nil {
		return nil, errors.ServiceUnavailable("run history").WithCause(err)
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}
