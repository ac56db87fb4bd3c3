package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/observability"
)

// EngineConfig bounds the resources of one run.
type EngineConfig struct {
	// MaxParallel caps concurrent collaborator calls within a run.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel"`
	// RunTimeout bounds a whole run.
	RunTimeout time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	// NodeTimeout bounds a single handler call.
	NodeTimeout time.Duration `yaml:"node_timeout" mapstructure:"node_timeout"`
}

func (c *EngineConfig) ApplyDefaults() {
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 2 * time.Minute
	}
	if c.NodeTimeout <= 0 {
		c.NodeTimeout = 30 * time.Second
	}
}

func (c *EngineConfig) Validate() error {
	if c.NodeTimeout > c.RunTimeout {
		return fmt.Errorf("engine.node_timeout (%s) exceeds engine.run_timeout (%s)", c.NodeTimeout, c.RunTimeout)
	}
	return nil
}

// Engine executes validated workflows. An Engine holds no per-run state and
// may run any number of workflows concurrently.
type Engine struct {
	registry *Registry
	cfg      EngineConfig
	log      *logger.Logger
	metrics  *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(registry *Registry, cfg EngineConfig, opts ...Option) *Engine {
	cfg.ApplyDefaults()
	e := &Engine{registry: registry, cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine dispatches through.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Execute validates g and runs it against query. A graph with structural
// problems is refused with a WORKFLOW_INVALID error and no trace. Otherwise
// the error is nil and node failures are reported in the trace.
func (e *Engine) Execute(ctx context.Context, g *Graph, query string, collab Collaborators) (*ExecutionResult, error) {
	if err := Check(g); err != nil {
		return nil, err
	}
	order, err := TopologicalOrder(g)
	if err != nil {
		return nil, errors.WorkflowInvalid([]string{err.Error()})
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout)
	defer cancel()
	runCtx, span := observability.StartSpan(runCtx, observability.SpanWorkflowRun)
	defer span.End()

	r := newRun(e, g, order, query, collab, ctx)
	var eg errgroup.Group
	for i := range order {
		eg.Go(func() error {
			r.step(runCtx, i)
			return nil
		})
	}
	_ = eg.Wait()

	result := r.result()
	span.SetAttributes(attribute.String(observability.AttrStatus, string(result.Status)))
	if e.metrics != nil {
		e.metrics.RecordRun(runCtx, string(result.Status), time.Since(start))
	}
	e.log.WithContext(runCtx).Info("workflow run finished", logger.Fields(
		logger.FieldStatus, result.Status,
		"nodes", len(result.Trace),
		"failed", result.Count(StatusError),
		"skipped", result.Count(StatusSkipped),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return result, nil
}

// run is the state of one execution. Each slot of results is written only
// by the goroutine of that node and read by children after done is closed.
type run struct {
	engine  *Engine
	query   string
	collab  Collaborators
	caller  context.Context
	sem     *semaphore.Weighted
	nodes   []Node
	parents [][]int
	regs    []Registration
	regErr  []error
	results []StepResult
	done    []chan struct{}
}

func newRun(e *Engine, g *Graph, order []string, query string, collab Collaborators, caller context.Context) *run {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	r := &run{
		engine:  e,
		query:   query,
		collab:  collab,
		caller:  caller,
		sem:     semaphore.NewWeighted(int64(e.cfg.MaxParallel)),
		nodes:   make([]Node, len(order)),
		parents: make([][]int, len(order)),
		regs:    make([]Registration, len(order)),
		regErr:  make([]error, len(order)),
		results: make([]StepResult, len(order)),
		done:    make([]chan struct{}, len(order)),
	}
	for i, id := range order {
		n, _ := g.Node(id)
		r.nodes[i] = n
		r.regs[i], r.regErr[i] = e.registry.Resolve(n.Kind)
		r.done[i] = make(chan struct{})
	}
	for _, edge := range g.uniqueEdges() {
		to := pos[edge.To]
		r.parents[to] = append(r.parents[to], pos[edge.From])
	}
	return r
}

func (r *run) step(ctx context.Context, i int) {
	defer close(r.done[i])
	for _, p := range r.parents[i] {
		<-r.done[p]
	}

	node := r.nodes[i]
	for _, p := range r.parents[i] {
		if parent := r.results[p]; parent.Status != StatusOK {
			r.skip(i, upstreamReason(r.nodes[p], parent))
			return
		}
	}
	if ctx.Err() != nil {
		r.skip(i, r.stopReason())
		return
	}
	if r.regErr[i] != nil {
		r.fail(i, r.regErr[i])
		return
	}

	reg := r.regs[i]
	call := Call{Node: node, Query: r.query, Inputs: r.inputs(i)}
	switch reg.Capability {
	case CapabilityRetrieval:
		if r.collab.Retriever == nil {
			r.fail(i, errors.ServiceUnavailable("retriever"))
			return
		}
		call.Retriever = r.collab.Retriever
	case CapabilityGeneration:
		if r.collab.Generator == nil {
			r.fail(i, errors.ServiceUnavailable("generator"))
			return
		}
		call.Generator = r.collab.Generator
	}

	if reg.Capability != CapabilityNone {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.skip(i, r.stopReason())
			return
		}
		defer r.sem.Release(1)
		if ctx.Err() != nil {
			r.skip(i, r.stopReason())
			return
		}
	}

	out, err := r.dispatch(ctx, reg.Handler, call)
	if err != nil {
		r.fail(i, err)
		return
	}
	r.results[i] = StepResult{NodeID: node.ID, NodeKind: node.Kind, Status: StatusOK, Output: &out}
}

type outcome struct {
	out string
	err error
}

// dispatch runs the handler under the node timeout. When the deadline or a
// cancellation wins, the handler keeps running in the background and its
// result is dropped into the buffered channel and discarded.
func (r *run) dispatch(ctx context.Context, h Handler, call Call) (string, error) {
	nodeCtx, cancel := context.WithTimeout(ctx, r.engine.cfg.NodeTimeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: errors.Internal(fmt.Errorf("handler panic: %v", p))}
			}
		}()
		out, err := h.Handle(nodeCtx, call)
		ch <- outcome{out: out, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil && nodeCtx.Err() != nil {
			return "", r.interruption(call.Node)
		}
		return o.out, o.err
	case <-nodeCtx.Done():
		return "", r.interruption(call.Node)
	}
}

// interruption tells a caller cancellation apart from a deadline.
func (r *run) interruption(n Node) error {
	if stderrors.Is(r.caller.Err(), context.Canceled) {
		return errors.Canceled(n.ID)
	}
	return errors.Timeout(n.ID)
}

func (r *run) stopReason() string {
	if stderrors.Is(r.caller.Err(), context.Canceled) {
		return "run canceled"
	}
	return "run timed out"
}

func (r *run) inputs(i int) []Input {
	inputs := make([]Input, 0, len(r.parents[i]))
	for _, p := range r.parents[i] {
		inputs = append(inputs, Input{
			From:       r.nodes[p].ID,
			Capability: r.regs[p].Capability,
			Text:       *r.results[p].Output,
		})
	}
	return inputs
}

func (r *run) fail(i int, err error) {
	res := StepResult{NodeID: r.nodes[i].ID, NodeKind: r.nodes[i].Kind, Status: StatusError, ErrorMessage: err.Error()}
	if appErr, ok := errors.AsAppError(err); ok {
		res.ErrorMessage = appErr.Message
		res.ErrorCode = appErr.Code
	}
	r.results[i] = res
}

func (r *run) skip(i int, reason string) {
	r.results[i] = StepResult{NodeID: r.nodes[i].ID, NodeKind: r.nodes[i].Kind, Status: StatusSkipped, SkipReason: reason}
	r.engine.log.Debug("workflow node skipped", logger.Fields(logger.FieldNode, r.nodes[i].ID, "reason", reason))
}

// upstreamReason names the node whose failure caused the skip. A skipped
// parent passes its own reason on, so the whole subtree names the root.
func upstreamReason(parent Node, res StepResult) string {
	if res.Status == StatusSkipped {
		return res.SkipReason
	}
	return fmt.Sprintf("upstream node %q failed", parent.ID)
}

func (r *run) result() *ExecutionResult {
	res := &ExecutionResult{Trace: r.results, Status: RunFailed}
	for i, step := range r.results {
		if r.regs[i].Final && step.Status == StatusOK {
			res.FinalOutput = step.Output
			res.Status = RunSucceeded
			break
		}
	}
	return res
}
