package app

import (
	"context"
	"fmt"

	"github.com/kbukum/ragflow/api"
	"github.com/kbukum/ragflow/bootstrap"
	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/database"
	"github.com/kbukum/ragflow/ingest"
	"github.com/kbukum/ragflow/llm"
	"github.com/kbukum/ragflow/observability"
	"github.com/kbukum/ragflow/redis"
	"github.com/kbukum/ragflow/retrieval"
	"github.com/kbukum/ragflow/server"
	"github.com/kbukum/ragflow/version"

	// Dialects register themselves with llm.
	_ "github.com/kbukum/ragflow/llm/ollama"
	_ "github.com/kbukum/ragflow/llm/openai"
)

// ServiceName is the default service name and the config file directory
// searched by config.LoadConfig.
const ServiceName = "ragflow"

// Service is an assembled ragflow process.
type Service struct {
	*bootstrap.App[*Config]

	telemetry *observability.Component
	llm       *llm.Component
	vectors   *retrieval.Component
	database  *database.Component
	redis     *redis.Component
	server    *server.Server

	engine    *dag.Engine
	collab    dag.Collaborators
	documents *ingest.Service
}

// New assembles the HTTP service: telemetry, LLM, vector store, workflow
// database, optional run history and the HTTP server, which starts last
// once the API is wired to the live infrastructure.
func New(cfg *Config, opts ...bootstrap.Option) (*Service, error) {
	s, err := newService(cfg, opts)
	if err != nil {
		return nil, err
	}
	s.database = database.NewComponent(cfg.Database, s.Logger)
	if err := s.RegisterComponent(s.database); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		s.redis = redis.NewComponent(cfg.Redis, s.Logger)
		if err := s.RegisterComponent(s.redis); err != nil {
			return nil, err
		}
	}
	s.server = server.New(cfg.Server, s.Logger)
	s.OnConfigure(s.serve)
	return s, nil
}

// NewTask assembles only what executing a workflow needs: telemetry, the
// LLM and the vector store. The CLI uses it for one-shot runs.
func NewTask(cfg *Config, opts ...bootstrap.Option) (*Service, error) {
	return newService(cfg, opts)
}

func newService(cfg *Config, opts []bootstrap.Option) (*Service, error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s := &Service{App: a}
	if s.Version == "" {
		s.Version = version.Get().Version
	}

	s.telemetry = observability.NewComponent(cfg.Observability, observability.Service{
		Name:        cfg.Name,
		Version:     s.Version,
		Environment: cfg.Environment,
	})
	s.llm = llm.NewComponent(cfg.LLM)
	s.vectors = retrieval.NewComponent(cfg.VectorStore, s.Logger)
	if err := s.RegisterComponent(s.telemetry); err != nil {
		return nil, err
	}
	if err := s.RegisterComponent(s.llm); err != nil {
		return nil, err
	}
	if err := s.RegisterComponent(s.vectors); err != nil {
		return nil, err
	}
	s.OnConfigure(s.wire)
	return s, nil
}

// wire builds the engine and its collaborators once the LLM and the vector
// store are up.
func (s *Service) wire(_ context.Context, _ *bootstrap.App[*Config]) error {
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return err
	}
	log := s.Logger.WithComponent("engine")

	reg := dag.DefaultRegistry()
	reg.Decorate(dag.WithTracing())
	reg.Decorate(dag.WithNodeMetrics(metrics))
	reg.Decorate(dag.WithLogging(log))
	s.engine = dag.NewEngine(reg, s.Cfg.Engine, dag.WithLogger(log), dag.WithMetrics(metrics))

	adapter := s.llm.Adapter()
	store := s.vectors.Store()
	s.collab = dag.Collaborators{
		Retriever: retrieval.NewRetriever(store, adapter),
		Generator: adapter,
	}
	s.documents = ingest.NewService(store, adapter, s.Cfg.Ingest, ingest.WithLogger(s.Logger))
	return nil
}

// serve mounts the API and the system endpoints, then starts the server.
func (s *Service) serve(ctx context.Context, a *bootstrap.App[*Config]) error {
	deps := api.Deps{
		Engine:         s.engine,
		Collaborators:  s.collab,
		Workflows:      s.database.Workflows(),
		Documents:      s.documents,
		Logger:         s.Logger,
		MaxUploadBytes: s.Cfg.Ingest.MaxUploadBytes,
	}
	if s.redis != nil {
		deps.Runs = s.redis.Runs()
	}
	api.NewHandler(deps).Register(s.server.API())
	s.server.RegisterDefaultEndpoints(s.Name, a.Components.HealthAll)

	if err := a.RegisterComponent(server.NewComponent(s.server)); err != nil {
		return err
	}
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// Execute runs g once against the live collaborators. It is valid after
// the app has started, for example inside RunTask.
func (s *Service) Execute(ctx context.Context, g *dag.Graph, query string) (*dag.ExecutionResult, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("service not started")
	}
	return s.engine.Execute(ctx, g, query, s.collab)
}

// Registry returns the node registry of the engine, or the undecorated
// default registry before start. Decoding a workflow needs no live
// infrastructure.
func (s *Service) Registry() *dag.Registry {
	if s.engine != nil {
		return s.engine.Registry()
	}
	return dag.DefaultRegistry()
}

// Addr returns the bound HTTP address, or "" for task services and before
// start.
func (s *Service) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr()
}
