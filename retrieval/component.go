package retrieval

import (
	"context"
	"fmt"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/logger"
)

// Component opens the configured vector store on Start.
type Component struct {
	cfg   Config
	log   *logger.Logger
	store Store
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log}
}

func (c *Component) Name() string { return "vectorstore" }

func (c *Component) Start(ctx context.Context) error {
	switch c.cfg.Backend {
	case BackendPGVector:
		s, err := NewPGStore(ctx, c.cfg, c.log)
		if err != nil {
			return fmt.Errorf("vector store start: %w", err)
		}
		c.store = s
	default:
		c.store = NewMemoryStore()
	}
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	if c.store != nil {
		c.store.Close()
	}
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.store == nil {
		h.Status, h.Message = component.StatusUnhealthy, "vector store not initialized"
		return h
	}
	if err := c.store.Ping(ctx); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := c.cfg.Backend
	if c.cfg.Backend == BackendPGVector {
		details = fmt.Sprintf("%s dim=%d pool=%d", c.cfg.Backend, c.cfg.Dimensions, c.cfg.MaxConns)
	}
	return component.Description{Name: "Vector store", Type: "vectorstore", Details: details}
}

// Store returns the opened store, or nil before Start.
func (c *Component) Store() Store { return c.store }
