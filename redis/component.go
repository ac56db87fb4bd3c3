package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/logger"
)

// Component connects on Start and exposes the run store.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
	runs   *RunStore
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
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.client = client
	c.runs = NewRunStore(client, c.cfg)
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil {
		h.Status, h.Message = component.StatusUnhealthy, "redis not initialized"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Run history",
		Type:    "cache",
		Details: fmt.Sprintf("%s db=%d ttl=%s keep=%d", c.cfg.Addr, c.cfg.DB, c.cfg.RunTTL, c.cfg.MaxRunsPerWorkflow),
	}
}

// Runs returns the run store, or nil before Start.
func (c *Component) Runs() *RunStore { return c.runs }
