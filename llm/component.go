package llm

import (
	"context"
	"fmt"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/resilience"
	"github.com/kbukum/ragflow/util"
)

// Component owns the Adapter used for generation and embeddings. An
// unreachable provider degrades the service instead of failing startup:
// runs without generation nodes and document listing keep working.
type Component struct {
	cfg     Config
	adapter *Adapter
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg}
}

func (c *Component) Name() string { return "llm" }

func (c *Component) Start(_ context.Context) error {
	a, err := New(c.cfg)
	if err != nil {
		return fmt.Errorf("llm start: %w", err)
	}
	c.adapter = a
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.adapter == nil:
		h.Status, h.Message = component.StatusUnhealthy, "llm not initialized"
	case c.adapter.client.BreakerState() == resilience.StateOpen:
		h.Status, h.Message = component.StatusDegraded, "circuit open"
	default:
		if err := c.adapter.Ping(ctx); err != nil {
			h.Status, h.Message = component.StatusDegraded, err.Error()
		}
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s %s model=%s embed=%s", c.cfg.Dialect, c.cfg.BaseURL, c.cfg.Model, c.cfg.EmbeddingModel)
	if c.cfg.APIKey != "" {
		details += " key=" + util.MaskSecret(c.cfg.APIKey, 4)
	}
	return component.Description{Name: "LLM", Type: "llm", Details: details}
}

// Adapter returns the adapter, or nil before Start.
func (c *Component) Adapter() *Adapter { return c.adapter }
