package server

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/ragflow/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server under the component registry.
type Component struct {
	server  *Server
	running atomic.Bool
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.running.Store(true)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if !c.running.Swap(false) {
		return nil
	}
	return c.server.Stop(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	if !c.running.Load() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	cfg := c.server.config
	details := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if cfg.Auth.Enabled {
		details += " auth=jwt"
	}
	return component.Description{Name: "HTTP Server", Type: "server", Details: details, Port: cfg.Port}
}

// Routes lists registered routes, API routes first.
func (c *Component) Routes() []component.Route {
	return sortedRoutes(c.server.engine.Routes())
}
