package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/ragflow/component"
	"github.com/kbukum/ragflow/config"
	"github.com/kbukum/ragflow/logger"
)

type testConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
}

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.HealthStatus
	started  bool
	stopped  bool
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	f.record("start " + f.name)
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.record("stop " + f.name)
	f.stopped = true
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) component.Health {
	status := f.health
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: f.name, Status: status}
}

func (f *fakeComponent) Describe() component.Description {
	return component.Description{Type: "database", Details: "sqlite"}
}

func (f *fakeComponent) record(e string) {
	if f.events != nil {
		*f.events = append(*f.events, e)
	}
}

func newTestApp(t *testing.T, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "ragflow", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryOutput(&out)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "ragflow" || app.Version != "1.0.0" {
		t.Fatalf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Fatalf("expected defaults applied, got environment %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Fatalf("expected 15s graceful timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	if _, err := NewApp(&testConfig{}, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected a missing name to fail validation")
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	var events []string
	app, out := newTestApp(t)
	for _, name := range []string{"database", "redis"} {
		if err := app.RegisterComponent(&fakeComponent{name: name, events: &events}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	app.OnStart(func(context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { events = append(events, "configure"); return nil })
	app.OnReady(func(context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "start database,start redis,onStart,configure,onReady,task,onStop,stop redis,stop database"
	if got := strings.Join(events, ","); got != want {
		t.Fatalf("expected %s\ngot      %s", want, got)
	}
	if !strings.Contains(out.String(), "[database] database: sqlite") {
		t.Fatalf("expected infrastructure line in summary, got:\n%s", out.String())
	}
}

func TestRunTask_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("task error wins", func(t *testing.T) {
		app, _ := newTestApp(t)
		_ = app.RegisterComponent(&fakeComponent{name: "db", stopErr: errors.New("close failed")})
		if err := app.RunTask(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected task error, got %v", err)
		}
	})

	t.Run("stop error surfaces", func(t *testing.T) {
		app, _ := newTestApp(t)
		_ = app.RegisterComponent(&fakeComponent{name: "db", stopErr: boom})
		if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, boom) {
			t.Fatalf("expected stop error, got %v", err)
		}
	})

	t.Run("start failure stops started components", func(t *testing.T) {
		app, _ := newTestApp(t)
		first := &fakeComponent{name: "db"}
		_ = app.RegisterComponent(first)
		_ = app.RegisterComponent(&fakeComponent{name: "redis", startErr: boom})
		ran := false
		err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
		if !errors.Is(err, boom) {
			t.Fatalf("expected start error, got %v", err)
		}
		if ran {
			t.Fatal("task must not run after a failed start")
		}
		if !first.stopped {
			t.Fatal("expected the started component to be stopped")
		}
	})

	t.Run("configure failure", func(t *testing.T) {
		app, _ := newTestApp(t)
		app.OnConfigure(func(context.Context, *App[*testConfig]) error { return boom })
		if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, boom) {
			t.Fatalf("expected configure error, got %v", err)
		}
	})
}

func TestRunTask_ContextCanceled(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp(t, WithoutSummary())
	c := &fakeComponent{name: "server"}
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !c.started || !c.stopped {
		t.Fatalf("expected component started and stopped, got %+v", c)
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		wantErr bool
	}{
		{"healthy", component.StatusHealthy, false},
		{"degraded", component.StatusDegraded, true},
		{"unhealthy", component.StatusUnhealthy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			_ = app.RegisterComponent(&fakeComponent{name: "llm", health: tt.status})
			if err := app.ReadyCheck(context.Background()); (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSummary_Display(t *testing.T) {
	reg := component.NewRegistry(logger.Nop())
	_ = reg.Register(&fakeComponent{name: "database"})
	_ = reg.Register(&fakeComponent{name: "llm", health: component.StatusDegraded})

	s := NewSummary("ragflow", "1.2.0")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.Collect(reg)
	s.Collect(reg)

	var out bytes.Buffer
	s.Display(context.Background(), &out, reg)
	text := out.String()

	for _, want := range []string{"ragflow 1.2.0 started in 1.50s", "Health: degraded", "⚠️ llm: degraded"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in summary:\n%s", want, text)
		}
	}
	if n := strings.Count(text, "[database]"); n != 2 {
		t.Fatalf("expected one line per describable component after repeated Collect, got %d", n)
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Fatal("unexpected tree prefixes")
	}
}
