// Package cli implements the ragflow command line: serve the HTTP API,
// run or validate a workflow file, and issue API tokens.
package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/ragflow/app"
	"github.com/kbukum/ragflow/bootstrap"
	"github.com/kbukum/ragflow/config"
	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/server/middleware"
	"github.com/kbukum/ragflow/version"
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

const usage = `ragflow - visual RAG workflow service

Usage:
  ragflow [global options] <command> [options]

Commands:
  serve      start the HTTP API
  run        execute a workflow file once and print the result as JSON
  validate   check a workflow file and list its structural errors
  token      sign an API bearer token
  version    print the build version

Global options:
`

// Run executes the command in args (without the program name). Results go
// to stdout, diagnostics to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ragflow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configFile := fs.String("config", "", "Path to config.yml. Searched in ./cmd/ragflow and . when empty.")
	envFile := fs.String("env", "", "Path to a .env file.")
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return usageError("no command given")
	}

	c := &command{
		stdout:     stdout,
		stderr:     stderr,
		configFile: *configFile,
		envFile:    *envFile,
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	switch name {
	case "serve":
		return c.serve(ctx, rest)
	case "run":
		return c.run(ctx, rest)
	case "validate":
		return c.validate(rest)
	case "token":
		return c.token(rest)
	case "version":
		fmt.Fprintln(stdout, version.Get().String())
		return nil
	default:
		fs.Usage()
		return usageError("unknown command %q", name)
	}
}

type command struct {
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	envFile    string
}

func (c *command) loadConfig() (*app.Config, error) {
	var opts []config.LoaderOption
	if c.configFile != "" {
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	if c.envFile != "" {
		opts = append(opts, config.WithEnvFile(c.envFile))
	}
	cfg := &app.Config{}
	if err := config.LoadConfig(app.ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *command) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("ragflow "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, usageError("%v", err)
	}
	return false, nil
}

func (c *command) serve(ctx context.Context, args []string) error {
	fs := c.flagSet("serve")
	port := fs.Int("port", 0, "Override server.port.")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	svc, err := app.New(cfg, bootstrap.WithSummaryOutput(c.stdout))
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}

func (c *command) run(ctx context.Context, args []string) error {
	fs := c.flagSet("run")
	file := fs.String("f", "", "Workflow file (.json, .yaml, .yml or .hcl).")
	query := fs.String("q", "", "The question to answer.")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if *file == "" || *query == "" {
		fs.Usage()
		return usageError("run needs -f and -q")
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the result.
	cfg.Logging.Output = "stderr"
	svc, err := app.NewTask(cfg, bootstrap.WithoutSummary())
	if err != nil {
		return err
	}
	g, err := dag.LoadWorkflowFile(*file, svc.Registry())
	if err != nil {
		return c.workflowError(err)
	}

	var res *dag.ExecutionResult
	err = svc.RunTask(ctx, func(ctx context.Context) error {
		var err error
		res, err = svc.Execute(ctx, g, *query)
		return err
	})
	if err != nil {
		return c.workflowError(err)
	}

	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Succeeded() {
		return &ExitError{Code: 1, Message: "workflow produced no output"}
	}
	return nil
}

func (c *command) validate(args []string) error {
	fs := c.flagSet("validate")
	file := fs.String("f", "", "Workflow file (.json, .yaml, .yml or .hcl).")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return usageError("validate needs -f")
	}

	g, err := dag.LoadWorkflowFile(*file, dag.DefaultRegistry())
	if err != nil {
		return c.workflowError(err)
	}
	if problems := dag.Validate(g); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(c.stdout, p)
		}
		return &ExitError{Code: 1, Message: fmt.Sprintf("%s: %d problem(s)", *file, len(problems))}
	}
	fmt.Fprintf(c.stdout, "%s: ok (%d nodes, %d edges)\n", *file, len(g.Nodes), len(g.Edges))
	return nil
}

func (c *command) token(args []string) error {
	fs := c.flagSet("token")
	subject := fs.String("sub", "", "Token subject.")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime.")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if *subject == "" {
		fs.Usage()
		return usageError("token needs -sub")
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	auth := cfg.Server.Auth
	if err := (&middleware.AuthConfig{Enabled: true, Secret: auth.Secret, Issuer: auth.Issuer}).Validate(); err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	tok, err := middleware.SignToken(auth, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, tok)
	return nil
}

// workflowError turns a workflow the engine refused into exit code 1 with
// one problem per line.
func (c *command) workflowError(err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok || (appErr.Code != errors.ErrCodeWorkflowInvalid && appErr.Code != errors.ErrCodeMalformedWorkflow) {
		return err
	}
	for _, p := range errors.Problems(appErr) {
		fmt.Fprintln(c.stderr, p)
	}
	return &ExitError{Code: 1, Message: appErr.Message}
}
