// Package bootstrap runs a ragflow process: it validates the typed config,
// initializes the logger, starts registered components in order, runs the
// configure and lifecycle hooks, prints a startup summary and shuts
// everything down in reverse order on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(db)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error { ... })
//	err = app.Run(ctx)
//
// RunTask runs a finite task with the same lifecycle, for CLI commands.
package bootstrap
