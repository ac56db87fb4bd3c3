// Package database stores saved workflows with GORM on SQLite.
//
// Open connects with retry and pool settings from Config, and routes GORM's
// query log through the service logger. WorkflowRepository saves, lists,
// fetches and deletes named workflow definitions; definitions are kept as
// the JSON wire form so they decode with the same registry as a request
// body.
//
//	comp := database.NewComponent(cfg, log)
//	registry.Register(comp)
//	...
//	wf, err := comp.Workflows().Create(ctx, "support-bot", "", definition)
package database
