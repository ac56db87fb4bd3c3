// Package redis keeps workflow run history in Redis.
//
// Each finished run is stored as JSON under <prefix>:run:<run_id> with a
// TTL. Runs of a saved workflow are also pushed onto a per-workflow list
// capped at a fixed length, so the newest runs can be listed without a
// scan:
//
//	runs := redis.NewRunStore(client, cfg)
//	runs.Save(ctx, rec)
//	recent, _ := runs.ListByWorkflow(ctx, workflowID, 20)
package redis
