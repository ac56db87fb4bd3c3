// Package dag validates and executes ragflow workflows.
//
// A workflow is a directed acyclic graph of four node kinds: query,
// retrieval, generation and output. Validate reports every structural
// problem of a graph without side effects. Engine.Execute refuses graphs
// with problems, orders the rest topologically (ties broken by node id),
// and dispatches each node through a Registry to the handler registered for
// its kind. Handlers reach the outside world only through the Retriever and
// Generator collaborators passed to Execute.
//
// A failing node never aborts the run: its descendants are recorded as
// skipped and unrelated branches keep running. The trace is always reported
// in topological order, whatever the actual completion order of concurrent
// branches was.
package dag
