// Package testutil provides fakes for the collaborators of dag.Engine and a
// builder for test graphs.
package testutil
