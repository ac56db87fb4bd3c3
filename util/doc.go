// Package util holds small helpers shared across ragflow packages.
package util
