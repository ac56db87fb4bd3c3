// Package version reports the build of the running ragflow binary.
//
// Values are set with -ldflags and fall back to the VCS stamp Go embeds:
//
//	go build -ldflags "-X github.com/kbukum/ragflow/version.Version=1.2.0" ./cmd/ragflow
package version
