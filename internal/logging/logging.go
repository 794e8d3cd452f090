// Package logging centralizes the sourcegraph/log logger used across
// rezoekt's packages, the way github.com/sourcegraph/zoekt/log centralizes
// Init/Get for the rest of that codebase.
package logging

import (
	"os"
	"sync"

	sglog "github.com/sourcegraph/log"
)

var (
	mu   sync.Once
	root sglog.Logger
)

// Init wires up the root logger. Safe to call multiple times; only the
// first call has effect. It takes no options: log output goes to
// sourcegraph/log's own default sink and is not routed through
// tokenizer.HostIO.Print.
func Init() {
	mu.Do(func() {
		sglog.Init(sglog.Resource{
			Name:    "rezoekt",
			Version: version(),
		})
		root = sglog.Scoped("rezoekt", "constrained-decoding core")
	})
}

func version() string {
	if v := os.Getenv("REZOEKT_VERSION"); v != "" {
		return v
	}
	return "dev"
}

// Scoped returns a child logger under the rezoekt root, mirroring the
// logger.Scoped(name, description) pattern used throughout zoekt (e.g.
// internal/mountinfo.MustRegisterNewMountPointInfoMetric).
func Scoped(name, description string) sglog.Logger {
	Init()
	return root.Scoped(name, description)
}
