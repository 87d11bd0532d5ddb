package core

// Logger receives kernel lifecycle events. The kernel logs sparsely:
// plugin load/unload and model save/load boundaries, never per-object
// operations.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// noopLogger is the default when no logger is configured.
type noopLogger struct{}

func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}
