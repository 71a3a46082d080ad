package drivers

import "sync"

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Builtin registers all built-in drivers and aliases to r.
//
// Aliases: "pandas" for "tabular", "yml" for "yaml" and "txt" for "text".
func Builtin(r *Registry) *Registry {
	r.Alias(Logical, "pandas", "tabular")
	r.Alias(File, "yml", "yaml")
	r.Alias(File, "txt", "text")

	r.Register(NewSpec("tabular", "csv"), CSV)
	r.Register(NewSpec("tabular", "parquet"), Parquet)
	r.Register(NewSpec("dict", "json"), JSON)
	r.Register(NewSpec("dict", "yaml"), YAML)
	r.Register(NewSpec("list", "text"), Text)
	r.Register(NewSpec("model", "msgpack"), MsgpackModel)
	return r
}

// Default returns the process-wide Registry with built-in drivers.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = Builtin(NewRegistry())
	})
	return defaultRegistry
}
