package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Effect panicked during flush",
		Detail:   "An effect body panicked while re-running. The panic was recovered so the rest of the flush could proceed, but the effect's output may be stale.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Scope disposed",
		Detail:   "The scope has been disposed. This usually means a ref or effect is being used from a component that was unmounted or reloaded.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "OnCleanup called with no active effect or scope",
		Detail:   "Cleanups attach to the currently running effect, or to the current scope. Outside both, the registration is dropped.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Write during render",
		Detail:   "Ref values should not be modified while a render binding is tracking. Move the write into an effect or an event handler, or wrap the read in Untracked.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Slot type mismatch on reload",
		Detail:   "A positional slot held a ref of a different type after a live reload, so its value could not carry over and the initializer was used instead. Slot binding is positional: reordering NewRef calls rebinds later slots.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E005",
	},

	// ============================================
	// Scheduler Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryScheduler,
		Message:  "Effect feedback loop detected",
		Detail:   "A single effect re-ran more than the per-flush bound, which means it writes a ref it also reads (directly or through a cascade). The flush was aborted to keep the process responsive.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryScheduler,
		Message:  "Run budget exhausted",
		Detail:   "The scheduler's run budget rejected further effect runs in this window. Deferred effects stay queued and run in a later flush.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E021",
	},

	// ============================================
	// Injection Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryInject,
		Message:  "No provider found for injection key",
		Detail:   "Inject walks the scope chain (and the host ancestry, when a parent resolver is set) looking for a Provide call with this key, and found none.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryInject,
		Message:  "Inject called with no active scope",
		Detail:   "Provide and Inject only work inside a scope's Run (typically a component setup). At the top level there is no scope chain to search.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E041",
	},

	// ============================================
	// Config Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No reflow.json was found in the current directory or any parent. Run 'reflow init' to create one.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "reflow.json could not be parsed as JSON.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config field has a value outside its valid range.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E062",
	},

	// ============================================
	// CLI Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryCLI,
		Message:  "Inspector connection failed",
		Detail:   "Unable to connect to the inspector WebSocket endpoint. Check that the application is running with the inspector enabled.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryCLI,
		Message:  "Address already in use",
		Detail:   "The inspector port is already bound by another process. Pick a different port with --port or in reflow.json.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategoryCLI,
		Message:  "Project already initialized",
		Detail:   "A reflow.json already exists in this directory.",
		DocURL:   "https://reflow-ui.dev/docs/errors/E082",
	},
}

// Register adds a custom error template to the registry. Intended for
// host integrations that want their own codes rendered the same way.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
