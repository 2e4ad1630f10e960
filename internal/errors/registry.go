package errors

import (
	"sort"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// ============================================
		// Routing and Runtime Errors (E100-E119)
		// ============================================

		"E100": {
			Category: CategoryRouting,
			Message:  "No route matches path",
			Detail:   "No registered page pattern accepts the path. Patterns are tried in registration order and a trailing slash must match exactly.",
		},
		"E101": {
			Category: CategoryRuntime,
			Message:  "Producer failed",
			Detail:   "A producer returned an error or panicked while producing or applying a tree. The session was terminated and the last applied content stays on screen.",
		},
		"E102": {
			Category: CategoryRuntime,
			Message:  "Mount target missing",
			Detail:   "The element the application renders into does not exist in the document.",
		},
		"E103": {
			Category: CategoryRuntime,
			Message:  "Element definition rejected",
			Detail:   "The element could not be defined. Names must be unique and every definition needs a producer factory.",
		},

		// ============================================
		// Configuration Errors (E120-E139)
		// ============================================

		"E120": {
			Category: CategoryConfig,
			Message:  "Configuration file unreadable",
			Detail:   "bloom.json or bloom.yaml exists but could not be read.",
		},
		"E121": {
			Category: CategoryConfig,
			Message:  "Configuration file invalid",
			Detail:   "The configuration file could not be parsed.",
		},
		"E122": {
			Category: CategoryConfig,
			Message:  "Invalid configuration value",
			Detail:   "A configuration value is out of range or has the wrong format.",
		},

		// ============================================
		// CLI and Export Errors (E140-E159)
		// ============================================

		"E140": {
			Category: CategoryCLI,
			Message:  "Invalid command usage",
		},
		"E150": {
			Category: CategoryExport,
			Message:  "Export failed",
			Detail:   "A route could not be rendered or written to the export store.",
		},
	}
)

// GetTemplate returns the template registered for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
