package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://vango.dev/docs/reconcile/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Contract Violations (R001-R019)
	// ============================================

	"R001": {
		Category:   CategoryContract,
		Message:    "Malformed node",
		Detail:     "A node reached the reconciler in a shape the builders never produce: an element without a tag, an unresolved component, or a children list that contradicts its declared arity.",
		Suggestion: "Build nodes with vdom.CreateElement, vdom.El or the element helpers instead of literal structs.",
		DocURL:     docBase + "R001",
	},
	"R002": {
		Category:   CategoryContract,
		Message:    "Tree exceeds maximum depth",
		Detail:     "The reconciler recurses once per tree level and refuses trees deeper than its configured limit.",
		Suggestion: "Raise engine.maxDepth in the configuration or flatten the tree.",
		DocURL:     docBase + "R002",
	},
	"R003": {
		Category:   CategoryContract,
		Message:    "Duplicate sibling key",
		Detail:     "Keys identify siblings across renders and must be unique within one children list.",
		Suggestion: "Derive keys from a stable unique id of the rendered item.",
		DocURL:     docBase + "R003",
	},
	"R004": {
		Category:   CategoryContract,
		Message:    "Re-entrant render",
		Detail:     "Render was called on a container while another pass on the same container was still running.",
		Suggestion: "Serialize renders per container; use one container per goroutine.",
		DocURL:     docBase + "R004",
	},
	"R005": {
		Category: CategoryContract,
		Message:  "Component resolution failed",
		Detail:   "A component node could not be expanded into elements and text.",
		DocURL:   docBase + "R005",
	},

	// ============================================
	// Host Binding Errors (R020-R029)
	// ============================================

	"R020": {
		Category: CategoryHost,
		Message:  "Host binding call failed",
		Detail:   "The host rejected a mutation. The host tree may be partially updated; the container keeps its previous tree.",
		DocURL:   docBase + "R020",
	},

	// ============================================
	// Protocol Errors (P001-P019)
	// ============================================

	"P001": {
		Category: CategoryProtocol,
		Message:  "Malformed op batch",
		Detail:   "The encoded batch ended early or contained an invalid length.",
		DocURL:   docBase + "P001",
	},
	"P002": {
		Category: CategoryProtocol,
		Message:  "Unknown opcode",
		DocURL:   docBase + "P002",
	},
	"P003": {
		Category: CategoryProtocol,
		Message:  "Unknown handle id",
		Detail:   "An op referenced a host node id that was never created in this stream.",
		DocURL:   docBase + "P003",
	},

	// ============================================
	// Configuration Errors (C001-C019)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
		DocURL:   docBase + "C001",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Cannot parse configuration file",
		Suggestion: "Use .json for JSON files and .yaml or .yml for YAML files.",
		DocURL:     docBase + "C002",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   docBase + "C003",
	},

	// ============================================
	// Tree Document Errors (T001-T019)
	// ============================================

	"T001": {
		Category: CategoryTree,
		Message:  "Invalid tree document",
		Detail:   "A tree document node must have exactly one of tag, text or component.",
		DocURL:   docBase + "T001",
	},

	"S001": {
		Category:   CategoryStorage,
		Message:    "Cannot open render history",
		Suggestion: "Only one process may hold a history file. Stop the other server or pick another --history path.",
		DocURL:     docBase + "S001",
	},
	"S002": {
		Category: CategoryStorage,
		Message:  "Render history entry not found",
		DocURL:   docBase + "S002",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
