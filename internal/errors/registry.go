package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Tree engine (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryArena,
		Message:  "Invalid key",
		Detail:   "The key is out of range or refers to a removed slot. A node ID was kept after its node was detached.",
	},
	"E102": {
		Category: CategoryArena,
		Message:  "Slot already filled",
	},
	"E103": {
		Category: CategoryTree,
		Message:  "Root has no siblings",
		Detail:   "Sibling insertion and moves are not defined for the root node.",
	},
	"E104": {
		Category: CategoryTree,
		Message:  "Illegal move",
		Detail:   "A node cannot be moved next to itself or into its own subtree.",
	},
	"E105": {
		Category: CategoryRender,
		Message:  "Arena desynchronized",
		Detail:   "The node tree and the render state arena disagree about a node ID.",
	},
	"E106": {
		Category: CategoryTree,
		Message:  "Root already attached",
	},
	"E107": {
		Category: CategoryLayout,
		Message:  "Child index out of range",
	},
	"E108": {
		Category: CategoryRender,
		Message:  "Unknown operation",
		Detail:   "A reconcile op or render patch carries a kind this tree does not handle.",
	},
	"E109": {
		Category: CategoryRender,
		Message:  "Mismatched reconcile inputs",
		Detail:   "Keys and IDs, or keys and elements, must be parallel slices of equal length.",
	},

	// ============================================
	// Configuration (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"E202": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
	},
	"E203": {
		Category: CategoryConfig,
		Message:  "Configuration file malformed",
	},

	// ============================================
	// Snapshots (E301-E399)
	// ============================================

	"E301": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
	},
	"E302": {
		Category: CategorySnapshot,
		Message:  "Snapshot write failed",
	},
	"E303": {
		Category: CategorySnapshot,
		Message:  "Snapshot malformed",
	},

	// ============================================
	// Protocol (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryProtocol,
		Message:  "Unknown patch operation",
	},

	// ============================================
	// Host (E501-E599)
	// ============================================

	"E501": {
		Category: CategoryRender,
		Message:  "Render loop panicked",
		Detail:   "A widget or the render tree panicked while rendering. The host stopped.",
	},
	"E502": {
		Category: CategoryLayout,
		Message:  "Paint loop panicked",
		Detail:   "A widget or the paint tree panicked during layout or paint. The host stopped.",
	},

	// ============================================
	// Inspector (E601-E699)
	// ============================================

	"E601": {
		Category: CategoryInspector,
		Message:  "Snapshot store not configured",
		Detail:   "Start the inspector with a snapshot store to save and load snapshots.",
	},
	"E602": {
		Category: CategoryInspector,
		Message:  "Host not responding",
		Detail:   "The paint loop did not answer in time. The host may not be running.",
	},
	"E603": {
		Category: CategoryInspector,
		Message:  "Inspector server failed",
		Detail:   "The inspector could not serve on its address. Check inspector.addr in canopy.json.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
