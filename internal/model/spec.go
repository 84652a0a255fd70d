package model

// Source describes where the raw sheet tables come from.
type Source struct {
	Type      string            `json:"type"` // "xlsx" or "csv"
	Path      string            `json:"path"` // workbook path or CSV directory
	HeaderRow int               `json:"headerRow,omitempty"`
	Tabs      map[string]string `json:"tabs,omitempty"` // sheet key -> tab/file name override
}

// Export defines where result tables are written after a run.
type Export struct {
	Dir         string `json:"dir"`
	JSONSummary bool   `json:"jsonSummary"`
}

// RunSpec is the configuration for one analytics run, accepted by
// POST /api/v1/runs and by the CLI.
type RunSpec struct {
	Source          Source  `json:"source"`
	ScopeConfigPath string  `json:"scopeConfigPath,omitempty"`
	Export          *Export `json:"export,omitempty"`
	Timeout         string  `json:"timeout,omitempty"` // e.g. "5m"
}

// Sheet keys the pipeline understands. Emails and notes are optional.
var SheetKeys = []string{"deals", "meetings", "tasks", "tickets", "calls", "emails", "notes"}

// DefaultTabs maps sheet keys to the default worksheet names.
var DefaultTabs = map[string]string{
	"deals":    "Deals",
	"meetings": "Meetings",
	"tasks":    "Tasks",
	"tickets":  "Tickets",
	"calls":    "Calls",
	"emails":   "Emails",
	"notes":    "Notes",
}
