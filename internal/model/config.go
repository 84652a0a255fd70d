package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// ScopeConfig holds the business-scope configuration: which reps and
// pipelines count for reporting, which deal stages are terminal, how
// activities are weighted, and the seed owner-ID map. Defaults come from
// DefaultScopeConfig; a JSON file can override any field.
type ScopeConfig struct {
	RepsInScope      []string          `json:"repsInScope"`
	PipelinesInScope []string          `json:"pipelinesInScope"`
	TerminalStages   map[string]string `json:"terminalStages"` // deal_stage -> terminal status
	WinStages        []string          `json:"winStages"`      // subset of terminal stage names
	OwnerSeedIDs     map[string]string `json:"ownerSeedIds"`   // raw owner ID -> rep display name
	ScoreWeights     map[string]int    `json:"scoreWeights"`   // metric column -> weight
	Timezone         string            `json:"timezone"`
}

// Terminal status values derived from a deal's stage.
const (
	StatusClosedWon         = "CLOSED_WON"
	StatusClosedLost        = "CLOSED_LOST"
	StatusNCR               = "NCR"
	StatusSalesOrderCreated = "SALES_ORDER_CREATED"
)

// DefaultScopeConfig returns the built-in scope: the reps and pipelines the
// org reports on, the terminal-stage table and the activity score weights.
func DefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		RepsInScope: []string{
			"Brad Sherman",
			"Lance Mitton",
			"Dave Borkowski",
			"Jake Lynch",
			"Alex Gonzalez",
			"Owen Labombard",
		},
		PipelinesInScope: []string{
			"Growth Pipeline (Upsell/Cross-sell)",
			"Acquisition (New Customer)",
			"Retention (Existing Product)",
			"Calyx Distribution",
		},
		TerminalStages: map[string]string{
			"Closed Won":                StatusClosedWon,
			"Closed Lost":               StatusClosedLost,
			"NCR":                       StatusNCR,
			"Sales Order Created in NS": StatusSalesOrderCreated,
		},
		WinStages: []string{"Closed Won", "Sales Order Created in NS"},
		OwnerSeedIDs: map[string]string{
			"159242778": "Brad Sherman",
			"160824261": "Lance Mitton",
			"159242779": "Dave Borkowski",
			"161053395": "Jake Lynch",
			"162340117": "Alex Gonzalez",
			"163901284": "Owen Labombard",
		},
		ScoreWeights: map[string]int{
			"meetings":        5,
			"calls":           3,
			"emails":          1,
			"completed_tasks": 2,
			"overdue_tasks":   -2,
		},
		Timezone: "America/New_York",
	}
}

// LoadScopeConfig returns the defaults overridden by the JSON file at path.
// An empty path returns the defaults unchanged.
func LoadScopeConfig(path string) (ScopeConfig, error) {
	cfg := DefaultScopeConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read scope config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scope config: %w", err)
	}
	return cfg, nil
}

// IsRepInScope reports whether name is one of the configured reps.
func (c ScopeConfig) IsRepInScope(name string) bool {
	for _, r := range c.RepsInScope {
		if r == name {
			return true
		}
	}
	return false
}

// IsWinStage reports whether stage counts as a successful terminal outcome.
func (c ScopeConfig) IsWinStage(stage string) bool {
	for _, s := range c.WinStages {
		if s == stage {
			return true
		}
	}
	return false
}
