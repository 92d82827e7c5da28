package runtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Result is the immutable snapshot of a finished (or failed) run. Every
// field is plain data; it marshals to JSON without losing anything.
type Result struct {
	RunID             string                   `json:"run_id"`
	Targets           []string                 `json:"targets"`
	Scope             []string                 `json:"scope"`
	Variables         map[string]interface{}   `json:"variables"`
	Payloads          map[string][]string      `json:"payloads"`
	EmbeddedAssets    map[string]EmbeddedAsset `json:"embedded_assets"`
	Tasks             []Task                   `json:"tasks"`
	StandaloneActions []Action                 `json:"standalone_actions"`
	Notes             []string                 `json:"notes"`
	Findings          []Finding                `json:"findings"`
	ReportDestination string                   `json:"report_destination,omitempty"`
}

// Snapshot copies the context into a Result. Variables are supplied by the
// caller because the interpreter owns the frame stack and must first strip
// callables and convert values to plain data.
func (c *Context) Snapshot(variables map[string]interface{}) *Result {
	result := &Result{
		RunID:             uuid.NewString(),
		Targets:           append([]string(nil), c.Targets...),
		Scope:             append([]string(nil), c.Scope...),
		Variables:         variables,
		Payloads:          map[string][]string{},
		EmbeddedAssets:    map[string]EmbeddedAsset{},
		StandaloneActions: append([]Action(nil), c.StandaloneActions...),
		Notes:             append([]string(nil), c.Notes...),
		Findings:          append([]Finding(nil), c.Findings...),
		ReportDestination: c.ReportDestination,
	}
	for name, values := range c.Payloads {
		result.Payloads[name] = append([]string(nil), values...)
	}
	for name, asset := range c.EmbeddedAssets {
		result.EmbeddedAssets[name] = asset
	}
	for _, task := range c.Tasks {
		copied := *task
		copied.Steps = append([]Action(nil), task.Steps...)
		result.Tasks = append(result.Tasks, copied)
	}
	return result
}

// MarshalJSON keeps nil slices rendering as [] instead of null.
func (r *Result) MarshalJSON() ([]byte, error) {
	type alias Result
	out := alias(*r)
	if out.Targets == nil {
		out.Targets = []string{}
	}
	if out.Scope == nil {
		out.Scope = []string{}
	}
	if out.Variables == nil {
		out.Variables = map[string]interface{}{}
	}
	if out.Tasks == nil {
		out.Tasks = []Task{}
	}
	if out.StandaloneActions == nil {
		out.StandaloneActions = []Action{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	if out.Findings == nil {
		out.Findings = []Finding{}
	}
	return json.Marshal(out)
}
