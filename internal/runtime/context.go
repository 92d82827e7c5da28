// Package runtime holds the domain state recorded while a script executes:
// targets, payloads, tasks with their actions, findings, notes and embedded
// assets, plus the result snapshot handed back to callers.
package runtime

// Action is one recorded side-effecting step.
type Action struct {
	Kind    string                 `json:"kind"`
	Summary string                 `json:"summary"`
	Details map[string]interface{} `json:"details,omitempty"`
	Line    int                    `json:"line,omitempty"`
}

// Task groups the actions recorded while its TASK block is the innermost
// open one.
type Task struct {
	Name      string   `json:"name"`
	Line      int      `json:"line,omitempty"`
	Docstring string   `json:"docstring,omitempty"`
	Steps     []Action `json:"steps"`
}

type Finding struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// EmbeddedAsset always carries a canonical language name, never a raw alias.
type EmbeddedAsset struct {
	Language string      `json:"language"`
	Content  interface{} `json:"content"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// Context is the per-run recording state. It belongs to exactly one
// interpreter for the duration of a run.
type Context struct {
	Targets           []string
	Scope             []string
	Payloads          map[string][]string
	EmbeddedAssets    map[string]EmbeddedAsset
	Tasks             []*Task
	StandaloneActions []Action
	Notes             []string
	Findings          []Finding
	ReportDestination string

	taskStack []*Task
}

func NewContext() *Context {
	return &Context{
		Payloads:       map[string][]string{},
		EmbeddedAssets: map[string]EmbeddedAsset{},
	}
}

// CurrentTask returns the innermost open task, or nil outside any task.
func (c *Context) CurrentTask() *Task {
	if len(c.taskStack) == 0 {
		return nil
	}
	return c.taskStack[len(c.taskStack)-1]
}

// PushTask opens a task. The task joins the completed-task list immediately
// so steps recorded before a mid-task failure stay visible in the partial
// result.
func (c *Context) PushTask(task *Task) {
	c.Tasks = append(c.Tasks, task)
	c.taskStack = append(c.taskStack, task)
}

// PopTask closes the innermost open task.
func (c *Context) PopTask() {
	if len(c.taskStack) == 0 {
		return
	}
	c.taskStack = c.taskStack[:len(c.taskStack)-1]
}

// OpenTasks reports the depth of the task stack; a balanced run ends at 0.
func (c *Context) OpenTasks() int { return len(c.taskStack) }

// AddAction records an action against the innermost open task, or on the
// standalone list when no task is open.
func (c *Context) AddAction(action Action) {
	if task := c.CurrentTask(); task != nil {
		task.Steps = append(task.Steps, action)
		return
	}
	c.StandaloneActions = append(c.StandaloneActions, action)
}

func (c *Context) AddTarget(target string) {
	c.Targets = append(c.Targets, target)
}

func (c *Context) AddScope(entry string) {
	c.Scope = append(c.Scope, entry)
}

func (c *Context) AddPayload(name string, values []string) {
	c.Payloads[name] = append(c.Payloads[name], values...)
}

func (c *Context) AddNote(note string) {
	c.Notes = append(c.Notes, note)
}

func (c *Context) AddFinding(finding Finding) {
	c.Findings = append(c.Findings, finding)
}

func (c *Context) SetEmbeddedAsset(name string, asset EmbeddedAsset) {
	c.EmbeddedAssets[name] = asset
}

// FormatValue resolves the context-derived interpolation keys: targets,
// scope, target, payload_<name>, embed_<name> and embed_<name>_meta.
func (c *Context) FormatValue(name string) (interface{}, bool) {
	switch name {
	case "targets":
		return c.Targets, true
	case "scope":
		return c.Scope, true
	case "target":
		if len(c.Targets) > 0 {
			return c.Targets[0], true
		}
		return nil, false
	}
	const payloadPrefix = "payload_"
	if len(name) > len(payloadPrefix) && name[:len(payloadPrefix)] == payloadPrefix {
		if values, ok := c.Payloads[name[len(payloadPrefix):]]; ok {
			return values, true
		}
	}
	const embedPrefix = "embed_"
	if len(name) > len(embedPrefix) && name[:len(embedPrefix)] == embedPrefix {
		rest := name[len(embedPrefix):]
		const metaSuffix = "_meta"
		if len(rest) > len(metaSuffix) && rest[len(rest)-len(metaSuffix):] == metaSuffix {
			if asset, ok := c.EmbeddedAssets[rest[:len(rest)-len(metaSuffix)]]; ok && asset.Metadata != nil {
				return asset.Metadata, true
			}
		}
		if asset, ok := c.EmbeddedAssets[rest]; ok {
			if raw, isBytes := asset.Content.([]byte); isBytes {
				return string(raw), true
			}
			return asset.Content, true
		}
	}
	return nil, false
}
