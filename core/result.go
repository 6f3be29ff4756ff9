package core

// Action is a single step taken by the backend while producing an answer.
// No backend currently reports actions, so results always carry an empty list.
type Action struct {
	Tool      string `json:"tool"`
	ToolInput string `json:"tool_input"`
	Log       string `json:"log,omitempty"`
}

// InvocationResult is the single return shape of an invocation, for both
// successful and failed backend calls. Output is always a string; anything
// else the backend produced is kept in Raw.
type InvocationResult struct {
	Output  string   `json:"output"`
	Actions []Action `json:"actions"`
	Raw     any      `json:"raw"`
}

// NewInvocationResult builds a result with an empty, non-nil action list.
func NewInvocationResult(output string, raw any) InvocationResult {
	return InvocationResult{Output: output, Actions: []Action{}, Raw: raw}
}

// Map renders the result in its mapping form with exactly the keys
// "output", "actions" and "raw".
func (r InvocationResult) Map() map[string]any {
	actions := r.Actions
	if actions == nil {
		actions = []Action{}
	}
	return map[string]any{
		"output":  r.Output,
		"actions": actions,
		"raw":     r.Raw,
	}
}
