package thicket

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// script is the top-level JSON structure of a script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences injected pointer input and screenshots across
// ticks for automated visual testing. Attach it with SetScriptRunner.
//
// Supported actions: "click" (x, y), "drag" (fromX, fromY, toX, toY,
// frames), "wait" (frames) and "screenshot" (label).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON script such as
//
//	{"steps": [{"action": "click", "x": 40, "y": 40}, {"action": "screenshot", "label": "after"}]}
func LoadScript(data []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range s.Steps {
		switch st.Action {
		case "click", "drag", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: s.Steps}, nil
}

// SetScriptRunner attaches a runner to the renderer; nil detaches it. The
// runner advances at the start of every Update.
func (r *Renderer) SetScriptRunner(sr *ScriptRunner) {
	r.runner = sr
}

// Done reports whether every step has run and its input was consumed.
func (sr *ScriptRunner) Done() bool {
	return sr.done
}

// step advances the runner by one tick.
func (sr *ScriptRunner) step(r *Renderer) {
	if sr.done {
		return
	}
	// Let pending injections drain before advancing.
	if len(r.injectQueue) > 0 {
		return
	}
	if sr.waitCount > 0 {
		sr.waitCount--
		return
	}
	if sr.cursor >= len(sr.steps) {
		sr.done = true
		return
	}

	st := sr.steps[sr.cursor]
	sr.cursor++

	switch st.Action {
	case "screenshot":
		r.Screenshot(st.Label)
	case "click":
		r.InjectClick(st.X, st.Y)
	case "drag":
		r.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wait":
		if st.Frames > 0 {
			sr.waitCount = st.Frames - 1 // this tick counts as one
		}
	}

	if sr.cursor >= len(sr.steps) && sr.waitCount == 0 && len(r.injectQueue) == 0 {
		sr.done = true
	}
}
