// Package agent turns one agent-authored message into a display unit plus
// an optional file-tree mutation. Payload shape recognition happens here
// and nowhere else; consumers branch on the returned variant, never on raw
// field presence.
package agent

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"vagentd/pkg/errdefs"
	"vagentd/pkg/models"
	"vagentd/pkg/telemetry"
)

// Payload is the interpreted result. Tree is nil for display-only
// payloads; a non-nil Tree is a complete snapshot that must replace the
// project's file tree wholesale.
type Payload struct {
	Text string
	Tree models.FileTree
}

// HasPatch reports whether the payload carries a file-tree mutation.
func (p Payload) HasPatch() bool {
	return p.Tree != nil
}

// Interpret parses raw as an agent payload. It fails with ErrPayloadFormat
// when raw is not a well-formed JSON object carrying a "text" field; the
// caller then records the raw text as an opaque message and applies no tree
// mutation. An absent or null "fileTree" field means display-only, not an
// error; an empty object is a patch that clears the project.
func Interpret(raw string) (Payload, error) {
	if !gjson.Valid(raw) {
		telemetry.AgentPayloads.WithLabelValues("malformed").Inc()
		return Payload{}, errdefs.PayloadFormatf("not valid JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		telemetry.AgentPayloads.WithLabelValues("malformed").Inc()
		return Payload{}, errdefs.PayloadFormatf("payload is not an object")
	}
	text := parsed.Get("text")
	if !text.Exists() {
		telemetry.AgentPayloads.WithLabelValues("malformed").Inc()
		return Payload{}, errdefs.PayloadFormatf("missing text field")
	}

	out := Payload{Text: text.String()}
	ft := parsed.Get("fileTree")
	if !ft.Exists() || ft.Type == gjson.Null {
		telemetry.AgentPayloads.WithLabelValues("display").Inc()
		return out, nil
	}

	var tree models.FileTree
	if err := json.Unmarshal([]byte(ft.Raw), &tree); err != nil {
		telemetry.AgentPayloads.WithLabelValues("malformed").Inc()
		return Payload{}, errdefs.PayloadFormatf("invalid fileTree: %v", err)
	}
	if tree == nil {
		tree = models.FileTree{}
	}
	out.Tree = tree
	telemetry.AgentPayloads.WithLabelValues("patch").Inc()
	return out, nil
}
