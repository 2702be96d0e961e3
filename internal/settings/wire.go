package settings

import (
	"fmt"

	"github.com/spf13/cast"
)

// Wire renders the tree in the loosely typed form sent to the browser.
// Nodes and fields are arrays so display order survives JSON encoding.
func (t Tree) Wire() []any {
	roots := make([]any, 0, len(t.Roots))
	for _, n := range t.Roots {
		roots = append(roots, n.wire())
	}
	return roots
}

func (n Node) wire() map[string]any {
	out := map[string]any{
		"key":   n.Key,
		"label": n.Label,
	}
	if n.Expansion != "" {
		out["defaultExpansionState"] = string(n.Expansion)
	}
	if len(n.Actions) > 0 {
		actions := make([]any, 0, len(n.Actions))
		for _, a := range n.Actions {
			actions = append(actions, map[string]any{"id": a.ID, "label": a.Label})
		}
		out["actions"] = actions
	}
	if len(n.Fields) > 0 {
		fields := make([]any, 0, len(n.Fields))
		for _, f := range n.Fields {
			fields = append(fields, f.wire())
		}
		out["fields"] = fields
	}
	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, c.wire())
		}
		out["children"] = children
	}
	return out
}

func (f Field) wire() map[string]any {
	out := map[string]any{
		"key":   f.Key,
		"label": f.Label,
		"input": string(f.Input),
		"value": f.Value,
	}
	if len(f.Options) > 0 {
		options := make([]any, 0, len(f.Options))
		for _, o := range f.Options {
			options = append(options, map[string]any{"label": o.Label, "value": o.Value})
		}
		out["options"] = options
	}
	if f.Min != nil {
		out["min"] = *f.Min
	}
	if f.Max != nil {
		out["max"] = *f.Max
	}
	if f.Step != 0 {
		out["step"] = f.Step
	}
	if f.Precision != 0 {
		out["precision"] = f.Precision
	}
	if f.Error != "" {
		out["error"] = f.Error
	}
	return out
}

// ParseAction decodes an action in wire form:
//
//	{"action": "update", "payload": {"path": [...], "value": ...}}
//	{"action": "perform-node-action", "payload": {"id": "...", "path": [...]}}
func ParseAction(raw map[string]any) (Action, error) {
	kind, err := cast.ToStringE(raw["action"])
	if err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}
	payload, err := cast.ToStringMapE(raw["payload"])
	if err != nil {
		return Action{}, fmt.Errorf("%w: payload: %v", ErrInvalidValue, err)
	}
	var path []string
	if raw, ok := payload["path"]; ok && raw != nil {
		if path, err = cast.ToStringSliceE(raw); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
	}

	a := Action{Kind: Kind(kind), Path: path}
	switch a.Kind {
	case Update:
		a.Value = payload["value"]
	case PerformNodeAction:
		if a.ID, err = cast.ToStringE(payload["id"]); err != nil || a.ID == "" {
			return Action{}, fmt.Errorf("%w: missing id", ErrUnknownAction)
		}
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	return a, nil
}
