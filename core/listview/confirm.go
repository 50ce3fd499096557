package listview

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// Prompt is shown to the user before a destructive mutation.
type Prompt struct {
	Op    Op
	Title string
	Diff  string // unified diff of the changed fields, updates only
}

type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// changeDiff diffs the fields set in payload against the same fields of the current record.
func changeDiff(current, payload interface{}) string {
	after := fieldsOf(payload)
	if len(after) == 0 {
		return ""
	}
	before := map[string]interface{}{}
	if current != nil {
		before = fieldsOf(current)
	}

	keys := make([]string, 0, len(after))
	for k, v := range after {
		if isBlank(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	from := make([]string, 0, len(keys))
	to := make([]string, 0, len(keys))
	for _, k := range keys {
		old, ok := before[k]
		if !ok {
			old = "<unset>"
		}
		from = append(from, fmt.Sprintf("%s: %v\n", k, old))
		to = append(to, fmt.Sprintf("%s: %v\n", k, after[k]))
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        from,
		B:        to,
		FromFile: "current",
		ToFile:   "submitted",
		Context:  0,
	})
	if err != nil {
		return ""
	}
	return diff
}

func fieldsOf(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	fields := make(map[string]interface{})
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func isBlank(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}
