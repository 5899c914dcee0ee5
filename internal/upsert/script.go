package upsert

import (
	"fmt"

	"github.com/roxby/tubesearch/internal/engine"
)

// ScriptID names the counter script. Engines without Painless dispatch on it.
const ScriptID = "tubesearch-counter-upsert"

// ScriptSource is the Painless body run when the target document exists:
// increment on request, fill absent fields, always refresh the timestamp.
const ScriptSource = `if (params.increment) {
  def cur = ctx._source[params.field];
  ctx._source[params.field] = (cur == null ? 0 : cur) + 1;
}
for (entry in params.fill.entrySet()) {
  if (ctx._source[entry.getKey()] == null) {
    ctx._source[entry.getKey()] = entry.getValue();
  }
}
ctx._source[params.ts_field] = params.now;`

// Script parameter names.
const (
	paramField     = "field"
	paramIncrement = "increment"
	paramFill      = "fill"
	paramTSField   = "ts_field"
	paramNow       = "now"
)

// Apply evaluates the counter script against an existing document in process.
// It returns a modified copy and never touches fields other than the counter,
// absent fill fields and the timestamp.
func Apply(source engine.Document, params map[string]any) (engine.Document, error) {
	field, ok := params[paramField].(string)
	if !ok || field == "" {
		return nil, fmt.Errorf("counter script: %q param must be a non-empty string", paramField)
	}
	tsField, ok := params[paramTSField].(string)
	if !ok || tsField == "" {
		return nil, fmt.Errorf("counter script: %q param must be a non-empty string", paramTSField)
	}
	increment, _ := params[paramIncrement].(bool)
	fill, _ := params[paramFill].(map[string]any)

	out := make(engine.Document, len(source)+len(fill)+1)
	for k, v := range source {
		out[k] = v
	}

	if increment {
		cur, err := toInt64(out[field])
		if err != nil {
			return nil, fmt.Errorf("counter script: field %q: %w", field, err)
		}
		out[field] = cur + 1
	}
	for k, v := range fill {
		if existing, present := out[k]; !present || existing == nil {
			out[k] = v
		}
	}
	out[tsField] = params[paramNow]
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
