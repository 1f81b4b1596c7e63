package hubsvc

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/eventlog"
)

// Filter wraps a compiled CEL program evaluated per delivered record.
// When disabled, match always returns true.
type Filter struct {
	prog    cel.Program
	enabled bool
}

func CompileFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("seq", cel.IntType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Parsed event payload for field-level filtering
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// match evaluates the expression against a record. Evaluation errors filter
// the record out rather than failing the subscription.
func (f Filter) Match(rec eventlog.Record) bool {
	if !f.enabled {
		return true
	}
	payload, err := event.Encode(rec.Event)
	if err != nil {
		return false
	}
	var jsonObj any
	_ = json.Unmarshal(payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"type":   string(rec.Event.Type),
		"seq":    int64(rec.Seq),
		"ts_ms":  rec.TimeMs,
		"text":   rec.Event.Text,
		"json":   jsonObj,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
