// Package directive implements the embedded function-call protocol: the
// moderator persona steers the discussion by emitting <function_call>
// blocks inside its generated replies, and this package scans, parses,
// and executes them.
//
// Generated text is untrusted and partially malformed by nature, so each
// block parses independently: a block that is not valid JSON, or that
// lacks the name/parameters shape, is dropped silently while the
// remaining blocks are still parsed.
package directive

import (
	"encoding/json"
	"regexp"
	"strings"
)

// blockRe matches one embedded directive block. Non-greedy so that
// multiple blocks in one reply are matched separately.
var blockRe = regexp.MustCompile(`(?s)<function_call>\s*(.*?)\s*</function_call>`)

// Call is one parsed directive: a name from the closed catalog plus its
// parameter mapping. Calls are evaluated once and discarded.
type Call struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// Parse extracts every well-formed directive block from text, in source
// order. Malformed blocks are skipped.
func Parse(text string) []Call {
	var calls []Call
	for _, m := range blockRe.FindAllStringSubmatch(text, -1) {
		var call Call
		if err := json.Unmarshal([]byte(m[1]), &call); err != nil {
			continue
		}
		if call.Name == "" || call.Parameters == nil {
			continue
		}
		calls = append(calls, call)
	}
	return calls
}

// CleanContent removes every directive block occurrence from text, whether
// or not it parsed, leaving only the prose a user should see.
func CleanContent(text string) string {
	return strings.TrimSpace(blockRe.ReplaceAllString(text, ""))
}

// String parameter accessors. Generated parameter values may be missing or
// of the wrong type; accessors return zero values rather than panicking.

func (c Call) str(key string) string {
	v, _ := c.Parameters[key].(string)
	return v
}

func (c Call) boolean(key string) bool {
	v, _ := c.Parameters[key].(bool)
	return v
}

func (c Call) number(key string) (float64, bool) {
	v, ok := c.Parameters[key].(float64)
	return v, ok
}

func (c Call) strings(key string) []string {
	raw, ok := c.Parameters[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c Call) object(key string) map[string]any {
	v, _ := c.Parameters[key].(map[string]any)
	return v
}
