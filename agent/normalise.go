package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RepairLog records one normalisation repair applied to a model's raw
// output, so every repair stays observable instead of silent.
type RepairLog struct {
	Strategy string
	Detail   string
}

// NormaliseJSON unmarshals raw into v, first trying it verbatim and
// then, once, after JSON extraction (strip fences, locate the outermost
// object). It does no type coercion: a field whose JSON type does not
// match v's field type fails the unmarshal. Fields missing from the
// output keep their zero values; no other defaults are inserted.
// Length limits and de-duplication are left to the caller, which
// applies TruncateAtSentence, DedupStrings or Invoker.SummariseField
// to the decoded fields. The repairs applied are returned as
// RepairLogs; NormaliseJSON does not log them itself.
func NormaliseJSON(raw string, v interface{}) ([]RepairLog, error) {
	var logs []RepairLog

	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return logs, nil
	}

	extracted := extractJSONObject(raw)
	if extracted != raw {
		logs = append(logs, RepairLog{Strategy: "json_extraction", Detail: "stripped surrounding text/fences"})
		if err := json.Unmarshal([]byte(extracted), v); err == nil {
			return logs, nil
		}
	}

	return logs, fmt.Errorf("normalise: could not unmarshal output as JSON after repair attempts")
}

// extractJSONObject strips markdown code fences and returns the
// outermost {...} span in s, or s unchanged if none is found.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// TruncateAtSentence truncates s to at most limit runes, preferring to
// cut at the last sentence boundary before the limit so a truncated
// field still reads as a complete thought.
func TruncateAtSentence(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, ".!?"); idx > limit/2 {
		return cut[:idx+1]
	}
	return cut
}

// DedupStrings removes duplicate entries from items, preserving order
// of first occurrence.
func DedupStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
