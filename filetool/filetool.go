// Package filetool implements the Implementor's file edit/read/search
// tools and the deterministic file-existence pre-step QA runs before
// spending any LLM tokens.
package filetool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskforge-dev/taskforge/errs"
)

// ReadFile implements tool.Tool for reading a bounded slice of a file's
// lines, the shape the Implementor and the planner's read_file_lines
// subagent tool both need.
type ReadFile struct {
	RepoRoot string
}

func (t *ReadFile) Name() string { return "read_file_lines" }

func (t *ReadFile) Description() string {
	return "Read a bounded slice of a repository file's lines."
}

func (t *ReadFile) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":       map[string]interface{}{"type": "string"},
			"start_line": map[string]interface{}{"type": "integer"},
			"end_line":   map[string]interface{}{"type": "integer"},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFile) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	path, _ := input["path"].(string)
	if path == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: path")}
	}
	startLine, _ := input["start_line"].(float64)
	endLine, _ := input["end_line"].(float64)
	if endLine <= 0 {
		endLine = 50
	}

	full := filepath.Join(t.RepoRoot, path)
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}

	lines := strings.Split(string(content), "\n")
	start := int(startLine)
	if start < 0 {
		start = 0
	}
	end := int(endLine)
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	return map[string]interface{}{
		"lines": strings.Join(lines[start:end], "\n"),
		"total": len(lines),
	}, nil
}

// EditFile implements tool.Tool for writing a new full contents to a
// file, creating parent directories if needed. It is the only tool that
// mutates the repository; the implementor node is the only node that
// calls it, so file edits serialize through a single caller.
type EditFile struct {
	RepoRoot string
}

func (t *EditFile) Name() string { return "edit_file" }

func (t *EditFile) Description() string {
	return "Write new full contents to a repository file, creating parent directories as needed."
}

func (t *EditFile) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":     map[string]interface{}{"type": "string"},
			"contents": map[string]interface{}{"type": "string"},
		},
		"required": []string{"path", "contents"},
	}
}

func (t *EditFile) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	path, _ := input["path"].(string)
	contents, _ := input["contents"].(string)
	if path == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: path")}
	}

	full := filepath.Join(t.RepoRoot, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	return map[string]interface{}{"path": path, "bytes_written": len(contents)}, nil
}

// FindFilesByName implements tool.Tool over a glob-style name pattern.
type FindFilesByName struct {
	RepoRoot string
}

func (t *FindFilesByName) Name() string { return "find_files_by_name" }

func (t *FindFilesByName) Description() string {
	return "Find repository file paths whose base name matches a glob-style pattern."
}

func (t *FindFilesByName) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{"type": "string"},
		},
		"required": []string{"pattern"},
	}
}

func (t *FindFilesByName) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	pattern, _ := input["pattern"].(string)
	if pattern == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: pattern")}
	}

	var matches []string
	err := filepath.WalkDir(t.RepoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ok, _ := filepath.Match(pattern, d.Name())
		if ok {
			rel, _ := filepath.Rel(t.RepoRoot, path)
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	return map[string]interface{}{"matches": matches}, nil
}

// CheckFilesExist is QA's deterministic pre-step: for each reported
// path, verify it exists, is a regular file, is readable, and is
// non-empty. No LLM tokens are spent here.
func CheckFilesExist(repoRoot string, paths []string) (ok bool, issues []string) {
	for _, p := range paths {
		full := filepath.Join(repoRoot, p)
		info, err := os.Stat(full)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: does not exist", p))
			continue
		}
		if !info.Mode().IsRegular() {
			issues = append(issues, fmt.Sprintf("%s: not a regular file", p))
			continue
		}
		if info.Size() == 0 {
			issues = append(issues, fmt.Sprintf("%s: empty", p))
			continue
		}
		f, err := os.Open(full)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: not readable", p))
			continue
		}
		f.Close()
	}
	return len(issues) == 0, issues
}
