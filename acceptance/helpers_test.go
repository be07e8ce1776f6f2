package acceptance_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os/exec"
	"testing"
)

// runBk executes the bk binary and returns stdout, stderr, and exit code.
func runBk(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(bkBinary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("failed to run bk: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), exitCode
}

// runBkSuccess runs bk expecting exit code 0 and returns stdout.
func runBkSuccess(t *testing.T, dir string, args ...string) string {
	t.Helper()
	stdout, stderr, exitCode := runBk(t, dir, args...)
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d\nargs: %v\nstdout: %s\nstderr: %s", exitCode, args, stdout, stderr)
	}
	return stdout
}

// runBkJSON runs bk with --json, expecting success, and decodes stdout into v.
func runBkJSON(t *testing.T, dir string, v any, args ...string) {
	t.Helper()
	stdout := runBkSuccess(t, dir, append([]string{"--json"}, args...)...)
	if err := json.Unmarshal([]byte(stdout), v); err != nil {
		t.Fatalf("failed to parse JSON: %v\noutput: %s", err, stdout)
	}
}

// initProject creates a temp dir and initializes a booktree project.
func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runBkSuccess(t, dir, "init")
	return dir
}

type page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
}

// newBook runs bk new and returns the created root page.
func newBook(t *testing.T, dir, title string) page {
	t.Helper()
	var p page
	runBkJSON(t, dir, &p, "new", title)
	return p
}

// addPage runs bk add and returns the created page.
func addPage(t *testing.T, dir, title string, placement ...string) page {
	t.Helper()
	var p page
	runBkJSON(t, dir, &p, append([]string{"add", title}, placement...)...)
	return p
}

type treeNode struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Depth    int         `json:"depth"`
	Children []*treeNode `json:"children"`
}

// outline returns "title@depth" for every page of every book in document order.
func outline(t *testing.T, dir string, args ...string) []string {
	t.Helper()
	var out struct {
		Books []*treeNode `json:"books"`
	}
	runBkJSON(t, dir, &out, append([]string{"list"}, args...)...)

	var flat []string
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		flat = append(flat, n.Title+"@"+string(rune('0'+n.Depth)))
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, b := range out.Books {
		walk(b)
	}
	return flat
}
