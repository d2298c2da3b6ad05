package ledger

import (
	"log"
	"os/exec"
	"strings"
	"time"
)

// GitSignal reports files git considers changed: commits since the last run
// plus uncommitted modifications. Everything here is best-effort; a missing
// git binary or a non-repository root degrades to no signal.
type GitSignal struct {
	root string
}

func NewGitSignal(root string) *GitSignal {
	return &GitSignal{root: root}
}

// ChangedSince returns relative paths of Python files git reports as
// changed. Never fails; any git error yields an empty result.
func (g *GitSignal) ChangedSince(last *time.Time) []string {
	if !g.isRepository() {
		return nil
	}

	var files []string
	if last != nil {
		since := last.Format("2006-01-02 15:04:05")
		out, err := g.run("log", "--since="+since, "--name-only", "--format=")
		if err == nil {
			files = append(files, pythonPaths(out)...)
		}
	}

	out, err := g.run("diff", "--name-only", "HEAD")
	if err == nil {
		files = append(files, pythonPaths(out)...)
	}
	return files
}

func (g *GitSignal) isRepository() bool {
	if _, err := g.run("rev-parse", "--git-dir"); err != nil {
		log.Printf("ledger: git unavailable, skipping change signal")
		return false
	}
	return true
}

func (g *GitSignal) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.root
	out, err := cmd.Output()
	return string(out), err
}

func pythonPaths(out string) []string {
	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.HasSuffix(line, ".py") {
			paths = append(paths, line)
		}
	}
	return paths
}
