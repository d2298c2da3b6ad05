// Package ledger persists per-file fingerprints between documentation runs
// and computes the minimal set of files that need reprocessing.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lexcodex/docsmith/config"
)

// Fingerprint is the observed state of one file at its last documentation.
// Mtime is in float seconds to keep the state file readable as plain JSON
// numbers.
type Fingerprint struct {
	Mtime          float64   `json:"mtime"`
	Size           int64     `json:"size"`
	Hash           string    `json:"hash"`
	LastDocumented time.Time `json:"last_documented"`
}

type state struct {
	Files   map[string]Fingerprint `json:"files"`
	LastRun *time.Time             `json:"last_run"`
}

// Signal is an optional external source of changed paths, typically backed
// by version control. Implementations degrade to returning nothing.
type Signal interface {
	ChangedSince(last *time.Time) []string
}

// Ledger owns the persisted run state. It is not safe for concurrent use;
// one documentation run at a time is the operating model.
type Ledger struct {
	cfg    *config.Config
	path   string
	signal Signal
	state  state
}

// New loads the ledger from the configured state file. A missing or corrupt
// file yields an empty ledger, never an error.
func New(cfg *config.Config) *Ledger {
	return NewWithSignal(cfg, NewGitSignal(cfg.ProjectRoot))
}

// NewWithSignal is New with an explicit change signal. A nil signal disables
// the external channel entirely.
func NewWithSignal(cfg *config.Config, sig Signal) *Ledger {
	l := &Ledger{
		cfg:    cfg,
		path:   cfg.StatePath(),
		signal: sig,
	}
	l.state = l.load()
	return l
}

func (l *Ledger) load() state {
	fresh := state{Files: make(map[string]Fingerprint)}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("ledger: reading state: %v", err)
		}
		return fresh
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("ledger: corrupt state file, starting fresh: %v", err)
		return fresh
	}
	if s.Files == nil {
		s.Files = make(map[string]Fingerprint)
	}
	return s
}

// HasPreviousRun reports whether a persisted ledger exists with at least one
// tracked file. It decides full versus incremental mode.
func (l *Ledger) HasPreviousRun() bool {
	if _, err := os.Stat(l.path); err != nil {
		return false
	}
	return len(l.state.Files) > 0
}

// ChangedFiles diffs the current file set against the ledger and returns the
// sorted, de-duplicated list of relative paths needing reprocessing. New
// files are always included; tracked files are included when stale; deleted
// files never appear. The external signal may contribute extra paths and is
// best-effort only.
func (l *Ledger) ChangedFiles(current []string) []string {
	currentSet := make(map[string]struct{}, len(current))
	for _, f := range current {
		currentSet[f] = struct{}{}
	}

	changed := make(map[string]struct{})
	for _, f := range current {
		prev, tracked := l.state.Files[f]
		if !tracked {
			log.Printf("ledger: new file: %s", f)
			changed[f] = struct{}{}
			continue
		}
		if l.hasChanged(f, prev) {
			log.Printf("ledger: modified file: %s", f)
			changed[f] = struct{}{}
		}
	}

	for f := range l.state.Files {
		if _, ok := currentSet[f]; !ok {
			log.Printf("ledger: deleted file: %s", f)
		}
	}

	if l.signal != nil {
		for _, f := range l.signal.ChangedSince(l.state.LastRun) {
			if _, err := os.Stat(l.abs(f)); err == nil {
				changed[f] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(changed))
	for f := range changed {
		result = append(result, f)
	}
	sort.Strings(result)
	return result
}

// Deleted returns tracked paths that are absent from the current file set,
// for downstream cleanup.
func (l *Ledger) Deleted(current []string) []string {
	currentSet := make(map[string]struct{}, len(current))
	for _, f := range current {
		currentSet[f] = struct{}{}
	}
	var gone []string
	for f := range l.state.Files {
		if _, ok := currentSet[f]; !ok {
			gone = append(gone, f)
		}
	}
	sort.Strings(gone)
	return gone
}

// hasChanged applies the three-tier staleness check in cheap-to-expensive
// order: mtime, then size, then content hash. Any error resolves to
// "changed"; regenerating too much is safer than serving stale docs.
func (l *Ledger) hasChanged(rel string, prev Fingerprint) bool {
	info, err := os.Stat(l.abs(rel))
	if err != nil {
		log.Printf("ledger: checking %s: %v", rel, err)
		return true
	}
	if mtimeSeconds(info.ModTime()) > prev.Mtime {
		return true
	}
	if info.Size() != prev.Size {
		return true
	}
	hash, err := hashFile(l.abs(rel))
	if err != nil {
		log.Printf("ledger: hashing %s: %v", rel, err)
		return true
	}
	return hash != prev.Hash
}

// Commit upserts fresh fingerprints for every processed file, drops entries
// for files no longer in the current set, stamps the run time and persists.
// Per-file failures leave the old entry untouched; persistence failure is
// logged, never raised, since an unsaved ledger only causes extra
// reprocessing next run.
func (l *Ledger) Commit(processed, current []string) {
	for _, f := range processed {
		fp, err := fingerprintFile(l.abs(f))
		if err != nil {
			log.Printf("ledger: fingerprinting %s: %v", f, err)
			continue
		}
		l.state.Files[f] = fp
	}

	if current != nil {
		currentSet := make(map[string]struct{}, len(current))
		for _, f := range current {
			currentSet[f] = struct{}{}
		}
		for f := range l.state.Files {
			if _, ok := currentSet[f]; !ok {
				delete(l.state.Files, f)
			}
		}
	}

	now := time.Now()
	l.state.LastRun = &now
	if err := l.save(); err != nil {
		log.Printf("ledger: saving state: %v", err)
	}
}

// Clear resets the ledger and persists immediately, forcing the next run to
// rebuild everything.
func (l *Ledger) Clear() error {
	l.state = state{Files: make(map[string]Fingerprint)}
	return l.save()
}

// save writes the whole state atomically: temp file in the same directory,
// then rename.
func (l *Ledger) save() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

// Stats summarizes the tracked state.
type Stats struct {
	TotalFiles int
	LastRun    *time.Time
	Oldest     *time.Time
	Newest     *time.Time
}

func (l *Ledger) Stats() Stats {
	s := Stats{
		TotalFiles: len(l.state.Files),
		LastRun:    l.state.LastRun,
	}
	for _, fp := range l.state.Files {
		t := fp.LastDocumented
		if t.IsZero() {
			continue
		}
		if s.Oldest == nil || t.Before(*s.Oldest) {
			tt := t
			s.Oldest = &tt
		}
		if s.Newest == nil || t.After(*s.Newest) {
			tt := t
			s.Newest = &tt
		}
	}
	return s
}

func (l *Ledger) abs(rel string) string {
	return filepath.Join(l.cfg.ProjectRoot, filepath.FromSlash(rel))
}

func fingerprintFile(abs string) (Fingerprint, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return Fingerprint{}, err
	}
	hash, err := hashFile(abs)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		Mtime:          mtimeSeconds(info.ModTime()),
		Size:           info.Size(),
		Hash:           hash,
		LastDocumented: time.Now(),
	}, nil
}

func hashFile(abs string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func mtimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
