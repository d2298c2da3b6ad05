// Package generator orchestrates a documentation run: scan, diff against
// the ledger, analyze and document each changed file, assemble output and
// commit the new fingerprints.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lexcodex/docsmith/analyzer"
	"github.com/lexcodex/docsmith/builder"
	"github.com/lexcodex/docsmith/config"
	"github.com/lexcodex/docsmith/ledger"
	"github.com/lexcodex/docsmith/llm"
	"github.com/lexcodex/docsmith/scanner"
)

// proseCacheSize bounds the in-memory prose cache. Entries are keyed by
// content hash, so a file that reverts to a prior state within one process
// skips the generation call.
const proseCacheSize = 256

// Generator wires the scanner, analyzer, ledger, text service and builder
// into one sequential pipeline. Files are processed one at a time; slow and
// simple beats tripping API rate limits.
type Generator struct {
	cfg     *config.Config
	scan    *scanner.Scanner
	analyze *analyzer.Analyzer
	led     *ledger.Ledger
	gen     llm.Generator
	build   *builder.Builder
	archive *builder.Archive
	cache   *lru.Cache[string, string]
}

func New(cfg *config.Config, gen llm.Generator) *Generator {
	cache, _ := lru.New[string, string](proseCacheSize)
	return &Generator{
		cfg:     cfg,
		scan:    scanner.New(cfg),
		analyze: analyzer.New(),
		led:     ledger.New(cfg),
		gen:     gen,
		build:   builder.New(cfg),
		cache:   cache,
	}
}

// SetArchive enables the SQLite documentation archive. Optional.
func (g *Generator) SetArchive(a *builder.Archive) {
	g.archive = a
}

// SetLedger replaces the ledger, mainly to disable the git signal in tests.
func (g *Generator) SetLedger(l *ledger.Ledger) {
	g.led = l
}

// Run executes one documentation pass. When forceFull is set, or no prior
// run exists, every scanned file is processed; otherwise only changed files
// are. Per-file failures are logged and skipped; the run succeeds if the
// ledger commits.
func (g *Generator) Run(ctx context.Context, forceFull bool) error {
	log.Println("generator: starting documentation generation")

	current, err := g.scan.Scan()
	if err != nil {
		return fmt.Errorf("scanning project: %w", err)
	}

	fullRun := forceFull || !g.led.HasPreviousRun()
	var toProcess []string
	if fullRun {
		log.Println("generator: performing full documentation generation")
		toProcess = current
	} else {
		log.Println("generator: checking for changes since last run")
		toProcess = g.led.ChangedFiles(current)
	}

	// A run whose only change is a deletion still has cleanup to do.
	deleted := g.led.Deleted(current)
	if len(toProcess) == 0 && len(deleted) == 0 {
		log.Println("generator: no files need documentation")
		return nil
	}
	log.Printf("generator: %d files to document", len(toProcess))

	if !fullRun {
		g.build.LoadExisting()
	}

	var processed []string
	var canceled error
	for i, rel := range toProcess {
		if err := ctx.Err(); err != nil {
			canceled = err
			break
		}
		log.Printf("generator: [%d/%d] %s", i+1, len(toProcess), rel)
		doc, err := g.documentFile(ctx, rel)
		if err != nil {
			log.Printf("generator: documenting %s: %v", rel, err)
			continue
		}
		g.build.Add(rel, doc)
		if g.archive != nil {
			if err := g.archive.Put(doc); err != nil {
				log.Printf("generator: archiving %s: %v", rel, err)
			}
		}
		processed = append(processed, rel)
	}

	for _, gone := range deleted {
		g.build.Remove(gone)
		if g.archive != nil {
			if err := g.archive.Delete(gone); err != nil {
				log.Printf("generator: pruning archive entry %s: %v", gone, err)
			}
		}
	}

	log.Println("generator: building final documentation structure")
	if err := g.build.Build(); err != nil {
		return err
	}

	// Commit covers whatever finished, even on cancellation; the remainder
	// is picked up by the next run.
	g.led.Commit(processed, current)
	if canceled != nil {
		return canceled
	}
	log.Println("generator: documentation generation complete")
	return nil
}

func (g *Generator) documentFile(ctx context.Context, rel string) (*builder.FileDoc, error) {
	abs := filepath.Join(g.cfg.ProjectRoot, filepath.FromSlash(rel))
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	rec := g.analyze.Analyze(rel, content)

	prose, err := g.generateProse(ctx, rel, string(content), rec)
	if err != nil {
		return nil, err
	}
	return &builder.FileDoc{
		Path:          rel,
		Analysis:      rec,
		Documentation: prose,
		Timestamp:     time.Now(),
	}, nil
}

func (g *Generator) generateProse(ctx context.Context, rel, content string, rec *analyzer.Record) (string, error) {
	sum := sha256.Sum256([]byte(content))
	// The prompt embeds the path, so identical content in two files still
	// needs separate generations.
	key := rel + ":" + hex.EncodeToString(sum[:])
	if prose, ok := g.cache.Get(key); ok {
		log.Printf("generator: cache hit for %s", rel)
		return prose, nil
	}

	prose, err := g.gen.Generate(ctx, g.cfg.SystemPrompt, buildPrompt(rel, content, rec))
	if err != nil {
		return "", fmt.Errorf("text generation: %w", err)
	}
	g.cache.Add(key, prose)
	return prose, nil
}
