package parse

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

// Parser inventories workspace sources and extracts symbol outlines.
type Parser struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewParser constructs the parse stage handler.
func NewParser(cfg *config.Config, logger *slog.Logger) *Parser {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "parse"))
	}
	return &Parser{cfg: cfg, logger: stageLogger}
}

func (p *Parser) Name() string { return stage.Parse }

func (p *Parser) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, p.logger)

	workspace := strings.TrimSpace(state.WorkspacePath)
	if workspace == "" {
		return services.Wrap(services.ErrValidation, stage.Parse, "validate inputs", "no workspace prepared; run fetch before parse", nil)
	}
	if _, err := os.Stat(workspace); err != nil {
		return services.Wrap(services.ErrValidation, stage.Parse, "validate inputs", fmt.Sprintf("workspace %s is not readable", workspace), err)
	}

	var (
		files []scan.SourceFile
		err   error
	)
	if state.ScanType == scan.TypePR && len(state.Diff) > 0 {
		files, err = p.parseChangedFiles(ctx, workspace, state.Diff)
	} else {
		files, err = p.parseTree(ctx, workspace)
	}
	if err != nil {
		return err
	}

	summary := &scan.ParseSummary{Files: files, Languages: make(map[string]int)}
	for _, file := range files {
		summary.Languages[file.Language]++
		summary.TotalLines += file.LineCount
	}
	state.Parsed = summary

	if len(files) == 0 {
		logger.Warn("no parseable sources found", logging.String("workspace", workspace))
	}
	logger.Info(
		"sources parsed",
		logging.Int("files", len(files)),
		logging.Int("total_lines", summary.TotalLines),
		logging.Int("languages", len(summary.Languages)),
	)
	return nil
}

// parseChangedFiles restricts parsing to the post-change side of a pull
// request diff. Deleted files have no post-change content to parse.
func (p *Parser) parseChangedFiles(ctx context.Context, workspace string, diff []scan.DiffFile) ([]scan.SourceFile, error) {
	var files []scan.SourceFile
	for _, changed := range diff {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if changed.ChangeKind == "deleted" {
			continue
		}
		rel := filepath.ToSlash(changed.Path)
		full := filepath.Join(workspace, filepath.FromSlash(rel))
		if file := p.parseFile(full, rel); file != nil {
			files = append(files, *file)
		}
	}
	return files, nil
}

func (p *Parser) parseTree(ctx context.Context, workspace string) ([]scan.SourceFile, error) {
	var files []scan.SourceFile
	err := filepath.WalkDir(workspace, func(full string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(workspace, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") || p.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if file := p.parseFile(full, rel); file != nil {
			files = append(files, *file)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrInternal, stage.Parse, "walk workspace", "workspace traversal failed", err)
	}
	return files, nil
}

// parseFile reads and outlines a single file. It returns nil for anything
// the parse stage ignores: excluded paths, unknown extensions, oversized or
// binary content, and files that vanished since the diff was taken.
func (p *Parser) parseFile(full, rel string) *scan.SourceFile {
	if p.excluded(rel) {
		return nil
	}
	language := detectLanguage(rel)
	if language == "" {
		return nil
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if maxBytes := int64(p.cfg.Scan.MaxFileSizeKB) * 1024; maxBytes > 0 && info.Size() > maxBytes {
		return nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil
	}
	if bytes.ContainsRune(data, 0) {
		return nil
	}

	lines := splitLines(data)
	return &scan.SourceFile{
		Path:      rel,
		Language:  language,
		LineCount: len(lines),
		Symbols:   extractSymbols(language, lines),
	}
}

func (p *Parser) excluded(rel string) bool {
	for _, pattern := range p.cfg.Scan.ExcludeGlobs {
		if matchesGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func (p *Parser) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg == nil {
		return stage.Unhealthy(stage.Parse, "configuration unavailable")
	}
	return stage.Healthy(stage.Parse)
}

// splitLines breaks file content into lines without a trailing empty entry
// for newline-terminated files.
func splitLines(data []byte) []string {
	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
