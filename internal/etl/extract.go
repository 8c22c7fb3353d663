package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"example.com/advocacy-etl/internal/domain"
)

// Extractor reads participant JSON files from a directory snapshot. Files
// that fail to parse get one repair attempt; files that still fail are
// skipped and logged, never fatal.
type Extractor struct {
	issues *IssueRecorder
	logger *zap.Logger
}

func NewExtractor(issues *IssueRecorder, logger *zap.Logger) *Extractor {
	return &Extractor{issues: issues, logger: logger}
}

// ExtractResult carries the parsed documents and per-file counters.
type ExtractResult struct {
	Records        []json.RawMessage
	FilesProcessed int
	FilesFailed    int
}

// Extract reads every *.json file in dir, in name order.
func (e *Extractor) Extract(dir string) (*ExtractResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	e.logger.Info("extracting input files", zap.String("dir", dir), zap.Int("files", len(paths)))

	result := &ExtractResult{}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			e.skip(result, path, "file could not be read: "+err.Error())
			continue
		}
		if !json.Valid(content) {
			repaired, ok := repairJSON(content)
			if !ok || !json.Valid(repaired) {
				e.skip(result, path, "JSON file could not be validated or repaired and was skipped")
				continue
			}
			e.logger.Warn("repaired malformed JSON file", zap.String("file", filepath.Base(path)))
			content = repaired
		}
		result.Records = append(result.Records, json.RawMessage(content))
		result.FilesProcessed++
	}

	e.logger.Info("extraction finished",
		zap.Int("processed", result.FilesProcessed),
		zap.Int("failed", result.FilesFailed))
	return result, nil
}

func (e *Extractor) skip(result *ExtractResult, path, reason string) {
	e.logger.Warn("skipping input file", zap.String("file", filepath.Base(path)), zap.String("reason", reason))
	result.FilesFailed++
	e.issues.Record(domain.SeverityCritical, "invalid_json_file", reason, WithRecordID(path))
}

// repairJSON applies the two known truncation fixes seen in real exports:
// a record that ends at a closing array bracket with no final object brace,
// and trailing garbage after the last closing bracket. Only one repair is
// attempted; the caller re-validates.
func repairJSON(content []byte) ([]byte, bool) {
	trimmed := strings.TrimSpace(string(content))
	if strings.HasSuffix(trimmed, "]") {
		return []byte(trimmed + "\n}"), true
	}
	if !strings.HasSuffix(trimmed, "}") {
		if idx := strings.LastIndex(trimmed, "]"); idx >= 0 {
			return []byte(trimmed[:idx+1] + "\n}"), true
		}
	}
	return nil, false
}
