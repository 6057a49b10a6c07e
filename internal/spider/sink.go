package spider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ResultSink persists crawl results as pretty-printed JSON. Field names in
// the output are stable; there is no schema versioning.
type ResultSink struct {
	path   string
	logger *zap.Logger
}

// NewResultSink returns a sink writing to path.
func NewResultSink(path string, logger *zap.Logger) *ResultSink {
	return &ResultSink{path: path, logger: logger}
}

// Save writes the flat paper list to the sink's path.
func (s *ResultSink) Save(papers []Paper) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	payload, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write results %s: %w", s.path, err)
	}
	s.logger.Info("Results saved", zap.String("path", s.path), zap.Int("papers", len(papers)))
	return nil
}

// LogResults writes a numbered, human-readable summary of the crawled
// papers. Long abstracts are truncated for the console.
func LogResults(logger *zap.Logger, papers []Paper) {
	for i, paper := range papers {
		fields := []zap.Field{
			zap.Int("n", i+1),
			zap.String("title", paper.Title),
			zap.Int("year", paper.Year),
			zap.Int("issue", paper.Issue),
			zap.String("author", paper.Author),
			zap.String("pages", paper.Pages),
		}
		if paper.Abstract != nil && *paper.Abstract != "" {
			fields = append(fields, zap.String("abstract", truncateRunes(*paper.Abstract, 200)))
		}
		if paper.Keywords != "" {
			fields = append(fields, zap.String("keywords", paper.Keywords))
		}
		logger.Info("Paper", fields...)
	}
}
