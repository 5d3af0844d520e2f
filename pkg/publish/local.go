package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Local writes documents under a data directory, one subdirectory per
// category. Serves as the on-disk archive next to the GitHub copy.
type Local struct {
	dir    string
	logger *zap.Logger
}

// NewLocal creates a local publisher rooted at dir.
func NewLocal(dir string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{dir: dir, logger: logger}
}

// Publish writes <dir>/<category>/<date>.md, creating directories as needed.
// Returns the path written.
func (l *Local) Publish(category, content string, date time.Time) (string, error) {
	dir := filepath.Join(l.dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("local publish: %w", err)
	}

	path := filepath.Join(dir, date.Format("2006-01-02")+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("local publish: %w", err)
	}

	l.logger.Info("document saved", zap.String("path", path))
	return path, nil
}
