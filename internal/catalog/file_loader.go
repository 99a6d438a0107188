package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileLoader reads catalog files from a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader rooted at dir. Names must stay inside dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, name string) ([]Record, error) {
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%w: %q is outside the catalog directory", ErrNotFound, name)
	}

	path := filepath.Join(l.dir, name)
	l.logger.Info().Str("file", path).Msg("loading catalog file")

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalog file")
		return nil, fmt.Errorf("failed to open catalog file %s: %w", name, err)
	}
	defer file.Close()

	records, err := Decode(ctx, file)
	if err != nil {
		l.logger.Warn().Err(err).Str("file", path).Msg("failed to read catalog file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("records", len(records)).
		Msg("catalog file loaded")

	return records, nil
}
