package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"CardPull/internal/domain/models"
	domrepo "CardPull/internal/domain/repository"
	applogger "CardPull/pkg/logger"
)

const bundleFileName = "forecast_bundle.json"

// FSArtifacts stores the model bundle as a JSON file on local disk.
// Save writes to a temp file first and renames it into place so a
// predict run can never observe a half-written bundle.
type FSArtifacts struct {
	dir string
	l   *applogger.Logger
}

func NewFSArtifacts(dir string) *FSArtifacts {
	return &FSArtifacts{dir: dir}
}

// SetLogger injects a structured logger.
func (a *FSArtifacts) SetLogger(l *applogger.Logger) { a.l = l }

// Path returns the bundle file location.
func (a *FSArtifacts) Path() string {
	return filepath.Join(a.dir, bundleFileName)
}

func (a *FSArtifacts) Save(ctx context.Context, bundle *models.ModelBundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	tmp, err := os.CreateTemp(a.dir, bundleFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmpName, a.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish bundle: %w", err)
	}

	if a.l != nil {
		a.l.Info("artifact saved",
			applogger.String("path", a.Path()),
			applogger.Int("bytes", len(data)),
			applogger.Int("tiers", len(bundle.Tiers)),
		)
	}
	return nil
}

func (a *FSArtifacts) Load(ctx context.Context) (*models.ModelBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.Path())
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var bundle models.ModelBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if len(bundle.NumCols) == 0 || len(bundle.CatCols) == 0 {
		return nil, fmt.Errorf("bundle %s has empty feature schema", a.Path())
	}
	return &bundle, nil
}

var _ domrepo.ArtifactStore = (*FSArtifacts)(nil)
