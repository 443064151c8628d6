package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"wastedash/internal/config"
	"wastedash/internal/log"
	"wastedash/internal/source"
	"wastedash/internal/source/google"
	"wastedash/internal/source/memory"
	"wastedash/internal/source/s3"
	"wastedash/internal/storage"
)

// DefaultFactory implements Factory for every configured backend.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentSource)}
}

// Create builds the loader for cfg.DataBackend.
func (f *DefaultFactory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var (
		res *Result
		err error
	)
	switch t {
	case config.BackendFile:
		res = &Result{Loader: source.NewFile(cfg.DatasetPath)}
	case config.BackendHTTP:
		res = &Result{Loader: source.NewHTTP(cfg.DatasetBaseURL, cfg.DatasetPath, nil)}
	case config.BackendSheets:
		res, err = f.createSheets(ctx, cfg)
	case config.BackendS3:
		res, err = f.createS3(ctx, cfg)
	case config.BackendSQLite:
		res, err = f.createSQLite(cfg)
	case config.BackendMemory:
		var store *memory.Store
		if store, err = memory.NewFromDir(filepath.Dir(cfg.DatasetPath)); err != nil {
			return nil, fmt.Errorf("create memory backend: %w", err)
		}
		res = &Result{Loader: store}
	}
	if err != nil {
		return nil, err
	}

	res.Source = cfg.SourceName()
	f.logger.Info("Initialized data backend", "backend", t.String(), log.FieldSource, res.Source)
	return res, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg *config.Config) (*Result, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	return &Result{Loader: cli}, nil
}

func (f *DefaultFactory) createS3(ctx context.Context, cfg *config.Config) (*Result, error) {
	obj, err := s3.New(ctx, s3.Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		Key:       cfg.S3Key,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize S3 client: %w", err)
	}
	return &Result{Loader: obj}, nil
}

func (f *DefaultFactory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	return &Result{Loader: repo, Cleanup: repo.Close}, nil
}
