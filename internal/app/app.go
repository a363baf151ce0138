package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/config"
	"github.com/newthinker/recstore/internal/items/calibration"
	"github.com/newthinker/recstore/internal/items/reference"
	"github.com/newthinker/recstore/internal/metrics"
	"github.com/newthinker/recstore/internal/plugin"
	"github.com/newthinker/recstore/internal/storage"
	"github.com/newthinker/recstore/internal/storage/archive"
	"github.com/newthinker/recstore/internal/storage/codec"
	"github.com/newthinker/recstore/internal/storage/single"
)

// App wires configuration into backends, codecs and storages.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	codec   codec.Codec
	metrics *metrics.Registry
	s3      *archive.S3Storage
}

// New creates a new App instance
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := codec.ByName(cfg.Storage.Codec)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		codec:  c,
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	if cfg.Storage.Backend == "s3" {
		s3cfg := cfg.Storage.S3
		a.s3, err = archive.NewS3(archive.S3Config{
			Bucket:    s3cfg.Bucket,
			Endpoint:  s3cfg.Endpoint,
			Region:    s3cfg.Region,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			Prefix:    s3cfg.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 backend: %w", err)
		}
	}

	return a, nil
}

// Metrics returns the registry, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Codec returns the configured codec.
func (a *App) Codec() codec.Codec {
	return a.codec
}

// Backend returns the object backend holding the files of recording recDir.
// On S3 a recording lives under its absolute directory path.
func (a *App) Backend(recDir string) archive.Storage {
	if a.s3 != nil {
		return a.s3.WithPrefix(recordingPrefix(recDir))
	}
	return archive.NewLocalFS(recDir)
}

func recordingPrefix(recDir string) string {
	p, err := filepath.Abs(recDir)
	if err != nil {
		p = filepath.Clean(recDir)
	}
	return strings.Trim(filepath.ToSlash(p), "/")
}

// StorageConfig returns the single-file storage settings for recDir.
func (a *App) StorageConfig(recDir string) single.Config {
	return single.Config{
		RecDir:  recDir,
		Backend: a.Backend(recDir),
		Codec:   a.codec,
		Logger:  a.logger,
		Metrics: a.metrics,
	}
}

// Recording holds the storages of one opened recording. Closing it fires the
// cleanup event, persisting every storage once.
type Recording struct {
	Dir          string
	UUID         string
	References   *reference.Storage
	Calibrations *calibration.Storage

	host *plugin.Plugin
}

// OpenRecording creates and loads the storages of recording recDir.
func (a *App) OpenRecording(ctx context.Context, recDir, recordingUUID string) (*Recording, error) {
	host := plugin.New("offline_data", a.logger)
	cfg := a.StorageConfig(recDir)

	refs, err := reference.NewStorage(ctx, cfg, host)
	if err != nil {
		return nil, fmt.Errorf("opening reference locations: %w", err)
	}
	cals, err := calibration.NewStorage(ctx, cfg, recordingUUID, host)
	if err != nil {
		return nil, fmt.Errorf("opening calibrations: %w", err)
	}

	a.logger.Info("recording opened",
		zap.String("rec_dir", recDir),
		zap.Int("reference_locations", refs.Len()),
		zap.Int("calibrations", cals.Len()),
	)

	return &Recording{
		Dir:          recDir,
		UUID:         recordingUUID,
		References:   refs,
		Calibrations: cals,
		host:         host,
	}, nil
}

// Close persists all storages of the recording.
func (r *Recording) Close(ctx context.Context) error {
	return r.host.Cleanup(ctx)
}

// Envelope returns a reader for a storage file of recDir without binding it
// to an item type. The CLI uses it to inspect and purge files.
func (a *App) Envelope(recDir string, version int) *storage.Envelope {
	return storage.NewEnvelope(a.Backend(recDir), a.codec, version, recDir, a.logger)
}
