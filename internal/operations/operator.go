package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/ligouras/locize-backup-docker/internal/config"
	"github.com/ligouras/locize-backup-docker/internal/locize"
	"github.com/ligouras/locize-backup-docker/internal/logger"
	"github.com/ligouras/locize-backup-docker/internal/storage"
	"github.com/ligouras/locize-backup-docker/internal/vault"
)

// uploader is the slice of the storage client the orchestrator needs.
type uploader interface {
	Upload(ctx context.Context, localPath, key, version string) error
	UploadBytes(ctx context.Context, key string, data []byte, version string) error
	Location() string
}

// Operator drives one backup run: gate, fetch, optional upload, summary.
type Operator struct {
	cfg    config.Config
	log    logger.Logger
	client *locize.Client
	store  uploader

	// now is injectable for gate tests.
	now func() time.Time
}

// NewOperator wires the locize client, optional Vault secret sourcing,
// and optional object storage from the configuration.
func NewOperator(cfg config.Config, log logger.Logger) (*Operator, error) {
	if cfg.VaultSecretPath != "" {
		if err := overlayVaultSecrets(&cfg); err != nil {
			return nil, err
		}
	}

	client := locize.New(cfg.ProjectID,
		locize.WithEndpoint(cfg.LocizeEndpoint),
		locize.WithAPIKey(cfg.APIKey),
		locize.WithVersion(cfg.Version),
	)

	op := &Operator{
		cfg:    cfg,
		log:    log,
		client: client,
		now:    time.Now,
	}

	if cfg.RemoteEnabled() {
		store, err := storage.New(storage.Options{
			BucketName:      cfg.BucketName,
			Region:          cfg.Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("storage client init: %w", err)
		}
		op.store = store
	}

	return op, nil
}

func overlayVaultSecrets(cfg *config.Config) error {
	vc, err := vault.NewClient(cfg.VaultAddr, cfg.VaultToken)
	if err != nil {
		return err
	}
	secrets, err := vc.ReadSecrets(context.Background(), cfg.VaultSecretPath)
	if err != nil {
		return fmt.Errorf("vault secrets: %w", err)
	}
	if secrets.APIKey != "" {
		cfg.APIKey = secrets.APIKey
	}
	if secrets.S3AccessKey != "" {
		cfg.S3AccessKey = secrets.S3AccessKey
	}
	if secrets.S3SecretKey != "" {
		cfg.S3SecretKey = secrets.S3SecretKey
	}
	return nil
}
