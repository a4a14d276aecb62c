package vault

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"
	"github.com/mitchellh/mapstructure"
)

// ErrClientInit indicates failure to initialize the Vault API client.
var ErrClientInit = errors.New("vault client initialization failed")

type Client struct {
	api *vault.Client
}

// Secrets are the sensitive settings the job may source from Vault
// instead of plain environment variables.
type Secrets struct {
	APIKey      string `mapstructure:"api_key"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
}

// NewClient creates a Vault client. Address and token fall back to the
// standard VAULT_ADDR / VAULT_TOKEN environment when empty.
func NewClient(address, token string) (*Client, error) {
	apiCfg := vault.DefaultConfig()
	if address != "" {
		apiCfg.Address = address
	}

	api, err := vault.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientInit, err)
	}
	if token != "" {
		api.SetToken(token)
	}

	return &Client{api: api}, nil
}

// ReadSecrets reads the secret at path and decodes the fields this job
// understands. Both KV v1 and v2 response shapes are accepted.
func (c *Client) ReadSecrets(ctx context.Context, path string) (Secrets, error) {
	secret, err := c.api.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return Secrets{}, fmt.Errorf("vault read %q: %w", path, err)
	}
	if secret == nil {
		return Secrets{}, fmt.Errorf("no data found at path: %s", path)
	}

	data := secret.Data
	// KV v2 nests the payload one level down.
	if inner, ok := data["data"].(map[string]any); ok {
		data = inner
	}

	var s Secrets
	if err := mapstructure.Decode(data, &s); err != nil {
		return Secrets{}, fmt.Errorf("decode secret at %q: %w", path, err)
	}
	return s, nil
}
