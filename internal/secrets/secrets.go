// internal/secrets/secrets.go
//
// Vault-backed secret resolution for configuration values.
//
// Context
// -------
// Operators keep the database password and the session cookie-signing key
// out of flat files by writing a reference instead of the literal value:
//
//	database:
//	  password: "vault:secret/apikit#db_password"
//
// A reference has the form `vault:<mount>/<path>#<key>` and is resolved
// against a KV-v2 secret engine once, during config load.  Setups without
// Vault simply put plain strings in `.env` or the environment and this
// package is never touched.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – access token (falls back to ~/.vault-token).
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

// refPrefix marks a config value as a Vault reference.
const refPrefix = "vault:"

// IsRef reports whether s is a `vault:` reference.
func IsRef(s string) bool { return strings.HasPrefix(s, refPrefix) }

// Client is a thin wrapper over the Vault SDK.  Construct once during boot
// and resolve every reference through it; it is safe for concurrent use.
type Client struct {
	api *vault.Client
}

// New constructs a Vault client from the standard VAULT_* environment.
func New(_ context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return &Client{api: apiCli}, nil
}

// Resolve turns `vault:<mount>/<path>#<key>` into the plain secret string.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	if !IsRef(ref) {
		return ref, nil
	}

	spec := strings.TrimPrefix(ref, refPrefix)
	pathPart, key, ok := strings.Cut(spec, "#")
	if !ok || key == "" {
		return "", fmt.Errorf("malformed vault reference %q", ref)
	}

	mount, rel := splitMount(pathPart)
	if mount == "" || rel == "" {
		return "", fmt.Errorf("malformed vault path in %q", ref)
	}

	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", pathPart, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, pathPart)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", errors.New("vault value is not a string")
	}
	return sval, nil
}

// splitMount separates the KV mount from the secret path below it.
func splitMount(p string) (mount, rel string) {
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
