package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: codeiq
  password: s3cret
  name: codeiq
ai:
  model: gpt-4o
  embedDim: 1536
index:
  chunkSize: 1000
  chunkOverlap: 200
auth:
  apiKeys:
    acme: key-one
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 1000, cfg.Index.ChunkSize)
	assert.Equal(t, 200, cfg.Index.ChunkOverlap)
	assert.Equal(t, "key-one", cfg.Auth.APIKeys["acme"])
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("CODEIQ_SERVER_PORT", "8088")
	t.Setenv("CODEIQ_DB_PASSWORD", "from-env")
	t.Setenv("CODEIQ_AI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "sk-env", cfg.AI.APIKey)
	// untouched yaml values survive
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillRate)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"codeiq:s3cret@tcp(db.internal:5432)/codeiq?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
	assert.Equal(t,
		"host=db.internal port=5432 user=codeiq password=s3cret dbname=codeiq sslmode=disable",
		cfg.PostgresDSN())
}
