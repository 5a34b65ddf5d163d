package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docqa/internal/composer"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/pkg/jwtutil"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Burrows [Document 1]."}}]}`))
	}))
	t.Cleanup(llm.Close)

	dir := t.TempDir()
	body := fmt.Sprintf(`
[auth]
jwt_secret = "cli-secret"

[llm]
base_url = %q

[embedding]
backend = "hash"
dimension = 64

[index]
backend = "sql"

[database]
driver = "sqlite"

[sqlite]
path = %q

[redis]
enabled = false

[queue]
driver = "local"
`, llm.URL, filepath.Join(dir, "docqa.db"))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_IngestQueryListDelete(t *testing.T) {
	cfg := writeTestConfig(t)
	file := filepath.Join(t.TempDir(), "gophers.txt")
	require.NoError(t, os.WriteFile(file, []byte("Gophers live in burrows under meadows."), 0o600))

	out, err := run(t, "--config", cfg, "--tenant", "acme", "--json", "ingest", file)
	require.NoError(t, err)
	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, model.StatusReady, doc.Status)
	assert.Equal(t, "gophers.txt", doc.Name)
	assert.Equal(t, 1, doc.ChunkCount)

	out, err = run(t, "--config", cfg, "--tenant", "acme", "--json", "query", "where do gophers live")
	require.NoError(t, err)
	var answer composer.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answer))
	assert.Equal(t, "Burrows [Document 1].", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, doc.ID, answer.Sources[0].DocumentID)

	out, err = run(t, "--config", cfg, "--tenant", "acme", "list")
	require.NoError(t, err)
	assert.Contains(t, out, doc.ID)
	assert.Contains(t, out, "ready")

	out, err = run(t, "--config", cfg, "--tenant", "acme", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:     1")
	assert.Contains(t, out, "hash:64")

	_, err = run(t, "--config", cfg, "--tenant", "acme", "delete", doc.ID)
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "--tenant", "acme", "list")
	require.NoError(t, err)
	assert.Equal(t, "No documents\n", out)
}

func TestCLI_QueryEmptyTenant(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "--config", cfg, "--tenant", "nobody", "query", "anything at all")
	require.NoError(t, err)
	assert.Equal(t, composer.NoContextAnswer, strings.TrimSpace(out))
}

func TestCLI_IngestEmptyFileFails(t *testing.T) {
	cfg := writeTestConfig(t)
	file := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(file, []byte("  \n"), 0o600))

	_, err := run(t, "--config", cfg, "ingest", file)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCLI_Token(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "--config", cfg, "--tenant", "acme", "token", "--subject", "ops")
	require.NoError(t, err)

	claims, err := jwtutil.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, "ops", claims.Subject)
}
