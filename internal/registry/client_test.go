package registry

import (
	"context"
	"crypto/sha512"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeArtifact creates a small artifact file with its checksum.
func writeArtifact(t *testing.T) *Artifact {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docstring-helper-2.0.0.tar.gz")
	contents := []byte("artifact contents")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	checksum := sha512.Sum512(contents)

	return &Artifact{
		Name:     "docstring-helper",
		Version:  "2.0.0",
		Path:     path,
		Checksum: checksum[:],
	}
}

// TestClient_Upload sends the multipart form and authenticates with the token.
func TestClient_Upload(t *testing.T) {
	t.Parallel()

	var (
		gotUser, gotToken string
		gotName           string
		gotVersion        string
		gotFile           []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotToken, _ = r.BasicAuth()

		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotName = r.FormValue("name")
		gotVersion = r.FormValue("version")

		file, _, err := r.FormFile("content")
		require.NoError(t, err)

		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	credential := NewCredential("pypi-test-token-value")

	err := client.Upload(context.Background(), writeArtifact(t), credential)
	require.NoError(t, err)
	require.Equal(t, "__token__", gotUser)
	require.Equal(t, "pypi-test-token-value", gotToken)
	require.Equal(t, "docstring-helper", gotName)
	require.Equal(t, "2.0.0", gotVersion)
	require.Equal(t, "artifact contents", string(gotFile))
}

// TestClient_UploadConflict surfaces duplicate versions as ErrUploadConflict.
func TestClient_UploadConflict(t *testing.T) {
	t.Parallel()

	// Plain 409.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	credential := NewCredential("pypi-conflict-token")

	err := client.Upload(context.Background(), writeArtifact(t), credential)
	require.ErrorIs(t, err, ErrUploadConflict)

	// 400 with prose body.
	proseServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("File already exists. See /help/#file-name-reuse"))
	}))
	defer proseServer.Close()

	client = NewClient(proseServer.URL, 5*time.Second)

	err = client.Upload(context.Background(), writeArtifact(t), credential)
	require.ErrorIs(t, err, ErrUploadConflict)
}

// TestClient_UploadAuthentication surfaces rejected credentials as ErrAuthentication.
func TestClient_UploadAuthentication(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	err := client.Upload(context.Background(), writeArtifact(t), NewCredential("pypi-expired-token"))
	require.ErrorIs(t, err, ErrAuthentication)
}

// TestClient_UploadRequiresCredential refuses to upload without a token.
func TestClient_UploadRequiresCredential(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:0", time.Second)

	err := client.Upload(context.Background(), writeArtifact(t), Credential{})
	require.Error(t, err)
}

// TestCredential_NeverPrintsValue masks the token in every printable form.
func TestCredential_NeverPrintsValue(t *testing.T) {
	t.Parallel()

	const secret = "pypi-super-secret-value"

	credential := NewCredential(secret)

	printed := fmt.Sprintf("%s %v %#v %+v", credential, credential, credential, credential)
	require.NotContains(t, printed, secret)
}
