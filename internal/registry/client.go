package registry

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// uploadAction is the form action expected by the registry upload endpoint.
	uploadAction = "file_upload"

	// tokenUsername is the basic-auth username registries expect for token auth.
	tokenUsername = "__token__"

	// maxResponseBytes caps how much of an error response is read for diagnostics.
	maxResponseBytes = 4 << 10
)

var (
	// ErrAuthentication is returned when the credential is invalid or expired.
	ErrAuthentication = errors.New("registry authentication failed")
	// ErrUploadConflict is returned when the registry already has the version.
	// It is terminal: re-publishing an existing version is never retried.
	ErrUploadConflict = errors.New("version already exists on registry")
	// errCredentialRequired is returned when uploading without a credential.
	errCredentialRequired = errors.New("upload credential is required")
	// errUnexpectedStatus is returned for registry responses outside the taxonomy.
	errUnexpectedStatus = errors.New("unexpected registry status")
)

// Artifact is a built distributable ready for upload.
type Artifact struct {
	// Name is the package name the artifact belongs to.
	Name string
	// Version is the package version the artifact carries.
	Version string
	// Path is the local filesystem location of the artifact file.
	Path string
	// Checksum is the SHA-512 digest of the artifact contents.
	Checksum []byte
}

// Client uploads artifacts to a package registry.
type Client struct {
	// uploadURL is the registry upload endpoint.
	uploadURL string
	// httpClient performs the upload requests.
	httpClient *http.Client
}

// NewClient creates a registry client for the provided upload endpoint.
func NewClient(uploadURL string, timeout time.Duration) *Client {
	return &Client{
		uploadURL: uploadURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upload publishes the artifact using the provided credential.
// Publication is irreversible: a conflict response means the version is
// already taken and must surface as ErrUploadConflict, never as a retry.
func (c *Client) Upload(ctx context.Context, artifact *Artifact, credential Credential) error {
	if credential.Empty() {
		return errCredentialRequired
	}

	body, contentType, err := encodeUploadForm(artifact)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(tokenUsername, credential.reveal())

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	return classifyUploadResponse(response)
}

// encodeUploadForm builds the multipart form body for the upload request.
func encodeUploadForm(artifact *Artifact) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)

	fields := map[string]string{
		":action":          uploadAction,
		"protocol_version": "1",
		"name":             artifact.Name,
		"version":          artifact.Version,
		"sha512_digest":    hex.EncodeToString(artifact.Checksum),
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("encode upload field %s: %w", key, err)
		}
	}

	file, err := os.Open(filepath.Clean(artifact.Path))
	if err != nil {
		return nil, "", fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	part, err := form.CreateFormFile("content", filepath.Base(artifact.Path))
	if err != nil {
		return nil, "", fmt.Errorf("encode artifact part: %w", err)
	}

	if _, err = io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("encode artifact contents: %w", err)
	}

	if err = form.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize upload form: %w", err)
	}

	return body, form.FormDataContentType(), nil
}

// classifyUploadResponse maps registry responses onto the error taxonomy.
func classifyUploadResponse(response *http.Response) error {
	if response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	details := readResponseDetails(response)

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthentication, response.Status)
	case response.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrUploadConflict, response.Status)
	case response.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(details), "already exists"):
		// Some registries answer 400 with a prose explanation instead of 409.
		return fmt.Errorf("%w: %s", ErrUploadConflict, response.Status)
	default:
		if details != "" {
			return fmt.Errorf("%w: %s: %s", errUnexpectedStatus, response.Status, details)
		}

		return fmt.Errorf("%w: %s", errUnexpectedStatus, response.Status)
	}
}

// readResponseDetails reads a bounded prefix of the response body for diagnostics.
func readResponseDetails(response *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
