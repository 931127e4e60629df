package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/client/models"
	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/netx"
)

// Form fields of the upload protocol.
const (
	fieldFilename     = "resumableFilename"
	fieldRelativePath = "resumableRelativePath"
	fieldChunkNumber  = "resumableChunkNumber"
	fieldTotalChunks  = "resumableTotalChunks"
	fieldTotalSize    = "resumableTotalSize"
	fieldIdentifier   = "resumableIdentifier"
	fieldFile         = "file"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *HTTPClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// Login exchanges credentials for an access token and keeps it for later
// requests.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer netx.Drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	c.SetAccessToken(out.AccessToken)
	return out.AccessToken, nil
}

func refFields(ref models.ChunkRef) map[string]string {
	return map[string]string{
		fieldIdentifier:   ref.Identifier,
		fieldFilename:     ref.Filename,
		fieldRelativePath: ref.RelativePath,
		fieldChunkNumber:  strconv.Itoa(ref.Index),
		fieldTotalChunks:  strconv.Itoa(ref.TotalChunks),
		fieldTotalSize:    strconv.FormatInt(ref.TotalSize, 10),
	}
}

// Probe asks whether the chunk is already staged on the server.
func (c *HTTPClient) Probe(ctx context.Context, ref models.ChunkRef) (bool, error) {
	q := url.Values{}
	for k, v := range refFields(ref) {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/upload?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer netx.Drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNoContent:
		return false, nil
	}
	return false, statusError(resp)
}

// SendChunk uploads one chunk.
func (c *HTTPClient) SendChunk(ctx context.Context, ref models.ChunkRef, data []byte) (models.ChunkStatus, error) {
	body, contentType, err := netx.MultipartBody(refFields(ref), fieldFile, "blob", data)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer netx.Drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	switch msg := models.ChunkStatus(netx.ReadMessage(resp)); msg {
	case models.ChunkUploaded, models.ChunkStored:
		return msg, nil
	default:
		return "", fmt.Errorf("unexpected upload response %q", msg)
	}
}

// statusError maps a non-success response onto the shared sentinels.
func statusError(resp *http.Response) error {
	msg := netx.ReadMessage(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnprocessableEntity:
		if msg == "Chunk too big" {
			return common.ErrTooBig
		}
		return fmt.Errorf("%w: %s", common.ErrBadFile, msg)
	case http.StatusInternalServerError:
		if msg == "Error storing file" {
			return common.ErrStorageFailure
		}
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s %s", ErrUnavailable, resp.Status, msg)
	}
	return fmt.Errorf("unexpected response: %s %s", resp.Status, msg)
}
