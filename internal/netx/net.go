// Package netx holds small HTTP helpers shared by the CLI transports.
package netx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
)

// maxMessage caps how much of an error body is kept.
const maxMessage = 4 << 10

// MultipartBody encodes fields (in key order) followed by one file part.
// It returns the body and its Content-Type header value.
func MultipartBody(fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("field %s: %w", k, err)
		}
	}

	fw, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}

// ReadMessage returns the response body as text. A body holding a JSON
// string is unquoted, so `"Stored"` reads as Stored.
func ReadMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessage))

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(b))
}

// Drain discards the rest of the body and closes it so the connection
// can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxMessage))
	_ = resp.Body.Close()
}
