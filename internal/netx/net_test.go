package netx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMultipartBody(t *testing.T) {
	var gotFields map[string]string
	var gotFile string
	var gotName string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
			return
		}
		gotFields = map[string]string{"a": r.FormValue("a"), "b": r.FormValue("b")}
		f, h, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotFile = string(b)
		gotName = h.Filename
	}))
	defer ts.Close()

	body, ct, err := MultipartBody(map[string]string{"b": "2", "a": "1"}, "file", "blob", []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
		t.Fatalf("content type = %q", ct)
	}

	resp, err := http.Post(ts.URL, ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	Drain(resp)

	if gotFields["a"] != "1" || gotFields["b"] != "2" {
		t.Fatalf("fields = %v", gotFields)
	}
	if gotFile != "payload" || gotName != "blob" {
		t.Fatalf("file = %q name = %q", gotFile, gotName)
	}
}

func TestReadMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json string", body: `"Chunk too big"` + "\n", want: "Chunk too big"},
		{name: "plain text", body: "  oops \n", want: "oops"},
		{name: "json object", body: `{"a":1}`, want: `{"a":1}`},
		{name: "empty", body: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Body: io.NopCloser(strings.NewReader(tt.body))}
			if got := ReadMessage(resp); got != tt.want {
				t.Fatalf("ReadMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
