package uploadhttp

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/yourname/ufs/internal/fsroot"
)

func newTestHandler(t *testing.T) (http.Handler, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := fsroot.Validate(dir)
	if err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	return New(root, log), dir
}

// multipartBody builds a body with one field. An empty filename omits it from
// Content-Disposition.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	if filename != "" {
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	} else {
		h.Set("Content-Disposition", `form-data; name="file"`)
	}
	h.Set("Content-Type", "text/plain")
	pw, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	return &buf, mw.FormDataContentType()
}

func doUpload(h http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()

	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestUpload_StoresUnderSubdir(t *testing.T) {
	h, dir := newTestHandler(t)
	content := []byte("hello ufs\n")

	body, ct := multipartBody(t, "sub/name.txt", content)
	rr := doUpload(h, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}

	got, err := os.ReadFile(filepath.Join(dir, "sub", "name.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("stored %q, want %q", got, content)
	}
	if files := listFiles(t, dir); len(files) != 1 {
		t.Fatalf("expected one file, got %v", files)
	}
}

func TestUpload_NoSeparatorGoesToRoot(t *testing.T) {
	h, dir := newTestHandler(t)

	body, ct := multipartBody(t, "upload.txt", []byte("x"))
	if rr := doUpload(h, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "upload.txt")); err != nil {
		t.Fatal(err)
	}
}

func TestUpload_OverwritesExisting(t *testing.T) {
	h, dir := newTestHandler(t)

	for _, c := range []string{"first version, longer", "second"} {
		body, ct := multipartBody(t, "t/f.txt", []byte(c))
		if rr := doUpload(h, body, ct); rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}

	got, err := os.ReadFile(filepath.Join(dir, "t", "f.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("stored %q, want last upload", got)
	}
}

func TestUpload_LargerThanChunk(t *testing.T) {
	h, dir := newTestHandler(t)
	content := bytes.Repeat([]byte{0xA1, 0xB2, 0xC3, 0xD4}, 3*chunkSize/4+17)

	body, ct := multipartBody(t, "big/blob.bin", content)
	if rr := doUpload(h, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	got, err := os.ReadFile(filepath.Join(dir, "big", "blob.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("stored %d bytes, want %d", len(got), len(content))
	}
}

func TestUpload_TaskPathKeepsFirstAndLast(t *testing.T) {
	h, dir := newTestHandler(t)

	body, ct := multipartBody(t, "taskid-uuid-123123/home/user/workdir/project/config/default.toml", []byte("k = 1\n"))
	if rr := doUpload(h, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "taskid-uuid-123123", "default.toml")); err != nil {
		t.Fatal(err)
	}
}

func TestUpload_MethodNotAllowed(t *testing.T) {
	h, dir := newTestHandler(t)

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodHead, http.MethodDelete} {
		t.Run(m, func(t *testing.T) {
			body, ct := multipartBody(t, "a/b.txt", []byte("x"))
			req := httptest.NewRequest(m, "/", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("%s / = %d, want 405", m, rr.Code)
			}
		})
	}

	if files := listFiles(t, dir); len(files) != 0 {
		t.Fatalf("nothing should be written, got %v", files)
	}
}

func TestUpload_BadRequests(t *testing.T) {
	emptyBody := func(t *testing.T) (io.Reader, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.Close()
		return &buf, mw.FormDataContentType()
	}

	tests := []struct {
		name string
		body func(t *testing.T) (io.Reader, string)
		msg  string
	}{
		{"no content type", func(t *testing.T) (io.Reader, string) {
			return strings.NewReader("raw"), ""
		}, "bad multipart"},
		{"not multipart", func(t *testing.T) (io.Reader, string) {
			return strings.NewReader("{}"), "application/json"
		}, "bad multipart"},
		{"no fields", emptyBody, "missing field"},
		{"empty field", func(t *testing.T) (io.Reader, string) {
			return multipartBody(t, "sub/empty.txt", nil)
		}, "empty field"},
		{"no filename", func(t *testing.T) (io.Reader, string) {
			return multipartBody(t, "", []byte("x"))
		}, "missing filename"},
		{"traversal", func(t *testing.T) (io.Reader, string) {
			return multipartBody(t, "../escape.txt", []byte("x"))
		}, "invalid path"},
		{"dot name", func(t *testing.T) (io.Reader, string) {
			return multipartBody(t, "sub/..", []byte("x"))
		}, "invalid path"},
		{"reserved staging name", func(t *testing.T) (io.Reader, string) {
			return multipartBody(t, "sub/"+stagingName("x.txt"), []byte("x"))
		}, "invalid path"},
		{"malformed disposition", func(t *testing.T) (io.Reader, string) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", `form-data; name="file"; filename="sub/unterminated`)
			pw, err := mw.CreatePart(h)
			if err != nil {
				t.Fatal(err)
			}
			_, _ = pw.Write([]byte("x"))
			_ = mw.Close()
			return &buf, mw.FormDataContentType()
		}, "bad multipart"},
		{"truncated", func(t *testing.T) (io.Reader, string) {
			b, ct := multipartBody(t, "sub/cut.txt", bytes.Repeat([]byte("z"), 100))
			return bytes.NewReader(b.Bytes()[:b.Len()-60]), ct
		}, "bad multipart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dir := newTestHandler(t)
			body, ct := tt.body(t)

			rr := doUpload(h, body, ct)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%q, want 400", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.msg) {
				t.Fatalf("body %q does not mention %q", rr.Body.String(), tt.msg)
			}
			if files := listFiles(t, dir); len(files) != 0 {
				t.Fatalf("nothing should be written, got %v", files)
			}
		})
	}
}

func TestUpload_StoreFailure(t *testing.T) {
	h, dir := newTestHandler(t)
	// a regular file where the subdir should go
	if err := os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	body, ct := multipartBody(t, "blocked/name.txt", []byte("payload"))
	rr := doUpload(h, body, ct)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "store failed" {
		t.Fatalf("body = %q", rr.Body.String())
	}

	// the server keeps serving after a store failure
	body, ct = multipartBody(t, "ok/name.txt", []byte("payload"))
	if rr := doUpload(h, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("follow-up status = %d", rr.Code)
	}
}

func TestUpload_RequestIDEchoed(t *testing.T) {
	h, _ := newTestHandler(t)

	body, ct := multipartBody(t, "a/b.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Request-Id", "rid-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "rid-42" {
		t.Fatalf("X-Request-Id = %q", got)
	}
}

func TestSplitDeclaredName(t *testing.T) {
	tests := []struct {
		in, subdir, name string
	}{
		{"taskid-uuid-123123/home/user/workdir/project/config/default.toml", "taskid-uuid-123123", "default.toml"},
		{"task/upload.txt", "task", "upload.txt"},
		{"upload.txt", "", "upload.txt"},
		{"/abs.txt", "", "abs.txt"},
		{"dir/", "dir", ""},
	}

	for _, tt := range tests {
		subdir, name := splitDeclaredName(tt.in)
		if subdir != tt.subdir || name != tt.name {
			t.Fatalf("splitDeclaredName(%q) = (%q, %q), want (%q, %q)", tt.in, subdir, name, tt.subdir, tt.name)
		}
	}
}
