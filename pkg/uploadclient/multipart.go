package uploadclient

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/yourname/ufs/pkg/uploadproto"
)

var ErrInvalidTask = errors.New("invalid task id")

// DeclaredName returns the filename sent to the server: upload.txt, or
// <task>/upload.txt so the server stores it under a per-task subdir.
func DeclaredName(task string) (string, error) {
	if task == "" {
		return uploadproto.DefaultFileName, nil
	}
	if task == "." || task == ".." || strings.ContainsAny(task, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTask, task)
	}

	return task + uploadproto.PathSeparator + uploadproto.DefaultFileName, nil
}

// BuildBody кодирует content как единственное поле "file" multipart/form-data.
// Возвращает тело и значение заголовка Content-Type.
func BuildBody(content []byte, declaredName, boundary string) ([]byte, string, error) {
	var buf bytes.Buffer
	buf.Grow(len(content) + 512)

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("boundary %q: %w", boundary, err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		uploadproto.FieldName, escapeQuotes(declaredName)))
	h.Set("Content-Type", uploadproto.FileContentType)

	pw, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := pw.Write(content); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
