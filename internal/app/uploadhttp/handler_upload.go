package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourname/ufs/internal/models"
	"github.com/yourname/ufs/pkg/httperrors"
	"github.com/yourname/ufs/pkg/uploadproto"
)

// chunkSize bounds the first read from the field.
const chunkSize = 32 << 10

// upload принимает первое поле multipart-запроса и сохраняет его на диск.
func (a *Server) upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := a.requestLogger(r)

	stored, err := a.receive(r)
	if err != nil {
		a.metrics.RecordUploadError()
		entry := log.WithError(err)
		if httperrors.Status(err) == http.StatusInternalServerError {
			entry.Error("upload failed")
		} else {
			entry.Warn("upload rejected")
		}
		httperrors.Write(w, err)
		return
	}

	a.metrics.RecordUpload(stored.Size, time.Since(start))
	log.WithFields(logrus.Fields{
		"path":  stored.Path(),
		"bytes": stored.Size,
	}).Info("upload stored")

	w.WriteHeader(http.StatusOK)
}

// receive stores the first field of the request. The first failing step
// decides the returned error.
func (a *Server) receive(r *http.Request) (models.StoredFile, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("%w: %v", models.ErrBadMultipart, err)
	}

	part, err := mr.NextPart()
	if errors.Is(err, io.EOF) {
		return models.StoredFile{}, models.ErrMissingField
	}
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("%w: %v", models.ErrBadMultipart, err)
	}
	defer part.Close()

	field, err := fieldOf(part)
	if err != nil {
		return models.StoredFile{}, err
	}
	if !field.HasFileName {
		return models.StoredFile{}, fmt.Errorf("%w: field %q", models.ErrMissingName, field.Name)
	}

	subdir, name := splitDeclaredName(field.FileName)
	if _, err := a.root.Join(subdir, name); err != nil {
		return models.StoredFile{}, err
	}
	// staging names are swept by the GC
	if isStaging(name) {
		return models.StoredFile{}, fmt.Errorf("%w: reserved name %q", models.ErrInvalidPath, name)
	}

	body := partReader{r: part}
	first := make([]byte, chunkSize)
	n, err := io.ReadFull(body, first)
	switch {
	case errors.Is(err, io.EOF):
		return models.StoredFile{}, models.ErrEmptyField
	case err != nil && !errors.Is(err, io.ErrUnexpectedEOF):
		return models.StoredFile{}, err
	}

	dst := models.StoredFile{Root: a.root.String(), Subdir: subdir, Name: name}
	size, err := persist(dst, first[:n], body)
	if err != nil {
		return models.StoredFile{}, err
	}
	dst.Size = size

	return dst, nil
}

// fieldOf reads the raw Content-Disposition; multipart.Part.FileName strips
// directories, and the subdir segment is needed here. A part without the
// header has no filename; an unparsable header is a bad multipart body.
func fieldOf(p *multipart.Part) (models.UploadField, error) {
	f := models.UploadField{Name: p.FormName()}

	cd := p.Header.Get("Content-Disposition")
	if cd == "" {
		return f, nil
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return f, fmt.Errorf("%w: content-disposition: %v", models.ErrBadMultipart, err)
	}
	if v, ok := params["filename"]; ok && v != "" {
		f.FileName = v
		f.HasFileName = true
	}

	return f, nil
}

// splitDeclaredName: первый сегмент это подкаталог, последний это имя файла.
// Средние сегменты отбрасываются. Без разделителя подкаталог пустой.
func splitDeclaredName(declared string) (subdir, name string) {
	segs := strings.Split(declared, uploadproto.PathSeparator)
	if len(segs) == 1 {
		return "", segs[0]
	}

	return segs[0], segs[len(segs)-1]
}

// partReader tags body read failures so they map to 400 rather than 500.
type partReader struct {
	r io.Reader
}

func (p partReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", models.ErrBadMultipart, err)
	}
	return n, err
}
