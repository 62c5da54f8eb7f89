package uploadhttp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
)

// healthStats is the /health payload.
type healthStats struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	MetricsSnapshot
}

// health возвращает размер сохранённых файлов и счётчики загрузок.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	var total int64
	// Незавершённые .part-файлы не считаем.
	err := filepath.WalkDir(a.root.String(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || isStaging(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()

		return nil
	})

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.requestLogger(r).WithError(err).Error("health walk failed")
		http.Error(w, "store failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(healthStats{
		OK:              true,
		TotalBytes:      total,
		MetricsSnapshot: a.metrics.Snapshot(),
	})

	if err != nil {
		a.requestLogger(r).WithError(err).Warn("health encode failed")
	}
}
