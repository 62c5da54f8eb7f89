package uploadhttp

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StartGC периодически удаляет брошенные .part-файлы старше ttl.
// Возвращает функцию остановки; повторный вызов безопасен.
func StartGC(root string, ttl, every time.Duration, log logrus.FieldLogger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := SweepStaging(root, ttl)
				if err != nil {
					log.WithError(err).Warn("staging sweep failed")
				} else if n > 0 {
					log.WithField("removed", n).Info("staging sweep")
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// SweepStaging removes staging files under root whose mtime is older than ttl.
// Staging files live at most one directory below root.
func SweepStaging(root string, ttl time.Duration) (int, error) {
	root = filepath.Clean(root)
	now := time.Now()
	removed := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && filepath.Dir(path) != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isStaging(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) < ttl {
			return nil
		}

		if err := os.Remove(path); err == nil {
			removed++
		}
		return nil
	})

	return removed, err
}
