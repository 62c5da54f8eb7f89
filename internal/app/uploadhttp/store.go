package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourname/ufs/internal/models"
)

const stagingSuffix = ".part"

// stagingName returns a hidden per-request name next to the target.
func stagingName(name string) string {
	return "." + name + "." + uuid.NewString() + stagingSuffix
}

// isStaging matches only names produced by stagingName: .<name>.<uuid>.part.
func isStaging(name string) bool {
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, stagingSuffix) {
		return false
	}

	core := strings.TrimSuffix(name[1:], stagingSuffix)
	i := strings.LastIndexByte(core, '.')
	if i <= 0 {
		return false
	}
	id := core[i+1:]
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// persist пишет first и остаток src во временный файл и переименовывает его в цель.
// При ошибке временный файл удаляется, цель остаётся прежней.
func persist(dst models.StoredFile, first []byte, src io.Reader) (int64, error) {
	dir := filepath.Join(dst.Root, dst.Subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, stagingName(dst.Name))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	n, err := writeAll(f, first, src)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", tmp, cerr)
	}
	if err == nil {
		if rerr := os.Rename(tmp, dst.Path()); rerr != nil {
			err = fmt.Errorf("rename %s: %w", dst.Path(), rerr)
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	return n, nil
}

func writeAll(f *os.File, first []byte, src io.Reader) (int64, error) {
	n, err := f.Write(first)
	if err != nil {
		return int64(n), fmt.Errorf("write %s: %w", f.Name(), err)
	}

	m, err := io.Copy(f, src)
	total := int64(n) + m
	if err != nil {
		if errors.Is(err, models.ErrBadMultipart) {
			return total, err
		}
		return total, fmt.Errorf("write %s: %w", f.Name(), err)
	}

	return total, nil
}
