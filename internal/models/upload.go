package models

import "path/filepath"

// UploadField описывает первое поле multipart-запроса. Живёт только в рамках запроса.
type UploadField struct {
	Name        string
	FileName    string
	HasFileName bool
}

// StoredFile описывает успешно сохранённый файл Root/Subdir/Name.
type StoredFile struct {
	Root   string
	Subdir string
	Name   string
	Size   int64
}

// Path возвращает полный путь до сохранённого файла.
func (f StoredFile) Path() string {
	return filepath.Join(f.Root, f.Subdir, f.Name)
}
