// Package uploadhttp реализует HTTP-интерфейс сервера загрузки поверх локального каталога.
// Эндпоинты:
//   - POST / принимает multipart/form-data, первое поле сохраняется как fs_root/<subdir>/<name>.
//   - GET /health отдаёт размер каталога и счётчики загрузок.
//
// Остальные методы на / получают 405.
package uploadhttp
