// Package uploadproto описывает протокол HTTP-загрузки между клиентом ufs и сервером.
package uploadproto

// Параметры multipart-протокола загрузки.
const (
	// UploadPath is the only path accepting uploads.
	UploadPath = "/"

	FieldName       = "file"
	DefaultFileName = "upload.txt"
	FileContentType = "text/plain"

	// PathSeparator splits a declared filename into subdir and name.
	PathSeparator = "/"

	// DefaultBoundary is used when the caller does not supply one.
	DefaultBoundary = "ufs-upload-boundary-7MA4YWxkTrZu0gW"

	HeaderRequestID = "X-Request-Id"
)
