// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxUpload is the maximum size of a room file upload, multipart
	// framing included.
	MaxUpload = 25 << 20 // 25 MB
)
