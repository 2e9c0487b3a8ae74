// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody caps ordinary JSON request bodies.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxMessageBody caps message submissions, whose rich-text document may
	// carry inline embeds.
	MaxMessageBody = 1 << 20 // 1 MB
)
