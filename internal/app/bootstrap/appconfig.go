// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for slackzz.
//
// Values come from environment variables (SLACKZZ_*), config files, or
// command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig covers the
// framework side: ports, TLS, logging level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie written by the identity provider
	SessionKey    string        // signing key shared with the identity provider
	SessionName   string        // cookie name (default: slackzz-session)
	SessionDomain string        // cookie domain (blank means current host)
	SessionMaxAge time.Duration // cookie lifetime

	// Bearer tokens. Blank JWTSecret disables bearer authentication.
	JWTSecret string
	JWTIssuer string

	// BaseURL prefixes the message links stored in notifications,
	// e.g. "https://chat.example.com".
	BaseURL string

	// Browser origins allowed to call the API and open the stream.
	AllowedOrigins []string

	// Optional backends. Blank disables the feature.
	RedisURL    string // realtime notification bus
	MeiliURL    string // message search engine
	MeiliAPIKey string

	// Mention fan-out. When FanoutAsync is set, notifications are written by
	// a worker pool after the message is stored.
	FanoutAsync   bool
	FanoutWorkers int
	FanoutQueue   int

	// Join-code guessing limits
	JoinIPLimit   int
	JoinUserLimit int
	JoinWindow    time.Duration

	// Operation deadlines (zero keeps the built-in default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
