// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for slackzz.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SLACKZZ_MONGO_URI, SLACKZZ_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "slackzz", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "slackzz-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for bearer tokens (blank disables bearer auth)"},
	{Name: "jwt_issuer", Default: "", Desc: "Required iss claim of bearer tokens (blank accepts any)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public URL used in notification links"},
	{Name: "allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated browser origins allowed to call the API"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for realtime notifications (blank disables the stream)"},
	{Name: "meili_url", Default: "", Desc: "Meilisearch URL (blank uses the database scan)"},
	{Name: "meili_api_key", Default: "", Desc: "Meilisearch API key"},

	{Name: "fanout_async", Default: false, Desc: "Deliver mention notifications from a worker pool"},
	{Name: "fanout_workers", Default: 4, Desc: "Fan-out worker count"},
	{Name: "fanout_queue", Default: 256, Desc: "Fan-out queue depth"},

	{Name: "join_ip_limit", Default: 30, Desc: "Join attempts per client IP per window"},
	{Name: "join_user_limit", Default: 10, Desc: "Join attempts per user per window"},
	{Name: "join_window", Default: "10m", Desc: "Join attempt window"},

	{Name: "timeout_short", Default: "", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "", Desc: "Deadline for list queries and multi-step writes"},
	{Name: "timeout_long", Default: "", Desc: "Deadline for cascading deletes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SLACKZZ", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),

		BaseURL:        appValues.String("base_url"),
		AllowedOrigins: splitList(appValues.String("allowed_origins")),

		RedisURL:    appValues.String("redis_url"),
		MeiliURL:    appValues.String("meili_url"),
		MeiliAPIKey: appValues.String("meili_api_key"),

		FanoutAsync:   appValues.Bool("fanout_async"),
		FanoutWorkers: appValues.Int("fanout_workers"),
		FanoutQueue:   appValues.Int("fanout_queue"),

		JoinIPLimit:   appValues.Int("join_ip_limit"),
		JoinUserLimit: appValues.Int("join_user_limit"),
		JoinWindow:    appValues.Duration("join_window", 10*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	u, err := url.Parse(appCfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", appCfg.BaseURL)
	}

	if appCfg.JWTSecret != "" && len(appCfg.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return errors.New("session_key must be set in production")
	}

	if appCfg.FanoutAsync && (appCfg.FanoutWorkers <= 0 || appCfg.FanoutQueue <= 0) {
		return errors.New("fanout_async requires positive fanout_workers and fanout_queue")
	}

	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
