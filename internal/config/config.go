package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

const (
	defaultDBHost  = "programmingproject.e8odsjn.mongodb.net"
	defaultAppName = "ProgrammingProject"
)

var (
	ErrMissingMongoURI   = errors.New("MONGO_URI or DB_USER and DB_PASS must be set")
	ErrMissingProjectID  = errors.New("FIREBASE_PROJECT_ID or FB_SERVICE_KEY must be set")
	ErrInvalidServiceKey = errors.New("invalid FB_SERVICE_KEY")
)

// Config holds all service configuration loaded from flags and environment variables.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	ProjectID      string
	LogFormat      string
	LogLevel       string
	AllowedOrigins []string
}

// NewViper returns a viper instance that resolves keys from the environment
// and carries the defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("mongo-db", "foodNest")
	v.SetDefault("db-host", defaultDBHost)
	v.SetDefault("log-format", "json")
	v.SetDefault("log-level", "info")
	v.SetDefault("cors-allowed-origins", "*")
}

// Load reads the configuration from v. Keys are kebab-case; with
// AutomaticEnv and a "-" to "_" replacer they map to PORT, MONGO_URI,
// DB_USER, FB_SERVICE_KEY and so on.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("port"),
		MongoURI:       v.GetString("mongo-uri"),
		MongoDB:        v.GetString("mongo-db"),
		ProjectID:      v.GetString("firebase-project-id"),
		LogFormat:      v.GetString("log-format"),
		LogLevel:       v.GetString("log-level"),
		AllowedOrigins: splitList(v.GetString("cors-allowed-origins")),
	}

	if cfg.MongoURI == "" {
		user, pass := v.GetString("db-user"), v.GetString("db-pass")
		if user == "" || pass == "" {
			return nil, ErrMissingMongoURI
		}
		cfg.MongoURI = BuildMongoURI(user, pass, v.GetString("db-host"))
	}

	if cfg.ProjectID == "" {
		key := v.GetString("fb-service-key")
		if key == "" {
			return nil, ErrMissingProjectID
		}
		pid, err := ProjectIDFromServiceKey(key)
		if err != nil {
			return nil, err
		}
		cfg.ProjectID = pid
	}

	return cfg, nil
}

// BuildMongoURI assembles an Atlas SRV connection string.
func BuildMongoURI(user, pass, host string) string {
	q := url.Values{}
	q.Set("retryWrites", "true")
	q.Set("w", "majority")
	q.Set("appName", defaultAppName)

	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ProjectIDFromServiceKey decodes a base64 service-account JSON document and
// returns its project_id.
func ProjectIDFromServiceKey(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidServiceKey, err)
	}
	if !gjson.ValidBytes(decoded) {
		return "", fmt.Errorf("%w: not a JSON document", ErrInvalidServiceKey)
	}

	pid := gjson.GetBytes(decoded, "project_id").String()
	if pid == "" {
		return "", fmt.Errorf("%w: project_id missing", ErrInvalidServiceKey)
	}
	return pid, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
