// Package settings is the read-only configuration snapshot the rest of the
// process consults: API bind address, credentials, CORS overrides and the
// in-memory check-definition map (spec §6.3).
package settings

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"

	"github.com/bngnha/sensu/internal/model"
)

// Version is the value reported as sensu.version in GET /info. Overridden
// at build time via -ldflags, the same convention as the teacher's
// main.go Version var.
var Version = "undefined"

// GitCommit and BuildTime are overridden at build time via -ldflags
// alongside Version, and are reported in GET /info's build sub-object.
var (
	GitCommit = "undefined"
	BuildTime = "undefined"
)

const (
	defaultBind            = "0.0.0.0"
	defaultPort            = 4567
	defaultShutdownTimeout = 10 * time.Second
)

// DefaultCORS is applied for any header the settings' cors map omits,
// per spec §4.1 step 3.
var DefaultCORS = map[string]string{
	"Origin":      "*",
	"Methods":     "GET, POST, PUT, DELETE, OPTIONS",
	"Credentials": "true",
	"Headers":     "Origin, X-Requested-With, Content-Type, Accept, Authorization",
}

// API holds the api.* settings block.
type API struct {
	Bind            string `mapstructure:"bind"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	ShutdownSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Settings is the full read-only snapshot supplied to the process.
type Settings struct {
	API    API                              `mapstructure:"api"`
	CORS   map[string]string                `mapstructure:"cors"`
	Checks map[string]model.CheckDefinition `mapstructure:"checks"`

	Registry  RegistryConfig  `mapstructure:"redis"`
	Transport TransportConfig `mapstructure:"transport"`
}

// RegistryConfig configures the registry backend.
type RegistryConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TransportConfig holds the transport settings block. cmd/sensu-api does
// not read it: the process always uses transport.InMemory.
type TransportConfig struct {
	URL string `mapstructure:"url"`
}

// Addr returns the listen address for http.Server, applying defaults.
func (s Settings) Addr() string {
	bind := s.API.Bind
	if bind == "" {
		bind = defaultBind
	}
	port := s.API.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", bind, port)
}

// ShutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests to finish before Stop stops waiting and goes on to close the
// registry and transport (connections still active are not force-closed) —
// a process that never bounds shutdown can block forever on one stuck
// connection, exactly what spec §6.3's stop operation must not do.
func (s Settings) ShutdownTimeout() time.Duration {
	if s.API.ShutdownSeconds <= 0 {
		return defaultShutdownTimeout
	}
	return time.Duration(s.API.ShutdownSeconds) * time.Second
}

// RequiresAuth reports whether spec §4.1 step 5's Basic-auth gate is active:
// both api.user and api.password must be configured.
func (s Settings) RequiresAuth() bool {
	return s.API.User != "" && s.API.Password != ""
}

// CORSHeaders merges the configured cors map over DefaultCORS, per spec
// §4.1 step 3.
func (s Settings) CORSHeaders() map[string]string {
	merged := make(map[string]string, len(DefaultCORS))
	for k, v := range DefaultCORS {
		merged[k] = v
	}
	for k, v := range s.CORS {
		merged[k] = v
	}
	return merged
}

// SetupFlagSet registers the command-line flags the process accepts,
// mirroring the teacher's setupFlagSet.
func SetupFlagSet(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "the configuration file to use. Overrides the search path.")
	fs.BoolP("debug", "d", false, "enables debug logging. Overrides configuration.")
	fs.BoolP("version", "v", false, "print version and exit")
}

// Load reads configuration from the given viper instance (already pointed
// at a config file or search path by the caller) into a Settings value.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// New builds a viper.Viper the way the teacher's setup() does: explicit
// -f/--file override, else search /etc/<app>, $HOME/.<app> and ".".
func New(appName string, fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if file, _ := fs.GetString("file"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(appName)
		v.AddConfigPath(fmt.Sprintf("/etc/%s", appName))
		v.AddConfigPath(fmt.Sprintf("$HOME/.%s", appName))
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return v, fmt.Errorf("failed to read config file: %w", err)
	}
	return v, nil
}

// BuildLogger reads the "logging" key into a sallust.Config and builds the
// *zap.Logger the rest of the process shares, the same split the teacher's
// setup() does between config loading and logger construction. debug forces
// debug-level output regardless of what the config file says, matching the
// -d/--debug flag's override in the teacher.
func BuildLogger(v *viper.Viper, debug bool) (*zap.Logger, error) {
	var c sallust.Config
	if err := v.UnmarshalKey("logging", &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logging config: %w", err)
	}
	if debug {
		c.Level = "DEBUG"
	}
	return c.Build()
}
