// internal/config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// HTTPConfig groups HTTP/HTTPS port and protocol settings.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`
}

// TLSConfig groups TLS / ACME settings. Only the http-01 challenge is
// supported; the site runs on a single public host.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`
}

// CORSConfig controls cross-origin access to the JSON contact endpoint.
type CORSConfig struct {
	EnableCORS         bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// SiteConfig holds presentation-level settings shared by all pages.
type SiteConfig struct {
	Name    string `mapstructure:"site_name"`
	BaseURL string `mapstructure:"base_url"`
}

// ContactConfig drives the contact/booking form flow: which delivery
// backend to use, where the relay lives, and how hard the submit
// endpoint may be hit per client IP.
type ContactConfig struct {
	// Backend selects submission delivery: "relay" posts JSON to the
	// inbox-relay endpoint, "smtp" sends the inquiry by email directly.
	Backend string `mapstructure:"contact_backend"`

	RelayURL     string        `mapstructure:"relay_url"`
	RelayToken   string        `mapstructure:"relay_token"`
	RelayTimeout time.Duration `mapstructure:"relay_timeout"`

	// To is the inbox that receives submissions when Backend is "smtp".
	To string `mapstructure:"contact_to"`

	// SubmitRate is submissions per second allowed per client IP;
	// SubmitBurst is the bucket size.
	SubmitRate  float64 `mapstructure:"contact_submit_rate"`
	SubmitBurst int     `mapstructure:"contact_submit_burst"`
}

// SMTPConfig holds the SMTP account used by the "smtp" backend.
type SMTPConfig struct {
	Host        string `mapstructure:"smtp_host"`
	Port        int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"smtp_username"`
	Password    string `mapstructure:"smtp_password"`
	FromAddress string `mapstructure:"smtp_from"`
	FromName    string `mapstructure:"smtp_from_name"`
}

// RedisConfig configures the optional shared rate-limit backend.
// When Addr is empty the limiter runs in-process only.
type RedisConfig struct {
	Addr     string `mapstructure:"redis_addr"`
	Password string `mapstructure:"redis_password"`
	DB       int    `mapstructure:"redis_db"`
}

// Config is the full site configuration.
type Config struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	// grouped config
	HTTP    HTTPConfig    `mapstructure:",squash"`
	TLS     TLSConfig     `mapstructure:",squash"`
	CORS    CORSConfig    `mapstructure:",squash"`
	Site    SiteConfig    `mapstructure:",squash"`
	Contact ContactConfig `mapstructure:",squash"`
	SMTP    SMTPConfig    `mapstructure:",squash"`
	Redis   RedisConfig   `mapstructure:",squash"`

	// HTTP behavior
	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	EnableCompression   bool  `mapstructure:"enable_compression"`
}

// Dump returns a pretty, redacted JSON string of the config for debugging.
// Never logs secrets; use at debug level only.
func (c Config) Dump() string {
	s := c.redactedCopy()
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

func (c Config) redactedCopy() Config {
	cp := c
	if cp.Contact.RelayToken != "" {
		cp.Contact.RelayToken = "[REDACTED]"
	}
	if cp.SMTP.Password != "" {
		cp.SMTP.Password = "[REDACTED]"
	}
	if cp.Redis.Password != "" {
		cp.Redis.Password = "[REDACTED]"
	}
	return cp
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into one Config.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
func Load(logger *zap.Logger) (*Config, error) {
	// 0) Optionally load .env (safe: real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Define flags (only *explicitly set* flags will override)
	pflag.String("env", "dev", `Runtime environment "dev"|"prod"`)
	pflag.String("log_level", "debug", "Log level")

	pflag.Int("http_port", 8080, "HTTP port")
	pflag.Int("https_port", 443, "HTTPS port")
	pflag.Bool("use_https", false, "Serve HTTPS")

	// TLS / Let’s Encrypt
	pflag.Bool("use_lets_encrypt", false, "Use Let's Encrypt")
	pflag.String("lets_encrypt_email", "", "ACME account e-mail")
	pflag.String("lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir")
	pflag.String("cert_file", "", "TLS cert file (manual TLS)")
	pflag.String("key_file", "", "TLS key file  (manual TLS)")
	pflag.String("domain", "", "Domain for TLS or ACME")

	// site
	pflag.String("site_name", "The Copper Owls", "Site display name")
	pflag.String("base_url", "", "Canonical base URL, e.g. https://thecopperowls.com")

	// contact flow
	pflag.String("contact_backend", "relay", `Submission delivery backend: "relay" or "smtp"`)
	pflag.String("relay_url", "", "Inbox-relay endpoint URL for contact submissions")
	pflag.String("relay_token", "", "Bearer token sent to the relay endpoint (optional)")
	pflag.String("relay_timeout", "10s", `Outbound relay call timeout (e.g., "10s", "30s")`)
	pflag.String("contact_to", "", "Destination inbox for the smtp backend")
	pflag.Float64("contact_submit_rate", 0.1, "Contact submissions allowed per second per IP")
	pflag.Int("contact_submit_burst", 3, "Contact submission burst size per IP")

	// SMTP
	pflag.String("smtp_host", "", "SMTP server host")
	pflag.Int("smtp_port", 587, "SMTP server port")
	pflag.String("smtp_username", "", "SMTP username")
	pflag.String("smtp_password", "", "SMTP password")
	pflag.String("smtp_from", "", "SMTP sender address")
	pflag.String("smtp_from_name", "", "SMTP sender display name")

	// Redis (optional shared rate-limit state)
	pflag.String("redis_addr", "", "Redis address for shared rate limiting (optional)")
	pflag.String("redis_password", "", "Redis password")
	pflag.Int("redis_db", 0, "Redis DB number")

	// misc / CORS
	pflag.Bool("enable_compression", true, "Enable HTTP compression")
	pflag.Bool("enable_cors", false, "Enable CORS on the JSON contact endpoint")
	pflag.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`)

	pflag.Int64("max_request_body_bytes", 1<<20, "Max HTTP request body size in bytes (0 = unlimited)")
	pflag.Parse()

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix("OWLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	// 4) Defaults (lowest precedence)
	setDefaults(v)

	// 5) Apply *explicit* flags (highest precedence)
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Normalize list keys (accept JSON strings → []string)
	if err := normalizeListKeys(logger, v, "cors_allowed_origins"); err != nil {
		return nil, err
	}

	// 7) Build struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse durations
	dur, err := parseDurationFlexible(v.Get("relay_timeout"), 10*time.Second)
	if err != nil && logger != nil {
		logger.Warn("invalid relay_timeout; using default 10s",
			zap.Any("value", v.Get("relay_timeout")), zap.Error(err))
	}
	cfg.Contact.RelayTimeout = dur

	// 8) Validate
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"use_lets_encrypt", "lets_encrypt_email", "lets_encrypt_cache_dir",
		"cert_file", "key_file", "domain",
		"site_name", "base_url",
		"contact_backend", "relay_url", "relay_token", "relay_timeout",
		"contact_to", "contact_submit_rate", "contact_submit_burst",
		"smtp_host", "smtp_port", "smtp_username", "smtp_password",
		"smtp_from", "smtp_from_name",
		"redis_addr", "redis_password", "redis_db",
		"enable_compression",
		"enable_cors", "cors_allowed_origins",
		"max_request_body_bytes",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)

	v.SetDefault("use_lets_encrypt", false)
	v.SetDefault("lets_encrypt_email", "")
	v.SetDefault("lets_encrypt_cache_dir", "letsencrypt-cache")
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("domain", "")

	v.SetDefault("site_name", "The Copper Owls")
	v.SetDefault("base_url", "")

	v.SetDefault("contact_backend", "relay")
	v.SetDefault("relay_url", "")
	v.SetDefault("relay_token", "")
	v.SetDefault("relay_timeout", "10s")
	v.SetDefault("contact_to", "")
	v.SetDefault("contact_submit_rate", 0.1)
	v.SetDefault("contact_submit_burst", 3)

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "")
	v.SetDefault("smtp_from_name", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("enable_compression", true)
	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})

	v.SetDefault("max_request_body_bytes", int64(1<<20))
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		val := v.Get(key)
		switch t := val.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

// parseDurationFlexible accepts strings like "90s"/"2m", numeric seconds, or
// time.Duration, so relay_timeout works the same from flags, env, and config
// files. Returns def on empty/unknown types; returns def + error on invalid
// values.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	switch t := raw.(type) {
	case time.Duration:
		if t <= 0 {
			return def, fmt.Errorf("duration must be >0")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			if d <= 0 {
				return def, fmt.Errorf("duration must be >0")
			}
			return d, nil
		}
		// Allow plain seconds in string form, e.g. "120"
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n <= 0 {
				return def, fmt.Errorf("seconds must be >0")
			}
			return time.Duration(n) * time.Second, nil
		}
		return def, fmt.Errorf("cannot parse duration %q", s)
	case int:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case int64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case float64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t * float64(time.Second)), nil
	default:
		// Unknown type (nil, bool, etc.) – use default, no error
		return def, nil
	}
}

func validateConfig(cfg Config) error {
	var missing []string
	var invalid []string

	// TLS / ACME consistency
	if cfg.TLS.UseLetsEncrypt && !cfg.HTTP.UseHTTPS {
		invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
	}
	if cfg.TLS.UseLetsEncrypt && (strings.TrimSpace(cfg.TLS.CertFile) != "" || strings.TrimSpace(cfg.TLS.KeyFile) != "") {
		invalid = append(invalid, "use_lets_encrypt=true cannot be combined with cert_file/key_file")
	}
	if cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.Domain) == "" {
			missing = append(missing, "OWLS_DOMAIN (or --domain) for Let's Encrypt")
		}
		if s := strings.TrimSpace(cfg.TLS.LetsEncryptEmail); s == "" {
			missing = append(missing, "OWLS_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if !strings.Contains(s, "@") {
			invalid = append(invalid, "lets_encrypt_email must look like an email address")
		}
	}

	// Manual TLS requirements
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "OWLS_CERT_FILE and OWLS_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	// Port sanity
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS {
		if cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
			invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
		}
		if cfg.HTTP.HTTPSPort == 80 {
			invalid = append(invalid, "https_port cannot be 80; port 80 is used by the ACME/redirect server")
		}
	}

	// Contact backend
	switch strings.ToLower(strings.TrimSpace(cfg.Contact.Backend)) {
	case "relay":
		if strings.TrimSpace(cfg.Contact.RelayURL) == "" {
			missing = append(missing, "OWLS_RELAY_URL (or --relay_url) for the relay backend")
		} else if u, err := url.Parse(cfg.Contact.RelayURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			invalid = append(invalid, "relay_url must be an absolute http(s) URL")
		}
	case "smtp":
		if strings.TrimSpace(cfg.SMTP.Host) == "" {
			missing = append(missing, "OWLS_SMTP_HOST (or --smtp_host) for the smtp backend")
		}
		if strings.TrimSpace(cfg.SMTP.FromAddress) == "" {
			missing = append(missing, "OWLS_SMTP_FROM (or --smtp_from) for the smtp backend")
		}
		if strings.TrimSpace(cfg.Contact.To) == "" {
			missing = append(missing, "OWLS_CONTACT_TO (or --contact_to) for the smtp backend")
		}
	default:
		invalid = append(invalid, `contact_backend must be "relay" or "smtp"`)
	}

	if cfg.Contact.RelayTimeout <= 0 {
		invalid = append(invalid, "relay_timeout must be > 0")
	}
	if cfg.Contact.SubmitRate <= 0 {
		invalid = append(invalid, "contact_submit_rate must be > 0")
	}
	if cfg.Contact.SubmitBurst < 1 {
		invalid = append(invalid, "contact_submit_burst must be >= 1")
	}

	// CORS sanity
	if cfg.CORS.EnableCORS && len(cfg.CORS.CORSAllowedOrigins) == 0 {
		missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
