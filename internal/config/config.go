// Package config holds process-level settings (env-var driven, teacher
// style) plus the per-target option structs named in SPEC_FULL.md §6. The
// structs carry yaml tags for a future external multi-target config loader;
// this package itself never imports a YAML library (see DESIGN.md).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-wide settings sourced from the environment.
type Config struct {
	ProviderBaseURL string // e.g. http://provider:8080
	ProviderUser    string
	ProviderPass    string
	M3UURL          string // optional: full M3U URL if different from base

	WorkingDir string // base dir for resolving relative target paths
	IDStoreDir string // directory holding per-target virtual-id sqlite files

	ListenAddr string

	FetchTimeout  time.Duration
	FetchRetries  int
	RateLimitRPS  float64 // per-host request rate (requests/sec); <= 0 falls back to 8
	HostSemaphore int     // max in-flight requests per host
}

// Load reads Config from the environment, falling back to defaults in the
// teacher's getEnv/getEnvInt/getEnvBool style. Call LoadEnvFile(".env")
// first to source a .env file.
func Load() *Config {
	c := &Config{
		ProviderBaseURL: os.Getenv("M3UFLUX_PROVIDER_URL"),
		ProviderUser:    os.Getenv("M3UFLUX_PROVIDER_USER"),
		ProviderPass:    os.Getenv("M3UFLUX_PROVIDER_PASS"),
		M3UURL:          os.Getenv("M3UFLUX_M3U_URL"),
		WorkingDir:      getEnv("M3UFLUX_WORKING_DIR", "."),
		IDStoreDir:      getEnv("M3UFLUX_IDSTORE_DIR", "./idstore"),
		ListenAddr:      getEnv("M3UFLUX_LISTEN_ADDR", ":34400"),
		FetchTimeout:    getEnvDuration("M3UFLUX_FETCH_TIMEOUT", 45*time.Second),
		FetchRetries:    getEnvInt("M3UFLUX_FETCH_RETRIES", 3),
		RateLimitRPS:    getEnvFloat("M3UFLUX_RATE_LIMIT_RPS", 8.0),
		HostSemaphore:   getEnvInt("M3UFLUX_HOST_SEMAPHORE", 4),
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 45 * time.Second
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = 3
	}
	if c.HostSemaphore <= 0 {
		c.HostSemaphore = 4
	}
	return c
}

// OutputKind selects the sink a Target writes to.
type OutputKind string

const (
	OutputM3u    OutputKind = "M3u"
	OutputStrm   OutputKind = "Strm"
	OutputXtream OutputKind = "Xtream"
)

// SortOrder is the direction a Target's Sort rule applies.
type SortOrder string

const (
	SortAsc  SortOrder = "Asc"
	SortDesc SortOrder = "Desc"
)

// SortSpec configures group-title sorting for a Target.
type SortSpec struct {
	Order SortOrder `yaml:"order"`
}

// RenameRule applies a regex replace-all to one field's value.
type RenameRule struct {
	Field       string `yaml:"field"`
	Regex       string `yaml:"regex"`
	NewName     string `yaml:"new_name"`
}

// Options carries the boolean per-target knobs named in SPEC_FULL.md §6.
type Options struct {
	IgnoreLogo           bool `yaml:"ignore_logo"`
	UnderscoreWhitespace bool `yaml:"underscore_whitespace"`
	Cleanup              bool `yaml:"cleanup"`
}

// Target is one output configuration: kind, destination path, and the
// transform stages (rename, sort, filter) to apply before dispatch.
type Target struct {
	Name     string       `yaml:"name"`
	Output   OutputKind   `yaml:"output"`
	Filename string       `yaml:"filename"` // path relative to WorkingDir
	Sort     *SortSpec    `yaml:"sort,omitempty"`
	Rename   []RenameRule `yaml:"rename,omitempty"`
	Filter   string       `yaml:"filter,omitempty"` // expression text; not parsed here, transform.Run takes a built transform.Expr
	Options  Options      `yaml:"options"`
	// EPGFile is this target's resolved XMLTV guide, path relative to
	// WorkingDir. Empty means this target has no EPG configured at all
	// (httpapi serves the minimal empty <tv> document); non-empty but
	// unreadable at serve time (not yet fetched, fetch failed) means EPG is
	// configured but the file is absent (httpapi serves HTTP 204).
	EPGFile string `yaml:"epg_file,omitempty"`
}

// UserCredentials carries per-user transform hints consumed by the core.
// Only EPGTimeshift is consumed (per spec.md §6); other fields belong to the
// HTTP collaborator's auth/authorization concern and are not modeled here.
type UserCredentials struct {
	Username     string
	EPGTimeshift *string
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
