package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Sources
	SourcesFile    string `long:"sources-file" env:"SOURCES_FILE" default:"./feeds.txt" description:"Newline-delimited list of feed URLs"`
	CategoriesFile string `long:"categories-file" env:"CATEGORIES_FILE" description:"YAML file overriding the category keyword table (optional)"`
	SampleSize     int    `long:"sample-size" env:"SAMPLE_SIZE" default:"35" description:"Number of sources sampled per cycle (0 = all)"`

	// Pipeline
	Concurrency    int    `long:"concurrency" env:"CONCURRENCY" default:"20" description:"Maximum concurrent outbound requests"`
	FetchTimeout   int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"8" description:"Per-feed fetch timeout in seconds"`
	ProbeTimeout   int    `long:"probe-timeout" env:"PROBE_TIMEOUT" default:"3" description:"Per-image probe timeout in seconds"`
	CacheTTL       int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Aggregation cache TTL in seconds"`
	EntriesPerFeed int    `long:"entries-per-feed" env:"ENTRIES_PER_FEED" default:"15" description:"Maximum entries taken from each feed"`
	SectionCap     int    `long:"section-cap" env:"SECTION_CAP" default:"20" description:"Maximum items per section"`
	BreakingWindow int    `long:"breaking-window" env:"BREAKING_WINDOW" default:"7200" description:"Breaking news window in seconds"`
	WarmSchedule   string `long:"warm-schedule" env:"WARM_SCHEDULE" description:"Cron spec for background cache refresh, e.g. @every 4m (optional)"`

	// Collaborators
	DBPath       string  `long:"db-path" env:"DB_PATH" description:"SQLite file for cycle and source statistics (optional)"`
	RedisAddr    string  `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for publishing the latest aggregation (optional)"`
	ForensicsURL string  `long:"forensics-url" env:"FORENSICS_URL" description:"Image forensics scoring service endpoint (optional)"`
	AnalyzeRate  float64 `long:"analyze-rate" env:"ANALYZE_RATE" default:"2" description:"Maximum image analyses per second"`

	// Application configuration
	Port    string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; RSS-Pulse/1.0)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return Parse(os.Args[1:])
}

// Parse reads configuration from args and the environment. It returns nil, nil
// when help was requested.
func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesFile:    raw.SourcesFile,
		CategoriesFile: raw.CategoriesFile,
		SampleSize:     raw.SampleSize,
		Concurrency:    raw.Concurrency,
		FetchTimeout:   raw.FetchTimeout,
		ProbeTimeout:   raw.ProbeTimeout,
		CacheTTL:       raw.CacheTTL,
		EntriesPerFeed: raw.EntriesPerFeed,
		SectionCap:     raw.SectionCap,
		BreakingWindow: raw.BreakingWindow,
		WarmSchedule:   raw.WarmSchedule,
		DBPath:         raw.DBPath,
		RedisAddr:      raw.RedisAddr,
		ForensicsURL:   raw.ForensicsURL,
		AnalyzeRate:    raw.AnalyzeRate,
		Port:           raw.Port,
		BaseUrl:        raw.BaseUrl,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	positiveFields := map[string]int{
		"concurrency":      cfg.Concurrency,
		"fetch timeout":    cfg.FetchTimeout,
		"probe timeout":    cfg.ProbeTimeout,
		"entries per feed": cfg.EntriesPerFeed,
		"section cap":      cfg.SectionCap,
		"breaking window":  cfg.BreakingWindow,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must be non-negative")
	}
	if cfg.SampleSize < 0 {
		return fmt.Errorf("sample size must be non-negative")
	}
	if cfg.AnalyzeRate <= 0 {
		return fmt.Errorf("analyze rate must be positive")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
