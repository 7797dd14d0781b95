package config

import (
	"fmt"
	"time"
)

type Config struct {
	HTTP          HttpConfig          `yaml:"http"`
	Backoff       BackoffConfig       `yaml:"backoff"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Robots        RobotsConfig        `yaml:"robots"`
	Rod           RodConfig           `yaml:"rod"`
	Scrape        ScrapeConfig        `yaml:"scrape"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Sources       []SourceConfig      `yaml:"sources"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Storage       StorageConfig       `yaml:"storage"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	Accept                    string `yaml:"accept"`
	AcceptLanguage            string `yaml:"accept_language"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	MaxBodyBytes              int64  `yaml:"max_body_bytes"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

type RobotsConfig struct {
	Respect       bool `yaml:"respect"`
	CacheTTLHours int  `yaml:"cache_ttl_hours"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type ScrapeConfig struct {
	MaxArticlesPerSource int    `yaml:"max_articles_per_source"`
	ExcerptChars         int    `yaml:"excerpt_chars"`
	Sport                string `yaml:"sport"`
}

type NormalizeConfig struct {
	TrimNBSP       bool `yaml:"trim_nbsp"`
	CollapseSpaces bool `yaml:"collapse_spaces"`
}

type ClassifierConfig struct {
	// Labels replaces the built-in taxonomy when non-empty.
	Labels []LabelConfig `yaml:"labels"`
}

type LabelConfig struct {
	Name     string   `yaml:"name"`
	Family   string   `yaml:"family"`
	Keywords []string `yaml:"keywords"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
	CronExpr  string `yaml:"cron_expr"`
}

type ServerConfig struct {
	Addr             string `yaml:"addr"`
	ReadTimeoutS     int    `yaml:"read_timeout_s"`
	WriteTimeoutS    int    `yaml:"write_timeout_s"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_s"`
	DefaultPageLimit int    `yaml:"default_page_limit"`
	MaxPageLimit     int    `yaml:"max_page_limit"`
	DisableMetrics   bool   `yaml:"disable_metrics"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	MetricsPath   string `yaml:"metrics_path"`
}

const (
	defaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-GB,en;q=0.9"
)

// SetDefaults fills zero values with the values the service runs with when
// the YAML file leaves them out.
func (c *Config) SetDefaults() {
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
	if c.HTTP.Accept == "" {
		c.HTTP.Accept = defaultAccept
	}
	if c.HTTP.AcceptLanguage == "" {
		c.HTTP.AcceptLanguage = defaultAcceptLanguage
	}
	if c.HTTP.ConnectTimeoutMS == 0 {
		c.HTTP.ConnectTimeoutMS = 5000
	}
	if c.HTTP.TotalTimeoutMS == 0 {
		c.HTTP.TotalTimeoutMS = 15000
	}
	if c.HTTP.MaxIdleConnections == 0 {
		c.HTTP.MaxIdleConnections = 100
	}
	if c.HTTP.MaxIdleConnectionsPerHost == 0 {
		c.HTTP.MaxIdleConnectionsPerHost = 10
	}
	if c.HTTP.IdleConnectionTimeoutS == 0 {
		c.HTTP.IdleConnectionTimeoutS = 90
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.Backoff.MinMS == 0 {
		c.Backoff.MinMS = 250
	}
	if c.Backoff.MaxMS == 0 {
		c.Backoff.MaxMS = 4000
	}
	if c.RateLimit.RPM == 0 {
		c.RateLimit.RPM = 60
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
	if c.Robots.CacheTTLHours == 0 {
		c.Robots.CacheTTLHours = 12
	}
	if c.Scrape.MaxArticlesPerSource == 0 {
		c.Scrape.MaxArticlesPerSource = 10
	}
	if c.Scrape.ExcerptChars == 0 {
		c.Scrape.ExcerptChars = 200
	}
	if c.Scrape.Sport == "" {
		c.Scrape.Sport = "rugby_league"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.CommandTimeoutMS == 0 {
		c.Storage.CommandTimeoutMS = 5000
	}
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = "oneshot"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutS == 0 {
		c.Server.ReadTimeoutS = 15
	}
	if c.Server.WriteTimeoutS == 0 {
		c.Server.WriteTimeoutS = 300
	}
	if c.Server.ShutdownTimeoutS == 0 {
		c.Server.ShutdownTimeoutS = 30
	}
	if c.Server.DefaultPageLimit == 0 {
		c.Server.DefaultPageLimit = 20
	}
	if c.Server.MaxPageLimit == 0 {
		c.Server.MaxPageLimit = 100
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogMaxSizeMB == 0 {
		c.Observability.LogMaxSizeMB = 50
	}
	if c.Observability.LogMaxBackups == 0 {
		c.Observability.LogMaxBackups = 5
	}
	if c.Observability.LogMaxAgeDays == 0 {
		c.Observability.LogMaxAgeDays = 14
	}
	if c.Observability.MetricsPath == "" {
		c.Observability.MetricsPath = "/metrics"
	}
	for i := range c.Sources {
		c.Sources[i].setDefaults()
	}
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0")
	}
	if c.Robots.Respect && c.Robots.CacheTTLHours <= 0 {
		return fmt.Errorf("robots.cache_ttl_hours must be > 0")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	if c.Scrape.MaxArticlesPerSource <= 0 {
		return fmt.Errorf("scrape.max_articles_per_source must be > 0")
	}
	if c.Scrape.ExcerptChars <= 0 {
		return fmt.Errorf("scrape.excerpt_chars must be > 0")
	}
	if err := validateSources(c.Sources); err != nil {
		return err
	}
	if err := validateLabels(c.Classifier.Labels); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case "mssql", "postgres", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be 'mssql', 'postgres' or 'sqlite'")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Scheduler.Mode != "interval" && c.Scheduler.Mode != "cron" && c.Scheduler.Mode != "oneshot" {
		return fmt.Errorf("scheduler.mode must be 'interval', 'cron' or 'oneshot'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Scheduler.Mode == "cron" && c.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.DefaultPageLimit <= 0 || c.Server.DefaultPageLimit > c.Server.MaxPageLimit {
		return fmt.Errorf("server.default_page_limit must be between 1 and server.max_page_limit")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

func validateLabels(labels []LabelConfig) error {
	for i, l := range labels {
		if l.Name == "" {
			return fmt.Errorf("classifier.labels[%d].name is required", i)
		}
		switch l.Family {
		case "league", "club", "competition", "topic":
		default:
			return fmt.Errorf("classifier.labels[%d].family must be one of league, club, competition, topic", i)
		}
		if len(l.Keywords) == 0 {
			return fmt.Errorf("classifier.labels[%d].keywords is required", i)
		}
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.Robots.CacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutS) * time.Second
}

func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutS) * time.Second
}

func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutS) * time.Second
}
