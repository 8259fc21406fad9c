package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the tunable knobs. Required settings (credentials, URLs,
// API token) have no defaults and fail validation when absent.
const (
	defaultPort             = "3051"
	defaultLogLevel         = "info"
	defaultStateFile        = "state.json"
	defaultEventsDBPath     = "events.db"
	defaultCheckIntervalSec = 10
	defaultFailureThreshold = 3
	defaultRecoveryDelaySec = 600
	defaultProbeTimeoutSec  = 5
	defaultControlPerHour   = 10
	defaultStatusPerHour    = 30
)

// Omada holds the uplink provider connection settings.
type Omada struct {
	URL         string
	Username    string
	Password    string
	SiteID      string
	GatewayMAC  string
	InsecureTLS bool
	Timeout     time.Duration
}

// Config is the full configuration value, built once at startup and passed
// explicitly into each component's constructor.
type Config struct {
	Port     string
	LogLevel string
	APIToken string

	StateFile    string
	EventsDBPath string

	CheckInterval    time.Duration
	FailureThreshold int
	RecoveryDelay    time.Duration

	ControlRatePerHour int
	StatusRatePerHour  int

	Omada         Omada
	ShellyBaseURL string
	ShellyTimeout time.Duration
}

// Load reads configuration from the environment, applies defaults, and
// validates the result. It never consults the environment again afterwards.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("state_file", defaultStateFile)
	v.SetDefault("events_db_path", defaultEventsDBPath)
	v.SetDefault("check_interval", defaultCheckIntervalSec)
	v.SetDefault("failure_threshold", defaultFailureThreshold)
	v.SetDefault("recovery_delay", defaultRecoveryDelaySec)
	v.SetDefault("probe_timeout", defaultProbeTimeoutSec)
	v.SetDefault("control_rate_limit", defaultControlPerHour)
	v.SetDefault("status_rate_limit", defaultStatusPerHour)
	v.SetDefault("omada_insecure_tls", false)

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: strings.ToLower(v.GetString("log_level")),
		APIToken: v.GetString("api_token"),

		StateFile:    v.GetString("state_file"),
		EventsDBPath: v.GetString("events_db_path"),

		CheckInterval:    time.Duration(v.GetInt("check_interval")) * time.Second,
		FailureThreshold: v.GetInt("failure_threshold"),
		RecoveryDelay:    time.Duration(v.GetInt("recovery_delay")) * time.Second,

		ControlRatePerHour: v.GetInt("control_rate_limit"),
		StatusRatePerHour:  v.GetInt("status_rate_limit"),

		Omada: Omada{
			URL:         strings.TrimRight(v.GetString("omada_url"), "/"),
			Username:    v.GetString("omada_username"),
			Password:    v.GetString("omada_password"),
			SiteID:      v.GetString("omada_site_id"),
			GatewayMAC:  v.GetString("omada_gateway_mac"),
			InsecureTLS: v.GetBool("omada_insecure_tls"),
			Timeout:     time.Duration(v.GetInt("probe_timeout")) * time.Second,
		},
		ShellyBaseURL: strings.TrimRight(v.GetString("shelly_base_url"), "/"),
		ShellyTimeout: time.Duration(v.GetInt("probe_timeout")) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	required := []struct {
		key   string
		value string
	}{
		{"OMADA_URL", c.Omada.URL},
		{"OMADA_USERNAME", c.Omada.Username},
		{"OMADA_PASSWORD", c.Omada.Password},
		{"OMADA_SITE_ID", c.Omada.SiteID},
		{"OMADA_GATEWAY_MAC", c.Omada.GatewayMAC},
		{"SHELLY_BASE_URL", c.ShellyBaseURL},
		{"API_TOKEN", c.APIToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, fmt.Sprintf("%s must be set", r.key))
		}
	}

	if c.CheckInterval <= 0 {
		problems = append(problems, "CHECK_INTERVAL must be positive")
	}
	if c.FailureThreshold <= 0 {
		problems = append(problems, "FAILURE_THRESHOLD must be positive")
	}
	if c.RecoveryDelay <= 0 {
		problems = append(problems, "RECOVERY_DELAY must be positive")
	}
	if c.ControlRatePerHour <= 0 {
		problems = append(problems, "CONTROL_RATE_LIMIT must be positive")
	}
	if c.StatusRatePerHour <= 0 {
		problems = append(problems, "STATUS_RATE_LIMIT must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
