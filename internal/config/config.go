package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
)

// Config stores process-level configuration. Run-level options such as the
// season come from command flags instead.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	LogLevel                logging.Level
	LogFormat               string
	MLBStatsBaseURL         string
	MLBStatsTimeout         time.Duration
	MLBStatsRatePerMinute   int
	FangraphsBaseURL        string
	FangraphsTimeout        time.Duration
	FangraphsRatePerMinute  int
	ProviderCircuit         resilience.CircuitBreakerConfig
	PlayerIDMapPath         string
	TeamsFile               string
	DBURL                   string
	DBDisablePreparedBinary bool
	MetricsAddr             string
	UptraceEnabled          bool
	UptraceDSN              string
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string
	PyroscopeAppName        string
	PyroscopeAuthToken      string
	PyroscopeUploadRate     time.Duration
}

// LoadDotEnv reads the given env files, ".env" by default, skipping missing
// ones. Variables already present in the environment are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logFormatDefault := logging.FormatConsole
	if appEnv == EnvProd {
		logFormatDefault = logging.FormatJSON
	}
	logFormat, err := logging.ParseFormat(getEnv("LOG_FORMAT", logFormatDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_FORMAT: %w", err)
	}

	mlbStatsTimeout, err := time.ParseDuration(getEnv("MLB_STATS_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MLB_STATS_TIMEOUT: %w", err)
	}
	if mlbStatsTimeout <= 0 {
		return Config{}, fmt.Errorf("MLB_STATS_TIMEOUT must be > 0")
	}
	mlbStatsRate, err := getEnvAsInt("MLB_STATS_RATE_PER_MINUTE", 600)
	if err != nil {
		return Config{}, fmt.Errorf("parse MLB_STATS_RATE_PER_MINUTE: %w", err)
	}
	if mlbStatsRate <= 0 {
		return Config{}, fmt.Errorf("MLB_STATS_RATE_PER_MINUTE must be > 0")
	}

	fangraphsTimeout, err := time.ParseDuration(getEnv("FANGRAPHS_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FANGRAPHS_TIMEOUT: %w", err)
	}
	if fangraphsTimeout <= 0 {
		return Config{}, fmt.Errorf("FANGRAPHS_TIMEOUT must be > 0")
	}
	fangraphsRate, err := getEnvAsInt("FANGRAPHS_RATE_PER_MINUTE", 120)
	if err != nil {
		return Config{}, fmt.Errorf("parse FANGRAPHS_RATE_PER_MINUTE: %w", err)
	}
	if fangraphsRate <= 0 {
		return Config{}, fmt.Errorf("FANGRAPHS_RATE_PER_MINUTE must be > 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("PROVIDER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("PROVIDER_CIRCUIT_FAILURE_COUNT", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PROVIDER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv("PROVIDER_CIRCUIT_OPEN_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PROVIDER_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	serviceName := strings.TrimSpace(getEnv("APP_SERVICE_NAME", "season-stats"))

	return Config{
		AppEnv:                 appEnv,
		ServiceName:            serviceName,
		ServiceVersion:         strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		LogLevel:               logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:              logFormat,
		MLBStatsBaseURL:        strings.TrimSpace(getEnv("MLB_STATS_BASE_URL", "https://statsapi.mlb.com/api/v1")),
		MLBStatsTimeout:        mlbStatsTimeout,
		MLBStatsRatePerMinute:  mlbStatsRate,
		FangraphsBaseURL:       strings.TrimSpace(getEnv("FANGRAPHS_BASE_URL", "https://www.fangraphs.com")),
		FangraphsTimeout:       fangraphsTimeout,
		FangraphsRatePerMinute: fangraphsRate,
		ProviderCircuit: resilience.CircuitBreakerConfig{
			Enabled:          circuitEnabled,
			FailureThreshold: circuitFailureCount,
			OpenTimeout:      circuitOpenTimeout,
			HalfOpenMaxReq:   circuitHalfOpenMaxReq,
		},
		PlayerIDMapPath:         strings.TrimSpace(getEnv("PLAYER_ID_MAP_PATH", "")),
		TeamsFile:               strings.TrimSpace(getEnv("TEAMS_FILE", "")),
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		MetricsAddr:             strings.TrimSpace(getEnv("METRICS_ADDR", "")),
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              uptraceDSN,
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  pyroscopeServerAddress,
		PyroscopeAppName:        strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", serviceName)),
		PyroscopeAuthToken:      strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:     pyroscopeUploadRate,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
