package config

import (
	"os"
	"strconv"
	"time"

	"formfill/utils"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

// Configured reports whether every S3 setting is present
func (c S3Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Region != "" && c.Bucket != ""
}

// AutomationConfig holds the browser automation policy knobs
type AutomationConfig struct {
	Headless             bool
	InstallBrowsers      bool
	ProfileDir           string
	ScreenshotDir        string
	MaxPages             int
	PollInterval         time.Duration
	PollAttempts         int
	GracePeriod          time.Duration
	NavigationRetries    int
	NavigationTimeout    time.Duration
	SubmitWait           time.Duration
	IdleTimeout          time.Duration
	FuzzyThreshold       float64
	CandidateFloor       float64
	FingerprintQuestions int
}

type AppConfig struct {
	Port         string
	BaseURL      string
	MaxBodyBytes int64
	Database     DatabaseConfig
	S3           S3Config
	Automation   AutomationConfig
	JWTSecret    string
	Environment  string
	LogLevel     string
	LogFile      string
}

func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	password := getEnv("DB_PASSWORD", "")

	if password == "" {
		utils.LogWarn("DB_PASSWORD environment variable is not set", map[string]string{
			"hint": "set DB_PASSWORD or add it to .env",
		})
	}

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: password,
		DBName:   getEnv("DB_NAME", "formfill"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func GetS3Config() S3Config {
	return S3Config{
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Region:    getEnv("AWS_REGION", ""),
		Bucket:    getEnv("AWS_S3_BUCKET", ""),
	}
}

// GetAutomationConfig reads automation settings. The numeric defaults were
// tuned against Google Forms and should be revisited per form provider.
func GetAutomationConfig() AutomationConfig {
	return AutomationConfig{
		Headless:             getEnvBool("HEADLESS", true),
		InstallBrowsers:      getEnvBool("PLAYWRIGHT_INSTALL", false),
		ProfileDir:           getEnv("BROWSER_PROFILE_DIR", "./browser_profiles"),
		ScreenshotDir:        getEnv("SCREENSHOT_DIR", "./static/screenshots"),
		MaxPages:             getEnvInt("AUTOFILL_MAX_PAGES", 15),
		PollInterval:         getEnvDuration("AUTOFILL_POLL_INTERVAL", 250*time.Millisecond),
		PollAttempts:         getEnvInt("AUTOFILL_POLL_ATTEMPTS", 12),
		GracePeriod:          getEnvDuration("AUTOFILL_GRACE_PERIOD", 1500*time.Millisecond),
		NavigationRetries:    getEnvInt("AUTOFILL_NAVIGATION_RETRIES", 2),
		NavigationTimeout:    getEnvDuration("AUTOFILL_NAVIGATION_TIMEOUT", 30*time.Second),
		SubmitWait:           getEnvDuration("AUTOFILL_SUBMIT_WAIT", 2*time.Second),
		IdleTimeout:          getEnvDuration("AUTOFILL_IDLE_TIMEOUT", 30*time.Minute),
		FuzzyThreshold:       getEnvFloat("AUTOFILL_FUZZY_THRESHOLD", 0.7),
		CandidateFloor:       getEnvFloat("AUTOFILL_CANDIDATE_FLOOR", 0.3),
		FingerprintQuestions: getEnvInt("AUTOFILL_FINGERPRINT_QUESTIONS", 3),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:         getEnv("PORT", "8081"),
		BaseURL:      getEnv("API_BASE_URL", "http://localhost:8081/api"),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		Database:     GetDatabaseConfig(),
		S3:           GetS3Config(),
		Automation:   GetAutomationConfig(),
		JWTSecret:    getEnv("JWT_SECRET", "your-secret-key"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
