package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	ExamScheduler ExamSchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExamSchedulerConfig governs the examination timetable optimiser: its solve
// budget, truncation limits and whether progress is logged at debug level.
type ExamSchedulerConfig struct {
	Enabled                bool
	MaxSolverSeconds       int
	Workers                int
	ModuleLimit            int
	StudentConstraintLimit int
	PairNeighbourhood      int
	MaxStudentsForH2       int
	LogProgress            bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.ExamScheduler = ExamSchedulerConfig{
		Enabled:                v.GetBool("EXAM_SCHEDULER_ENABLED"),
		MaxSolverSeconds:       v.GetInt("EXAM_SCHEDULER_MAX_SOLVER_SECONDS"),
		Workers:                v.GetInt("EXAM_SCHEDULER_WORKERS"),
		ModuleLimit:            v.GetInt("EXAM_SCHEDULER_MODULE_LIMIT"),
		StudentConstraintLimit: v.GetInt("EXAM_SCHEDULER_STUDENT_CONSTRAINT_CAP"),
		PairNeighbourhood:      v.GetInt("EXAM_SCHEDULER_PAIR_NEIGHBOURHOOD"),
		MaxStudentsForH2:       v.GetInt("EXAM_SCHEDULER_MAX_STUDENTS_FOR_H2"),
		LogProgress:            v.GetBool("EXAM_SCHEDULER_LOG_PROGRESS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "exam_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXAM_SCHEDULER_ENABLED", false)
	v.SetDefault("EXAM_SCHEDULER_MAX_SOLVER_SECONDS", 25)
	v.SetDefault("EXAM_SCHEDULER_WORKERS", 4)
	v.SetDefault("EXAM_SCHEDULER_MODULE_LIMIT", 500)
	v.SetDefault("EXAM_SCHEDULER_STUDENT_CONSTRAINT_CAP", 3000)
	v.SetDefault("EXAM_SCHEDULER_PAIR_NEIGHBOURHOOD", 30)
	v.SetDefault("EXAM_SCHEDULER_MAX_STUDENTS_FOR_H2", 1000)
	v.SetDefault("EXAM_SCHEDULER_LOG_PROGRESS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
