package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries every process-wide knob. It is parsed once at startup and
// passed explicitly into constructors; nothing reads the environment after
// that point.
type Config struct {
	Addr     string `env:"GRADER_ADDR" envDefault:":8080"`
	DataPath string `env:"GRADER_DATA_PATH" envDefault:"./data"`
	LogLevel string `env:"GRADER_LOG_LEVEL" envDefault:"info"`

	SubmissionLimit int `env:"GRADER_SUBMISSION_LIMIT" envDefault:"100"`
	PageSize        int `env:"GRADER_PAGE_SIZE" envDefault:"5"`

	// Expected conversation counts per stage. Order of precedence when
	// classifying is fixed: practice, training, test.
	PracticeSamples int `env:"GRADER_PRACTICE_SAMPLES" envDefault:"5"`
	TrainingSamples int `env:"GRADER_TRAINING_SAMPLES" envDefault:"20"`
	TestSamples     int `env:"GRADER_TEST_SAMPLES" envDefault:"15"`

	// Store selects the persistence driver: "file" keeps the per-user JSON
	// document layout, "sqlite" serializes writes through a single database
	// file instead.
	Store     Store  `envPrefix:"GRADER_STORE_"`
	Admin     Admin  `envPrefix:"GRADER_ADMIN_"`
	JWTSecret string `env:"GRADER_JWT_SECRET" envDefault:"grader-dev-secret"`
}

// Store contains persistence driver parameters.
type Store struct {
	Driver     string `env:"DRIVER" envDefault:"file"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"grader.db"`
}

// Admin contains credentials for the review/provisioning endpoints.
// PasswordHash is a bcrypt hash; when empty the admin surface is disabled.
type Admin struct {
	PasswordHash string `env:"PASSWORD_HASH"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
