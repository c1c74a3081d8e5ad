package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-interviewer/internal/ai/ollama"
	"github.com/spigell/hh-interviewer/internal/analysis"
	"github.com/spigell/hh-interviewer/internal/conversation"
	"github.com/spigell/hh-interviewer/internal/generation"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/prompt"
	"github.com/spigell/hh-interviewer/internal/session"
)

const (
	app       = "hh-interviewer"
	envPrefix = "HH_INTERVIEWER"
)

type Config struct {
	Backend      *BackendConfig    `mapstructure:"backend"`
	Generation   *GenerationConfig `mapstructure:"generation"`
	Interview    session.Config    `mapstructure:"interview"`
	FollowUp     *FollowUpConfig   `mapstructure:"follow-up"`
	Store        *StoreConfig      `mapstructure:"store"`
	Server       *ServerConfig     `mapstructure:"server"`
	HistoryTurns int               `mapstructure:"history-turns"`
}

type BackendConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	Ollama   *OllamaConfig `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Model   string `mapstructure:"model"`
}

type GenerationConfig struct {
	Temperature   float32       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max-tokens"`
	StopSequences []string      `mapstructure:"stop-sequences"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max-retries"`
	RetryBackoff  time.Duration `mapstructure:"retry-backoff"`
}

type FollowUpConfig struct {
	MinAnswerLength    int     `mapstructure:"min-answer-length"`
	TechnicalProbeRate float64 `mapstructure:"technical-probe-rate"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer runs adaptive mock interviews driven by a language model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env is fine, the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("backend.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("backend.provider", providerGemini)
	viper.SetDefault("backend.gemini.api-key", "")
	viper.SetDefault("backend.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("backend.gemini.max-log-length", 200)
	viper.SetDefault("backend.ollama.base-url", ollama.DefaultBaseURL)
	viper.SetDefault("backend.ollama.model", ollama.DefaultModel)

	viper.SetDefault("generation.temperature", generation.DefaultTemperature)
	viper.SetDefault("generation.max-tokens", generation.DefaultMaxTokens)
	viper.SetDefault("generation.stop-sequences", []string{})
	viper.SetDefault("generation.timeout", generation.DefaultTimeout)
	viper.SetDefault("generation.max-retries", generation.DefaultMaxRetries)
	viper.SetDefault("generation.retry-backoff", generation.DefaultRetryBackoff)

	viper.SetDefault("interview.first-question-timeout", session.DefaultFirstQuestionTimeout)
	viper.SetDefault("interview.question-timeout", session.DefaultQuestionTimeout)
	viper.SetDefault("interview.minimum-answers", interview.DefaultMinimumAnswers)
	viper.SetDefault("interview.max-consecutive-follow-ups", session.DefaultMaxConsecutiveFollowUps)

	viper.SetDefault("follow-up.min-answer-length", analysis.DefaultMinAnswerLength)
	viper.SetDefault("follow-up.technical-probe-rate", analysis.DefaultTechnicalProbeRate)

	viper.SetDefault("store.driver", storeMemory)
	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("store.ttl", conversation.DefaultTTL)
	viper.SetDefault("store.sweep-interval", conversation.DefaultSweepInterval)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read-header-timeout", 10*time.Second)
	viper.SetDefault("server.shutdown-timeout", 30*time.Second)

	viper.SetDefault("history-turns", prompt.DefaultHistoryTurns)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Without an explicit --config the file is optional and defaults apply.
	// A file that exists but does not parse is always fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}
