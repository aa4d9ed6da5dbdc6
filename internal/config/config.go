package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Webex    WebexConfig
	Database DatabaseConfig
	Log      LogConfig
	Counsel  CounselConfig
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	webex, err := loadWebexConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:   server,
		AI:       ai,
		Webex:    webex,
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Log: LogConfig{
			Level:          getEnvOrDefault("LOG_LEVEL", "debug"),
			TelegramToken:  strings.TrimSpace(os.Getenv("LOG_TELEGRAM_TOKEN")),
			TelegramChatID: strings.TrimSpace(os.Getenv("LOG_TELEGRAM_CHAT_ID")),
		},
		Counsel: CounselConfig{
			CrisisMarker: getEnvOrDefault("COUNSEL_CRISIS_MARKER", DefaultCrisisMarker),
			Greeting:     getEnvOrDefault("COUNSEL_GREETING", DefaultGreeting),
			Apology:      getEnvOrDefault("COUNSEL_APOLOGY", DefaultApology),
		},
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, oops.In("config").Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `validate:"required"`
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "4000"
	}

	if strings.Contains(port, ":") {
		// Allow ":4000" or "127.0.0.1:4000".
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, oops.In("config").Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the language model backing the chat and summary oracles.
type AIConfig struct {
	Provider           string `validate:"oneof=ark openai"`
	APIKey             string
	AccessKey          string
	SecretKey          string
	Model              string
	SummaryModel       string
	BaseURL            string
	Region             string
	Temperature        *float64 `validate:"omitempty,gte=0,lte=2"`
	SummaryTemperature *float64 `validate:"omitempty,gte=0,lte=2"`
	MaxTokens          *int     `validate:"omitempty,gt=0"`
	Timeout            time.Duration
}

// Enabled reports whether credentials and a model are present.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderOpenAI {
		return c.APIKey != ""
	}
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context, temperature *float64) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + AI_MODEL or an AK/SK pair")
	}

	var temp *float32
	if temperature != nil {
		val := float32(*temperature)
		temp = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	var timeout *time.Duration
	if c.Timeout > 0 {
		val := c.Timeout
		timeout = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temp,
		Timeout:     timeout,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		val := 0.7
		temperature = &val
	}

	summaryTemperature, err := parseOptionalFloatEnv("AI_SUMMARY_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if summaryTemperature == nil {
		val := 0.3
		summaryTemperature = &val
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		val := 500
		maxTokens = &val
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	baseURL := getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	if provider == ProviderArk {
		apiKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		baseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	}

	chatModel := getEnvOrDefault("AI_MODEL", "gpt-4o-mini")

	return AIConfig{
		Provider:           provider,
		APIKey:             apiKey,
		AccessKey:          strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:          strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:              chatModel,
		SummaryModel:       getEnvOrDefault("AI_SUMMARY_MODEL", chatModel),
		BaseURL:            baseURL,
		Region:             getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:        temperature,
		SummaryTemperature: summaryTemperature,
		MaxTokens:          maxTokens,
		Timeout:            timeout,
	}, nil
}

// WebexConfig describes the meeting provider.
type WebexConfig struct {
	Token           string
	BaseURL         string        `validate:"required,url"`
	WebhookSecret   string
	MeetingDuration time.Duration `validate:"gt=0"`
	// Outbound meeting creations allowed per minute.
	RatePerMinute int `validate:"gte=0"`
	Timeout       time.Duration
}

// Enabled reports whether a Webex token was provided.
func (c WebexConfig) Enabled() bool {
	return c.Token != ""
}

func loadWebexConfig() (WebexConfig, error) {
	duration, err := parseDurationEnv("WEBEX_MEETING_DURATION", time.Hour)
	if err != nil {
		return WebexConfig{}, err
	}

	timeout, err := parseDurationEnv("WEBEX_TIMEOUT", 30*time.Second)
	if err != nil {
		return WebexConfig{}, err
	}

	rate := 30
	if override, err := parseOptionalIntEnv("WEBEX_RATE_PER_MINUTE"); err != nil {
		return WebexConfig{}, err
	} else if override != nil {
		rate = *override
	}

	return WebexConfig{
		Token:           strings.TrimSpace(os.Getenv("WEBEX_ACCESS_TOKEN")),
		BaseURL:         getEnvOrDefault("WEBEX_BASE_URL", "https://webexapis.com/v1"),
		WebhookSecret:   strings.TrimSpace(os.Getenv("WEBEX_WEBHOOK_SECRET")),
		MeetingDuration: duration,
		RatePerMinute:   rate,
		Timeout:         timeout,
	}, nil
}

// DatabaseConfig points at Postgres. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL string
}

// LogConfig controls log sinks.
type LogConfig struct {
	Level          string `validate:"oneof=debug info warn error"`
	TelegramToken  string
	TelegramChatID string `validate:"required_with=TelegramToken"`
}

const (
	DefaultCrisisMarker = "[CRISIS]"
	DefaultGreeting     = "Hi, I'm here to listen. How are you feeling today?"
	DefaultApology      = "Sorry, I couldn't respond just now. Please try again in a moment."
)

// CounselConfig holds the fixed texts of the conversation flow.
type CounselConfig struct {
	CrisisMarker string `validate:"required"`
	Greeting     string `validate:"required"`
	Apology      string `validate:"required"`
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, oops.In("config").Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, oops.In("config").Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, oops.In("config").Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
