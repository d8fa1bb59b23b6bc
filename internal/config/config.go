package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Wall    WallConfig
	AI      AIConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	wall, err := loadWallConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Gateway: gateway, Wall: wall, AI: ai, Log: logCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// GatewayConfig 描述远端记录存储（Airtable）的访问配置。
type GatewayConfig struct {
	BaseID       string
	APIKey       string
	BaseURL      string
	ThreadsTable string
	DropsTable   string
	RPS          float64
	Timeout      time.Duration
}

// Enabled 表示是否提供了远端存储凭证。
func (c GatewayConfig) Enabled() bool {
	return c.BaseID != "" && c.APIKey != ""
}

func loadGatewayConfig() (GatewayConfig, error) {
	rps := 5.0
	if override, err := parseOptionalFloatEnv("AIRTABLE_RPS"); err != nil {
		return GatewayConfig{}, err
	} else if override != nil && *override > 0 {
		rps = *override
	}

	timeout, err := parseDurationEnv("AIRTABLE_TIMEOUT", 10*time.Second)
	if err != nil {
		return GatewayConfig{}, err
	}

	return GatewayConfig{
		BaseID:       strings.TrimSpace(os.Getenv("AIRTABLE_BASE_ID")),
		APIKey:       strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY")),
		BaseURL:      getEnvOrDefault("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
		ThreadsTable: getEnvOrDefault("AIRTABLE_THREADS_TABLE", "Threads"),
		DropsTable:   getEnvOrDefault("AIRTABLE_DROPS_TABLE", "Drops"),
		RPS:          rps,
		Timeout:      timeout,
	}, nil
}

// WallConfig 描述墙面布局与刷新调度配置。
type WallConfig struct {
	ReloadInterval    time.Duration
	ReloadCron        string
	CountdownInterval time.Duration
	TickerInterval    time.Duration
	Capacity          int
	LayoutFile        string
	ZoneBinding       string
	CacheDir          string
	Seed              int64
}

func loadWallConfig() (WallConfig, error) {
	reload, err := parseDurationEnv("WALL_RELOAD_INTERVAL", 30*time.Second)
	if err != nil {
		return WallConfig{}, err
	}
	if reload < time.Second {
		return WallConfig{}, fmt.Errorf("invalid WALL_RELOAD_INTERVAL value %s: must be at least 1s", reload)
	}

	countdown, err := parseDurationEnv("WALL_COUNTDOWN_INTERVAL", time.Second)
	if err != nil {
		return WallConfig{}, err
	}

	ticker, err := parseDurationEnv("WALL_TICKER_INTERVAL", 20*time.Second)
	if err != nil {
		return WallConfig{}, err
	}

	cronExpr := strings.TrimSpace(os.Getenv("WALL_RELOAD_CRON"))
	if cronExpr != "" && !gronx.IsValid(cronExpr) {
		return WallConfig{}, fmt.Errorf("invalid WALL_RELOAD_CRON value %q", cronExpr)
	}

	capacity := 150
	if override, err := parseOptionalIntEnv("WALL_CAPACITY"); err != nil {
		return WallConfig{}, err
	} else if override != nil && *override > 0 {
		capacity = *override
	}

	binding := strings.ToLower(getEnvOrDefault("WALL_ZONE_BINDING", "independent"))
	if binding != "independent" && binding != "glyph" {
		return WallConfig{}, fmt.Errorf("invalid WALL_ZONE_BINDING value %q", binding)
	}

	var seed int64
	if override, err := parseOptionalIntEnv("WALL_SEED"); err != nil {
		return WallConfig{}, err
	} else if override != nil {
		seed = int64(*override)
	} else {
		seed = time.Now().UnixNano()
	}

	return WallConfig{
		ReloadInterval:    reload,
		ReloadCron:        cronExpr,
		CountdownInterval: countdown,
		TickerInterval:    ticker,
		Capacity:          capacity,
		LayoutFile:        strings.TrimSpace(os.Getenv("WALL_LAYOUT_FILE")),
		ZoneBinding:       binding,
		CacheDir:          strings.TrimSpace(os.Getenv("WALL_CACHE_DIR")),
		Seed:              seed,
	}, nil
}

// AIConfig 描述情绪建议所用的大模型配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
	Enabled     bool
}

// Ready 表示是否提供了必需的密钥并启用了大模型分类。
func (c AIConfig) Ready() bool {
	return c.Enabled && c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	enabled, err := parseBoolEnv("AI_EMOTION_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Enabled:     enabled,
	}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}

	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", level)
	}

	return LogConfig{Level: level, Development: dev}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
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
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
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
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
