package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-analytics/internal/common"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName 也是默认配置文件名 (hr-analytics.yaml)
	AppName   = "hr-analytics"
	envPrefix = "HR"

	DefaultJobDescription = "General software engineering role. Evaluate overall technical skills, experience and education."
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Feishu   FeishuConfig   `mapstructure:"feishu"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// 上传文件大小上限 (字节)
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type GitHubConfig struct {
	Token      string        `mapstructure:"token"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
	Workers    int           `mapstructure:"workers" validate:"gte=1"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=gcs local"`
	Bucket  string `mapstructure:"bucket" validate:"required_if=Backend gcs"`
	// GCS 服务账号凭证文件，为空时使用默认凭证
	CredentialsFile string `mapstructure:"credentials_file"`
	Dir             string `mapstructure:"dir" validate:"required_if=Backend local"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	MaxRetries      int    `mapstructure:"max_retries" validate:"gte=0"`
}

type FeishuConfig struct {
	Webhook string `mapstructure:"webhook"`
	// 总分达到该值推送，<= 0 关闭推送
	MinTotalScore float64 `mapstructure:"min_total_score"`
	MaxRetries    int     `mapstructure:"max_retries" validate:"gte=0"`
}

type ScoringConfig struct {
	Timeout               time.Duration `mapstructure:"timeout"`
	DefaultJobDescription string        `mapstructure:"default_job_description"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults 写入默认值；AutomaticEnv 只对已知的 key 生效，所以每个 key 都要有默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("database.dsn", "")

	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.timeout", 30*time.Second)
	v.SetDefault("github.max_retries", 0)
	v.SetDefault("github.workers", 4)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("storage.dir", "./data/resumes")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.max_retries", 2)

	v.SetDefault("feishu.webhook", "")
	v.SetDefault("feishu.min_total_score", 70)
	v.SetDefault("feishu.max_retries", 3)

	v.SetDefault("scoring.timeout", 2*time.Minute)
	v.SetDefault("scoring.default_job_description", DefaultJobDescription)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load 读取配置，优先级：环境变量 > 配置文件 > 默认值
// cfgFile 为空时在当前目录查找 hr-analytics.yaml，找不到也不算错
// .env 文件 (如果存在) 会先被加载进环境变量
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容不带前缀的常见变量名
	bindings := map[string][]string{
		"github.token":   {"HR_GITHUB_TOKEN", "GITHUB_API_TOKEN"},
		"gemini.api_key": {"HR_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"feishu.webhook": {"HR_FEISHU_WEBHOOK", "FEISHU_WEBHOOK"},
		"database.dsn":   {"HR_DATABASE_DSN", "DATABASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, common.WrapError(common.ErrCodeInvalidInput, "绑定环境变量失败", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, common.WrapError(common.ErrCodeInvalidInput, "读取配置文件失败", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, "解析配置失败", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("配置不合法: %v", err), err)
	}
	return nil
}
