package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/RecoveryAshes/imgscrape/internal/utils"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix 环境变量前缀,如 IMGSCRAPE_SINK_JPEG_QUALITY
	EnvPrefix = "IMGSCRAPE"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

// Config 应用程序配置
type Config struct {
	Search  models.SearchConfig  `mapstructure:"search"`
	Browser models.BrowserConfig `mapstructure:"browser"`
	HTTP    models.HTTPConfig    `mapstructure:"http"`
	Sink    models.SinkConfig    `mapstructure:"sink"`
	Output  OutputConfig         `mapstructure:"output"`
	Logging LoggingConfig        `mapstructure:"logging"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
	Report  bool   `mapstructure:"report"`
}

// CLIOptions 命令行中显式指定的参数,零值表示未指定
type CLIOptions struct {
	OutputDir   string
	ShowBrowser bool
	LogLevel    string
}

// LoadConfig 加载配置
// 优先级: 默认值 < 配置文件 < .env/环境变量 (命令行参数由MergeCLIFlags合并)
func LoadConfig(configPath string) (*Config, error) {
	// .env不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &models.ConfigError{FilePath: ".env", Cause: err}
	}

	v := viper.New()

	if configPath != "" {
		// 使用指定的配置文件
		if err := validateFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".imgscrape"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 未指定配置文件且默认位置不存在时使用默认值
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// validateFileSize 配置文件不能超过MaxConfigFileSize
func validateFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &models.ConfigError{FilePath: path, Cause: fmt.Errorf("无法读取配置文件信息: %w", err)}
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: path,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 检索配置默认值
	v.SetDefault("search.url_template", "https://www.google.com/search?tbm=isch&q=%s")
	v.SetDefault("search.thumbnail_selector", "img.Q4LuWd")
	v.SetDefault("search.preview_selector", "img.iPVvYb")
	v.SetDefault("search.preview_timeout", 10*time.Second)
	v.SetDefault("search.click_timeout", 5*time.Second)
	v.SetDefault("search.max_stall_passes", 5)
	v.SetDefault("search.interaction_interval", time.Duration(0))
	v.SetDefault("search.scroll_pause", time.Second)
	v.SetDefault("search.inline_payloads", true)

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.min_free_memory_mb", 512)

	// 下载配置默认值
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_body_size", 20*1024*1024)

	// 写入配置默认值
	v.SetDefault("sink.jpeg_quality", 85)
	v.SetDefault("sink.max_dimension", 0)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "images")
	v.SetDefault("output.report", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.log_dir", "")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// MergeCLIFlags 合并命令行参数到配置,命令行优先于配置文件
func (c *Config) MergeCLIFlags(opts CLIOptions) {
	if opts.OutputDir != "" {
		c.Output.BaseDir = opts.OutputDir
	}
	if opts.ShowBrowser {
		c.Browser.Headless = false
	}
	if opts.LogLevel != "" {
		c.Logging.Level = opts.LogLevel
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search配置无效: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http配置无效: %w", err)
	}
	if err := c.Sink.Validate(); err != nil {
		return fmt.Errorf("sink配置无效: %w", err)
	}
	if strings.TrimSpace(c.Output.BaseDir) == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	if c.Browser.MinFreeMemoryMB < 0 {
		return fmt.Errorf("最小空闲内存不能为负数")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", c.Logging.Level, err)
	}
	return nil
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig(verbose bool) utils.LogConfig {
	return utils.LogConfig{
		Verbose:    verbose,
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
