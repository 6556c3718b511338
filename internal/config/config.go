package config

import (
	"errors"
	"fmt"
	"self-checkout/internal/alert"
	"self-checkout/internal/catalog"
	"self-checkout/internal/money"
	"strings"

	"github.com/spf13/viper"
)

// 商品目录来源
const (
	SourceFile   = "file"
	SourceRedis  = "redis"
	SourceRemote = "remote"
)

// Config 定义应用程序的配置结构
// 使用 mapstructure 标签来映射配置文件中的字段
type Config struct {
	Station     StationConfig `mapstructure:"station"`
	Catalog     CatalogConfig `mapstructure:"catalog"`
	Server      ServerConfig  `mapstructure:"server"`
	JournalPath string        `mapstructure:"journal_path"` // 交易日志文件，为空时不写日志
	Alerts      []alert.Rule  `mapstructure:"alerts"`       // 店员告警规则
}

// StationConfig 收银台硬件与交易参数
type StationConfig struct {
	ID          string   `mapstructure:"id"`
	Sensitivity float64  `mapstructure:"sensitivity_g"`  // 秤的容差（克）
	WeightLimit float64  `mapstructure:"weight_limit_g"` // 秤的量程（克）
	BagCode     string   `mapstructure:"bag_code"`       // 塑料袋的商品编码
	Coins       []string `mapstructure:"coins"`          // 投币口接受的面额
	Banknotes   []string `mapstructure:"banknotes"`      // 入钞口接受的面额
	QueueSize   int      `mapstructure:"queue_size"`
}

// CatalogConfig 商品目录来源配置
type CatalogConfig struct {
	Source      string          `mapstructure:"source"` // file | redis | remote
	RedisAddr   string          `mapstructure:"redis_addr"`
	RedisPrefix string          `mapstructure:"redis_prefix"`
	RemoteURL   string          `mapstructure:"remote_url"`
	Products    []catalog.Entry `mapstructure:"products"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoadConfig 从 config.yaml 文件加载配置
// paths 为查找配置文件的目录，为空时使用当前目录
// 环境变量以 CHECKOUT_ 为前缀覆盖配置项，例如 CHECKOUT_STATION_ID
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // 配置文件名称 (不带扩展名)
	v.SetConfigType("yaml")   // 配置文件类型
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	v.SetDefault("station.id", "lane-1")
	v.SetDefault("station.sensitivity_g", 10.0)
	v.SetDefault("station.weight_limit_g", 30000.0)
	v.SetDefault("station.bag_code", "BAG")
	v.SetDefault("station.coins", []string{"0.05", "0.10", "0.25", "1.00", "2.00"})
	v.SetDefault("station.banknotes", []string{"5.00", "10.00", "20.00", "50.00", "100.00"})
	v.SetDefault("station.queue_size", 64)
	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.redis_addr", "localhost:6379")
	v.SetDefault("catalog.redis_prefix", "checkout:product:")
	v.SetDefault("catalog.remote_url", "http://localhost:9090")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("journal_path", "transactions.wal")

	// 读取配置文件；找不到文件时只使用默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 将配置解析到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置的一致性
func (c *Config) Validate() error {
	if c.Station.Sensitivity < 0 {
		return fmt.Errorf("station.sensitivity_g 不能为负数: %v", c.Station.Sensitivity)
	}
	if c.Station.WeightLimit <= 0 {
		return fmt.Errorf("station.weight_limit_g 必须大于 0: %v", c.Station.WeightLimit)
	}
	switch c.Catalog.Source {
	case SourceFile, SourceRedis, SourceRemote:
	default:
		return fmt.Errorf("未知的商品目录来源: %q", c.Catalog.Source)
	}
	if _, _, err := c.Station.Denominations(); err != nil {
		return err
	}
	return nil
}

// Denominations 解析硬币和纸币面额
func (s StationConfig) Denominations() (coins, banknotes []money.Cents, err error) {
	coins, err = parseAll(s.Coins)
	if err != nil {
		return nil, nil, fmt.Errorf("station.coins: %w", err)
	}
	banknotes, err = parseAll(s.Banknotes)
	if err != nil {
		return nil, nil, fmt.Errorf("station.banknotes: %w", err)
	}
	return coins, banknotes, nil
}

// AllDenominations 返回账本可接受的全部面额
func (s StationConfig) AllDenominations() ([]money.Cents, error) {
	coins, banknotes, err := s.Denominations()
	if err != nil {
		return nil, err
	}
	return append(coins, banknotes...), nil
}

func parseAll(values []string) ([]money.Cents, error) {
	out := make([]money.Cents, 0, len(values))
	for _, s := range values {
		c, err := money.Parse(s)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			return nil, fmt.Errorf("%w: zero denomination", money.ErrInvalidAmount)
		}
		out = append(out, c)
	}
	return out, nil
}
