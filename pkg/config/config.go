package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

const envPrefix = "PRESS"

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AdminPassword string `yaml:"adminPassword"`
}

type FeishuConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`
}

type StoreConfig struct {
	Kind     string `yaml:"kind"` // "file"|"mongo"
	FilePath string `yaml:"filePath"`
}

type MongoConfig struct {
	Host       string `yaml:"host"`
	DBName     string `yaml:"dbname"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	AuthSource string `yaml:"authSource"`
}

type SchedulerConfig struct {
	// WarmInterval 定时预热 token 的间隔，0 表示关闭
	WarmInterval time.Duration `yaml:"warmInterval"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Feishu    FeishuConfig    `yaml:"feishu"`
	Store     StoreConfig     `yaml:"store"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Feishu: FeishuConfig{
			BaseURL:     "https://open.feishu.cn/open-apis",
			HTTPTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Kind:     StoreFile,
			FilePath: "feishu-config.json",
		},
		Mongo: MongoConfig{
			Host:       "localhost:27017",
			DBName:     "press",
			AuthSource: "admin",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig 读 YAML（文件不存在时用默认值），再用 PRESS_* 环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 用 viper 读 PRESS_* 环境变量，非空才覆盖
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	setString(v, &cfg.Server.Addr, "addr")
	setString(v, &cfg.Server.AdminPassword, "admin_password")
	setString(v, &cfg.Feishu.BaseURL, "feishu_base_url")
	setString(v, &cfg.Store.Kind, "store")
	setString(v, &cfg.Store.FilePath, "config_file")
	setString(v, &cfg.Mongo.Host, "mongo_host")
	setString(v, &cfg.Mongo.DBName, "mongo_db")
	setString(v, &cfg.Mongo.Username, "mongo_username")
	setString(v, &cfg.Mongo.Password, "mongo_password")
	setString(v, &cfg.Log.Level, "log_level")

	if s := v.GetString("log_development"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%s_LOG_DEVELOPMENT: %w", envPrefix, err)
		}
		cfg.Log.Development = b
	}
	if s := v.GetString("warm_interval"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s_WARM_INTERVAL: %w", envPrefix, err)
		}
		cfg.Scheduler.WarmInterval = d
	}
	return nil
}

func setString(v *viper.Viper, field *string, key string) {
	if s := v.GetString(key); s != "" {
		*field = s
	}
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Feishu.BaseURL == "" {
		return errors.New("feishu.baseURL is required")
	}
	if c.Feishu.HTTPTimeout <= 0 {
		return fmt.Errorf("feishu.httpTimeout must be positive: %s", c.Feishu.HTTPTimeout)
	}
	switch c.Store.Kind {
	case StoreFile:
		if c.Store.FilePath == "" {
			return errors.New("store.filePath is required for file store")
		}
	case StoreMongo:
		if c.Mongo.Host == "" || c.Mongo.DBName == "" {
			return errors.New("mongo.host and mongo.dbname are required for mongo store")
		}
	default:
		return fmt.Errorf("store.kind must be file or mongo: %s", c.Store.Kind)
	}
	if c.Scheduler.WarmInterval < 0 {
		return fmt.Errorf("scheduler.warmInterval must not be negative: %s", c.Scheduler.WarmInterval)
	}
	return nil
}
