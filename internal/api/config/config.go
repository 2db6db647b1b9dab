package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	// 允许使用 GZ_REDIS_ADDR 这类环境变量覆盖
	viper.SetEnvPrefix("GZ")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("im.initial_limit", 50)
	viper.SetDefault("im.limit_step", 25)
	viper.SetDefault("im.recent_markers", 100)
	viper.SetDefault("im.write_back_timeout", 2)
	viper.SetDefault("catalog.base_url", "https://api.rawg.io/api")
	viper.SetDefault("catalog.timeout", 10)
	viper.SetDefault("catalog.cache_ttl", 300)
	viper.SetDefault("minio.presign_expire", 60)
}

var envKeyReplacer = strings.NewReplacer(".", "_")
