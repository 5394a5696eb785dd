package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mveld/tanglewiki/internal/logger"
	"github.com/mveld/tanglewiki/wiki"
)

const configFilename = "config.yaml"

// SetupConfig loads file-based configuration needed for bootstrap. A missing
// config file is not an error: the defaults are written out so the next run
// starts from an editable file.
func SetupConfig() *wiki.Config {
	viper.SetDefault("dbfile", "tanglewiki.db")
	viper.SetDefault("host", "0.0.0.0:8080")
	viper.SetDefault("base_url", "http://localhost:8080")
	viper.SetDefault("log_format", "pretty") // pretty, json, or text
	viper.SetDefault("log_level", "info")    // debug, info, warn, error
	viper.SetDefault("anonymous_role", "member")
	viper.SetDefault("render_timeout_seconds", 5)
	viper.SetDefault("template_max_depth", 20)
	viper.SetDefault("link_concurrency", 8)

	viper.SetConfigFile(configFilename)
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()

	createDefaultConfigFile := false

	if err != nil {
		if strings.Contains(err.Error(), "no such file or directory") {
			createDefaultConfigFile = true
		} else {
			slog.Error("failed to read config", "error", err)
			os.Exit(1)
		}
	}

	logger.InitLogger(
		logger.ParseLogFormat(viper.GetString("log_format")),
		logger.ParseLogLevel(viper.GetString("log_level")),
	)

	config := &wiki.Config{
		DatabaseFile:         viper.GetString("dbfile"),
		Host:                 viper.GetString("host"),
		BaseURL:              viper.GetString("base_url"),
		LogFormat:            viper.GetString("log_format"),
		LogLevel:             viper.GetString("log_level"),
		AnonymousRole:        viper.GetString("anonymous_role"),
		RenderTimeoutSeconds: viper.GetInt("render_timeout_seconds"),
		TemplateMaxDepth:     viper.GetInt("template_max_depth"),
		LinkConcurrency:      viper.GetInt("link_concurrency"),
	}

	if createDefaultConfigFile {
		slog.Info("config not found, writing defaults", "file", configFilename)
		conf, err := os.Create(configFilename)
		if err != nil {
			slog.Error("failed to create config file", "error", err)
			os.Exit(1)
		}
		defer conf.Close()

		if err := yaml.NewEncoder(conf).Encode(config); err != nil {
			slog.Error("failed to write config file", "error", err)
			os.Exit(1)
		}
	}

	return config
}
