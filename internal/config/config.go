package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	handlerConfig "github.com/yosbany/NRDOperaciones-sub000/internal/handler/config"
	loggerConfig "github.com/yosbany/NRDOperaciones-sub000/internal/logger/config"
	notificationConfig "github.com/yosbany/NRDOperaciones-sub000/internal/notification/config"
	storeConfig "github.com/yosbany/NRDOperaciones-sub000/internal/store/config"
)

type Config struct {
	Handler      handlerConfig.Config      `yaml:"handler"`
	Store        storeConfig.Config        `yaml:"store"`
	Logger       loggerConfig.Config       `yaml:"logger"`
	Notification notificationConfig.Config `yaml:"notification"`
}

// GetConfig arma la configuracion con los defaults, el archivo YAML
// apuntado por OPERACIONES_CONFIG (si existe) y las variables de
// entorno, en ese orden.
func GetConfig() Config {
	cfg := Config{
		Handler:      handlerConfig.Config{ServerAddr: ":8080"},
		Logger:       loggerConfig.Config{LogLevel: "info"},
		Notification: notificationConfig.Config{Cooldown: 6 * time.Hour},
	}

	if path := os.Getenv("OPERACIONES_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, &cfg)
		}
	}

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Handler.ServerAddr = addr
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Store.DBDsn = dsn
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Logger.LogLevel = lvl
	}
	if push := os.Getenv("PUSH_ADDR"); push != "" {
		cfg.Notification.PushAddr = push
	}

	return cfg
}
