package config

import "time"

type Config struct {
	PushAddr string        `yaml:"push_addr"`
	Cooldown time.Duration `yaml:"cooldown"`
}
