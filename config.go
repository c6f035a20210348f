package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Port     int            `json:"port"`
	Env      string         `json:"env"`
	Database PostgresConfig `json:"database"`
	Nats     NatsConfig     `json:"nats"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// NatsConfig configures the event sink. An empty URL means events go to the
// structured log instead of a bus.
type NatsConfig struct {
	URL string `json:"url"`
}

// RedisConfig configures the optional trending cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr        string `json:"addr"`
	TrendingTTL int    `json:"trending_ttl_seconds"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (pc PostgresConfig) Dialect() string {
	return "postgres"
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:     1111,
		Env:      "dev",
		Database: DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "wtf_social",
	}
}

// LoadConfig loads configuration from a .config.json file if present,
// otherwise it falls back to the default dev setup. In production the file
// is required, so that the app never silently runs on dev defaults.
func LoadConfig(required bool) Config {
	f, err := os.Open(".config.json")
	if err != nil {
		if required {
			panic(err)
		}
		return DefaultConfig()
	}
	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		panic(err)
	}
	fmt.Println("Successfully loaded .config.json")
	return c
}
