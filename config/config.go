package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
}

type ServerConfig struct {
	Addr string `json:"addr"` // 监听地址，例如 ":8080"
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type KafkaConfig struct {
	Brokers       []string `json:"brokers"`
	GroupID       string   `json:"group_id"`
	OrderTopic    string   `json:"order_topic"` // 订单事件 topic
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	SASLMechanism string   `json:"sasl_mechanism"` // plain / scram-sha-256 / scram-sha-512
	UseTLS        bool     `json:"use_tls"`
	CertFile      string   `json:"cert_file"`
	KeyFile       string   `json:"key_file"`
	CAFile        string   `json:"ca_file"`
}

type OAuthProvider struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURL  string   `json:"redirect_url"`
	Scopes       []string `json:"scopes"`
	AuthURL      string   `json:"auth_url"`  // For custom OAuth providers
	TokenURL     string   `json:"token_url"` // For custom OAuth providers
}

type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenExpiry   int    `json:"token_expiry"`   // in hours
	RefreshExpiry int    `json:"refresh_expiry"` // in hours
	OAuth         struct {
		Google   OAuthProvider            `json:"google"`
		GitHub   OAuthProvider            `json:"github"`
		Facebook OAuthProvider            `json:"facebook"`
		Custom   map[string]OAuthProvider `json:"custom"`
	} `json:"oauth"`
}

func LoadConfig() (config Config, err error) {
	path := os.Getenv("POS_CONFIG")
	if path == "" {
		path = "config/config.json"
	}
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		closeErr := file.Close()
		if closeErr != nil {
			log.Printf("Error closing config file: %v", closeErr)
		}
	}(file)
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	return config, nil
}
