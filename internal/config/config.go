package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	LLMAPIKey     string `env:"LLM_API_KEY,required"`
	LLMBaseURL    string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel      string `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`
	SystemPrompt  string `env:"SYSTEM_PROMPT" envDefault:"You are ANDSE, a highly advanced AI."`
	STTBaseURL    string `env:"STT_BASE_URL"`
	STTAPIKey     string `env:"STT_API_KEY"`
	STTTimeoutSec int    `env:"STT_TIMEOUT_SECONDS" envDefault:"30"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	UploadMaxMB   int64  `env:"UPLOAD_MAX_MB" envDefault:"64"`
	JWTSecret     string `env:"JWT_SECRET"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
