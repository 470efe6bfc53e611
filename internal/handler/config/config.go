package config

import "time"

type Config struct {
	ServerAddr  string
	TokenSecret string
	// секрет сгенерирован при запуске, токены не переживут перезапуск
	TokenSecretGenerated bool
	TokenTTL             time.Duration
	ShutdownTimeout      time.Duration
}
