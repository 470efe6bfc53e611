package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	serviceConfig "github.com/iurnickita/repairshop/internal/service/config"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, envMap(nil))
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", cfg.Handler.ServerAddr)
	require.Equal(t, "", cfg.Store.DBDsn)
	require.Equal(t, "info", cfg.Logger.LogLevel)
	require.Equal(t, 12*time.Hour, cfg.Handler.TokenTTL)
	require.Equal(t, serviceConfig.StockPolicyWarn, cfg.Service.StockPolicy)
	require.True(t, cfg.Handler.TokenSecretGenerated)
	require.NotEmpty(t, cfg.Handler.TokenSecret)
}

func TestParseEnvOverridesFlags(t *testing.T) {
	cfg, err := Parse(
		[]string{"-a", ":9000", "-d", "postgres://flag", "--stock-policy", "warn"},
		envMap(map[string]string{
			"DATABASE_URI": "postgres://env",
			"TOKEN_SECRET": "s3cret",
			"STOCK_POLICY": "block",
			"TOKEN_TTL":    "30m",
		}))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Handler.ServerAddr)
	require.Equal(t, "postgres://env", cfg.Store.DBDsn)
	require.Equal(t, serviceConfig.StockPolicyBlock, cfg.Service.StockPolicy)
	require.Equal(t, 30*time.Minute, cfg.Handler.TokenTTL)
}

func TestParseRejectsUnknownPolicy(t *testing.T) {
	_, err := Parse([]string{"--stock-policy", "ignore"}, envMap(nil))
	require.Error(t, err)

	_, err = Parse(nil, envMap(map[string]string{"TOKEN_TTL": "soon"}))
	require.Error(t, err)
}

func TestParseTokenSecret(t *testing.T) {
	// с базой данных без секрета сервер не стартует
	_, err := Parse([]string{"-d", "postgres://flag"}, envMap(nil))
	require.ErrorIs(t, err, ErrTokenSecretRequired)
	_, err = Parse(nil, envMap(map[string]string{"DATABASE_URI": "postgres://env"}))
	require.ErrorIs(t, err, ErrTokenSecretRequired)

	cfg, err := Parse([]string{"-d", "postgres://flag", "-s", "flag-secret"}, envMap(nil))
	require.NoError(t, err)
	require.Equal(t, "flag-secret", cfg.Handler.TokenSecret)
	require.False(t, cfg.Handler.TokenSecretGenerated)

	// без базы каждый запуск получает свой секрет
	first, err := Parse(nil, envMap(nil))
	require.NoError(t, err)
	second, err := Parse(nil, envMap(nil))
	require.NoError(t, err)
	require.NotEqual(t, first.Handler.TokenSecret, second.Handler.TokenSecret)
}
