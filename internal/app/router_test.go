package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lycanzy/experimentdocumentationapp/internal/config"
)

func TestBuildCORSConfig_DefaultsToAllowlistWhenOriginsEmpty(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:        nil,
			AllowCredentials:      true,
			UnsafeAllowAllOrigins: false,
		},
	}

	got := buildCORSConfig(cfg)
	assert.False(t, got.AllowAllOrigins)
	assert.True(t, got.AllowCredentials)
	assert.Equal(t, defaultDevOrigins, got.AllowOrigins)
}

func TestBuildCORSConfig_StripsWildcardUnlessUnsafeFlagEnabled(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:        []string{"*", " https://lab.example.com "},
			AllowCredentials:      true,
			UnsafeAllowAllOrigins: false,
		},
	}

	got := buildCORSConfig(cfg)
	assert.False(t, got.AllowAllOrigins)
	assert.Equal(t, []string{"https://lab.example.com"}, got.AllowOrigins)
}

func TestBuildCORSConfig_UnsafeAllowAllDisablesCredentials(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:        []string{"*"},
			AllowCredentials:      true,
			UnsafeAllowAllOrigins: true,
		},
	}

	got := buildCORSConfig(cfg)
	assert.True(t, got.AllowAllOrigins)
	assert.False(t, got.AllowCredentials)
	assert.Empty(t, got.AllowOrigins)
	assert.NoError(t, got.Validate())
}
