// Copyright 2025 Review Feedback Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/review-feedback/internal/config"
)

func TestCorsConfigConcreteOrigins(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{CORSOrigins: "http://localhost:5173,http://localhost:5174"},
	}

	corsCfg := corsConfig(cfg)

	assert.False(t, corsCfg.AllowAllOrigins)
	assert.True(t, corsCfg.AllowCredentials)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, corsCfg.AllowOrigins)
}

func TestCorsConfigWildcardFallback(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{CORSOrigins: ""}}

	corsCfg := corsConfig(cfg)

	assert.True(t, corsCfg.AllowAllOrigins)
	assert.False(t, corsCfg.AllowCredentials)
	assert.Empty(t, corsCfg.AllowOrigins)
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Environment: "production"},
		Logging: config.LoggingConfig{Level: "warn"},
	}

	logger, err := newLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logging: config.LoggingConfig{Level: "verbose"},
	}

	_, err := newLogger(cfg)
	assert.Error(t, err)
}
