// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"crypto/subtle"

	"github.com/amirphl/infobip-sms-bridge/app/dto"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/gofiber/fiber/v3"
)

const defaultAPIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards internal endpoints with static API keys
type APIKeyMiddleware struct {
	header  string
	keys    [][]byte
	enabled bool
}

// NewAPIKeyMiddleware creates a new API key middleware from the security config
func NewAPIKeyMiddleware(cfg config.SecurityConfig) *APIKeyMiddleware {
	header := cfg.APIKeyHeader
	if header == "" {
		header = defaultAPIKeyHeader
	}
	keys := make([][]byte, 0, len(cfg.AllowedAPIKeys))
	for _, k := range cfg.AllowedAPIKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &APIKeyMiddleware{
		header:  header,
		keys:    keys,
		enabled: cfg.RequireAPIKey,
	}
}

// Authenticate rejects requests that do not carry an allowed key
func (m *APIKeyMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}

		key := c.Get(m.header)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}

		if !m.allowed([]byte(key)) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}

		return c.Next()
	}
}

func (m *APIKeyMiddleware) allowed(key []byte) bool {
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare(k, key) == 1 {
			return true
		}
	}
	return false
}
