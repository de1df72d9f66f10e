package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckOrigin_Allows_Configured_Origin(t *testing.T) {
	req := require.New(t)
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"http://example.com"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://example.com")

	req.True(checkOrigin(r))
}

func TestCheckOrigin_Normalizes_Case(t *testing.T) {
	req := require.New(t)
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"http://Example.COM"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "HTTP://example.com")

	req.True(checkOrigin(r))
}

func TestCheckOrigin_Blocks_Unlisted_Origin(t *testing.T) {
	req := require.New(t)
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"http://example.com"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://evil.example.net")

	req.False(checkOrigin(r))
}

func TestCheckOrigin_Blocks_Missing_Or_Malformed_Origin(t *testing.T) {
	req := require.New(t)
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"http://example.com"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	req.False(checkOrigin(r))

	r.Header.Set("Origin", "not-a-url")
	req.False(checkOrigin(r))

	r.Header.Set("Origin", "://missing-scheme")
	req.False(checkOrigin(r))
}

func TestCheckOrigin_Wildcard_Allows_Anything(t *testing.T) {
	req := require.New(t)
	defer SetConfig(nil)
	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://anywhere.example.org")

	req.True(checkOrigin(r))
}

func TestNormalizeOrigins_Drops_Invalid_Entries(t *testing.T) {
	req := require.New(t)

	normalized, allowAll := normalizeOrigins([]string{
		"http://example.com", " ", "not-a-url", "*",
	})

	req.True(allowAll)
	req.Equal([]string{"http://example.com"}, normalized)
}
