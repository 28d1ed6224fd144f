package config

import "os"

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// ListenAddr is the HTTP listen address for the API server.
func ListenAddr() string {
	return getEnv("LISTEN_ADDR", ":8080")
}

// MapboxToken is the access token for the directions provider. Empty
// means the mock provider is used instead.
func MapboxToken() string {
	return os.Getenv("MAPBOX_ACCESS_TOKEN")
}

// LiveUpstreamURL is the websocket URL of a remote live hub. When set,
// tracking traffic is forwarded there instead of the in-process hub.
func LiveUpstreamURL() string {
	return os.Getenv("LIVE_UPSTREAM_URL")
}

// DevTokensEnabled gates the unauthenticated token mint endpoint. Only
// for local development; never enable in production.
func DevTokensEnabled() bool {
	return getEnv("ENABLE_DEV_TOKENS", "false") == "true"
}
