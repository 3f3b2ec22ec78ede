package ratelimit

import (
	"strings"
)

// unlimited is returned for requests that are never throttled.
var unlimited = EndpointConfig{Limit: 0}

// MatchEndpoint returns the configuration for path and method, or nil when the
// default limit applies. Exact paths win over prefixes; a config path ending
// in "/" matches every path below it.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if (path == "/health" && method == "GET") || method == "OPTIONS" {
		u := unlimited
		return &u
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
