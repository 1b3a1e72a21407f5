package config

import (
	"net"
	"net/url"
	"strings"
)

// Deployment environments. Staging and production refuse local infrastructure.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// normalizeEnvironment folds SHIFTPAY_SERVER_ENVIRONMENT to a known name,
// treating an empty value as development
func normalizeEnvironment(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return EnvDevelopment
	}
	return env
}

func isProductionLike(env string) bool {
	env = normalizeEnvironment(env)
	return env == EnvStaging || env == EnvProduction
}

// pointsAtLocalhost reports whether a database or broker URL targets this machine
func pointsAtLocalhost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return isLocalHost(u.Hostname())
}

func isLocalHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
