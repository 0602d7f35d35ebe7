// Package config loads and validates the process configuration. Everything
// here is fixed at startup and never mutated afterwards.
package config

import (
	"time"
)

// Mode selects how a resolved file is delivered to the client.
type Mode string

const (
	// ModeDirect streams the file's bytes in the response body.
	ModeDirect Mode = "direct"
	// ModeSendfile hands the transfer to the upstream httpd via X-Sendfile.
	ModeSendfile Mode = "sendfile"
	// ModeAccelRedirect hands the transfer to nginx via X-Accel-Redirect.
	ModeAccelRedirect Mode = "accel-redirect"
)

// Config stores all the config options relevant to caseproxy.
type Config struct {
	General   General
	Serving   Serving
	DirCache  DirCache
	RateLimit RateLimit
	Server    Server
	Log       Log
	Sentry    Sentry
}

// General groups settings that can not be categorized under other head.
type General struct {
	Host       string
	Port       int
	SocketPath string
	RootDir    string
	URLPrefix  string

	MetricsAddress             string
	MaxConns                   int
	ProxyProtocol              bool
	DisableCrossOriginRequests bool
	ShowVersion                bool
}

// Serving groups the delivery mode settings.
type Serving struct {
	Mode        Mode
	NginxPrefix string
}

// DirCache bounds the directory entry cache.
type DirCache struct {
	MaxEntries int64
	Expiry     time.Duration
}

// RateLimit groups source IP rate limit settings.
type RateLimit struct {
	SourceIPLimitPerSecond float64
	SourceIPBurst          int
}

// Server groups HTTP server timeouts.
type Server struct {
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

// Log groups settings related to configuring logging.
type Log struct {
	Format  string
	Verbose bool
}

// Sentry groups settings related to configuring Sentry.
type Sentry struct {
	DSN         string
	Environment string
}

func servingFromFlags() Serving {
	switch {
	case useSendfile:
		return Serving{Mode: ModeSendfile}
	case nginxPrefix != "":
		return Serving{Mode: ModeAccelRedirect, NginxPrefix: nginxPrefix}
	default:
		return Serving{Mode: ModeDirect}
	}
}

func loadConfig() (*Config, error) {
	config := &Config{
		General: General{
			Host:                       host,
			Port:                       port,
			SocketPath:                 socketPath,
			RootDir:                    rootPath,
			URLPrefix:                  urlPrefix,
			MetricsAddress:             *metricsAddress,
			MaxConns:                   *maxConns,
			ProxyProtocol:              *proxyProtocol,
			DisableCrossOriginRequests: *disableCrossOriginRequests,
			ShowVersion:                *showVersion,
		},
		Serving: servingFromFlags(),
		DirCache: DirCache{
			MaxEntries: *dirCacheEntries,
			Expiry:     *dirCacheExpiry,
		},
		RateLimit: RateLimit{
			SourceIPLimitPerSecond: *rateLimitSourceIP,
			SourceIPBurst:          *rateLimitSourceIPBurst,
		},
		Server: Server{
			ReadTimeout:       *serverReadTimeout,
			ReadHeaderTimeout: *serverReadHeaderTimeout,
			WriteTimeout:      *serverWriteTimeout,
			ShutdownTimeout:   *serverShutdownTimeout,
		},
		Log: Log{
			Format:  *logFormat,
			Verbose: *logVerbose,
		},
		Sentry: Sentry{
			DSN:         *sentryDSN,
			Environment: *sentryEnvironment,
		},
	}

	return config, validateConfig(config)
}

// LoadConfig parses flags and validates the result. Validation failures
// are fatal to startup; the process never runs half-configured.
func LoadConfig() (*Config, error) {
	initFlags()

	return loadConfig()
}
