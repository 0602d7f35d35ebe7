package config

import (
	"time"

	"github.com/namsral/flag"
)

var (
	host        string
	port        int
	socketPath  string
	rootPath    string
	urlPrefix   string
	useSendfile bool
	nginxPrefix string

	logFormat         = flag.String("log-format", "text", "The log output format: 'text' or 'json'")
	logVerbose        = flag.Bool("log-verbose", false, "Verbose logging")
	metricsAddress    = flag.String("metrics-address", "", "The address to listen on for metrics requests")
	sentryDSN         = flag.String("sentry-dsn", "", "The address for sending sentry crash reporting to")
	sentryEnvironment = flag.String("sentry-environment", "", "The environment for sentry crash reporting")

	dirCacheEntries = flag.Int64("dir-cache-entries", 1024, "Maximum number of directory indexes kept in memory")
	dirCacheExpiry  = flag.Duration("dir-cache-expiry", 5*time.Minute, "Backstop TTL for cached directory indexes")

	maxConns               = flag.Int("max-conns", 0, "Limit on the number of concurrent connections, 0 for no limit")
	proxyProtocol          = flag.Bool("proxy-protocol", false, "Expect the PROXY protocol preamble on accepted TCP connections")
	rateLimitSourceIP      = flag.Float64("rate-limit-source-ip", 0.0, "Rate limit HTTP requests per second from a single IP, 0 means is disabled")
	rateLimitSourceIPBurst = flag.Int("rate-limit-source-ip-burst", 100, "Rate limit HTTP requests from a single IP, maximum burst allowed per second")

	disableCrossOriginRequests = flag.Bool("disable-cross-origin-requests", false, "Disable cross-origin requests")

	// HTTP server timeouts
	serverReadTimeout       = flag.Duration("server-read-timeout", 5*time.Second, "ReadTimeout is the maximum duration for reading the entire request, including the body. A zero or negative value means there will be no timeout.")
	serverReadHeaderTimeout = flag.Duration("server-read-header-timeout", time.Second, "ReadHeaderTimeout is the amount of time allowed to read request headers. A zero or negative value means there will be no timeout.")
	serverWriteTimeout      = flag.Duration("server-write-timeout", 0, "WriteTimeout is the maximum duration before timing out writes of the response. A zero or negative value means there will be no timeout.")
	serverShutdownTimeout   = flag.Duration("server-shutdown-timeout", 30*time.Second, "Server shutdown timeout (default: 30s)")

	showVersion = flag.Bool("version", false, "Show version")
)

// initFlags will be called from LoadConfig. The flags used in day-to-day
// operation each have a short alias.
func initFlags() {
	flag.StringVar(&host, "host", "localhost", "The host to bind the TCP listener to")
	flag.StringVar(&host, "H", "localhost", "Shorthand for -host")
	flag.IntVar(&port, "port", 0, "The TCP port to listen on")
	flag.IntVar(&port, "p", 0, "Shorthand for -port")
	flag.StringVar(&socketPath, "socket-path", "", "The unix socket to listen on instead of TCP")
	flag.StringVar(&socketPath, "s", "", "Shorthand for -socket-path")
	flag.StringVar(&rootPath, "root-path", ".", "The directory files are served from")
	flag.StringVar(&rootPath, "r", ".", "Shorthand for -root-path")
	flag.StringVar(&urlPrefix, "url-prefix", "/", "The URL prefix requests must carry")
	flag.StringVar(&urlPrefix, "u", "/", "Shorthand for -url-prefix")
	flag.BoolVar(&useSendfile, "sendfile", false, "Answer with an X-Sendfile header instead of the file's bytes")
	flag.StringVar(&nginxPrefix, "nginx", "", "Answer with an X-Accel-Redirect header carrying the given URL prefix")

	// read from -config=/path/to/caseproxy-config
	flag.String(flag.DefaultConfigFlagname, "", "path to config file")

	flag.Parse()
}
