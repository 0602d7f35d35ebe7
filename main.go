package main

import (
	"fmt"
	"os"

	"gitlab.com/gitlab-org/go-mimedb"
	"gitlab.com/gitlab-org/labkit/errortracking"
	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/caseproxy/caseproxy/internal/config"
	"gitlab.com/caseproxy/caseproxy/internal/logging"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

// VERSION stores the information about the semantic version of application
var VERSION = "dev"

// REVISION stores the information about the git revision of application
var REVISION = "HEAD"

var errorLogger = log.WithField("system", "startup")

func main() {
	metrics.MustRegister()

	appMain()
}

func appMain() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fatal(err, "invalid configuration")
	}

	if cfg.General.ShowVersion {
		fmt.Printf("caseproxy %s (%s)\n", VERSION, REVISION)
		os.Exit(0)
	}

	if err := logging.ConfigureLogging(cfg.Log.Format, cfg.Log.Verbose); err != nil {
		fatal(err, "could not initialize logging")
	}

	if err := mimedb.LoadTypes(); err != nil {
		log.WithError(err).Warn("could not load the extended MIME database")
	}

	if cfg.Sentry.DSN != "" {
		initErrorReporting(cfg.Sentry.DSN, cfg.Sentry.Environment)
	}

	log.WithFields(log.Fields{
		"version":  VERSION,
		"revision": REVISION,
	}).Print("caseproxy daemon")

	runApp(cfg)
}

func initErrorReporting(sentryDSN, sentryEnvironment string) {
	err := errortracking.Initialize(
		errortracking.WithSentryDSN(sentryDSN),
		errortracking.WithVersion(fmt.Sprintf("%s-%s", VERSION, REVISION)),
		errortracking.WithLoggerName("caseproxy"),
		errortracking.WithSentryEnvironment(sentryEnvironment),
	)
	if err != nil {
		log.WithError(err).Warn("could not initialize errortracking")
	}
}

func fatal(err error, message string) {
	errorLogger.WithError(err).Fatal(message)
}
