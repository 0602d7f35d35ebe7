package config

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	errNoListener        = errors.New("one of -port or -socket-path must be given")
	errListenerExclusive = errors.New("-port and -socket-path are mutually exclusive")
	errModeExclusive     = errors.New("-sendfile and -nginx are mutually exclusive")
	errPortRange         = errors.New("-port must be between 1 and 65535")
	errURLPrefixSlash    = errors.New("-url-prefix must start with /")
)

func validateConfig(config *Config) error {
	var result *multierror.Error

	if config.General.Port == 0 && config.General.SocketPath == "" {
		result = multierror.Append(result, errNoListener)
	}

	if config.General.Port != 0 && config.General.SocketPath != "" {
		result = multierror.Append(result, errListenerExclusive)
	}

	if config.General.Port != 0 && (config.General.Port < 1 || config.General.Port > 65535) {
		result = multierror.Append(result, errPortRange)
	}

	if useSendfile && nginxPrefix != "" {
		result = multierror.Append(result, errModeExclusive)
	}

	if !strings.HasPrefix(config.General.URLPrefix, "/") {
		result = multierror.Append(result, errURLPrefixSlash)
	}

	return result.ErrorOrNil()
}
