/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package common holds the flags and helpers shared by the wallet-engine commands.
package common

import (
	"strings"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
)

const (
	// EnvVarUsageText is appended to every flag usage.
	EnvVarUsageText = "Alternatively, this can be set with the following environment variable: "

	// LogLevelFlagName is the flag name used for setting the default log level.
	LogLevelFlagName = "log-level"
	// LogLevelEnvKey is the env var name used for setting the default log level.
	LogLevelEnvKey = "WALLET_LOG_LEVEL"
	// LogLevelFlagShorthand is the shorthand flag name used for setting the default log level.
	LogLevelFlagShorthand = "l"
	// LogLevelPrefixFlagUsage is the usage text for the log level flag.
	LogLevelPrefixFlagUsage = "Sets logging levels for individual modules as well as the default level. " +
		"The format of the string is as follows: module1=level1:module2=level2:defaultLevel. " +
		"Supported levels are: ERROR, WARNING, INFO, DEBUG. " +
		"Example: openid4ci=DEBUG:httprequest=WARNING:INFO. " +
		"Defaults to info if not set. " + EnvVarUsageText + LogLevelEnvKey
)

// SetDefaultLogLevel sets the default log level.
func SetDefaultLogLevel(logger *log.Log, userLogLevel string) {
	logLevel, err := log.ParseLevel(userLogLevel)
	if err != nil {
		logger.Warn(`User log level is not a valid. It must be one of the following: `+
			log.PANIC.String()+", "+
			log.FATAL.String()+", "+
			log.ERROR.String()+", "+
			log.WARNING.String()+", "+
			log.INFO.String()+", "+
			log.DEBUG.String()+". Defaulting to info.", logfields.WithUserLogLevel(userLogLevel))

		logLevel = log.INFO
	} else if logLevel == log.DEBUG {
		logger.Info(`Log level set to "debug". Performance may be adversely impacted.`)
	}

	log.SetLevel("", logLevel)
}

// SetLogLevels applies levels of the form module1=level1:module2=level2:defaultLevel.
func SetLogLevels(logger *log.Log, levels string) {
	if levels == "" {
		return
	}

	for _, entry := range strings.Split(levels, ":") {
		module, level, found := strings.Cut(entry, "=")
		if !found {
			SetDefaultLogLevel(logger, entry)

			continue
		}

		logLevel, err := log.ParseLevel(level)
		if err != nil {
			logger.Warn("Ignoring invalid module log level", logfields.WithUserLogLevel(entry))

			continue
		}

		log.SetLevel(module, logLevel)
	}
}
