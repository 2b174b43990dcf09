/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/cmdutil-go/pkg/utils/cmd"

	"github.com/trustbloc/wallet-engine/cmd/common"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing"
)

const (
	tracingProviderFlagName  = "tracing-provider"
	tracingProviderFlagUsage = "Tracing provider (JAEGER or STDOUT). Tracing is disabled if not set. " +
		common.EnvVarUsageText + tracingProviderEnvKey
	tracingProviderEnvKey = "WALLET_TRACING_PROVIDER"

	tracingServiceNameFlagName  = "tracing-service-name"
	tracingServiceNameFlagUsage = "Service name reported with the traces. Defaults to wallet-engine. " +
		common.EnvVarUsageText + tracingServiceNameEnvKey
	tracingServiceNameEnvKey = "WALLET_TRACING_SERVICE_NAME"

	metricsAddrFlagName  = "metrics-addr"
	metricsAddrFlagUsage = "Address to expose the prometheus /metrics endpoint on while the command runs. " +
		common.EnvVarUsageText + metricsAddrEnvKey
	metricsAddrEnvKey = "WALLET_METRICS_ADDR"

	tlsSystemCertPoolFlagName  = "tls-systemcertpool"
	tlsSystemCertPoolFlagUsage = "Use system certificate pool." +
		" Possible values [true] [false]. Defaults to false if not set. " +
		common.EnvVarUsageText + tlsSystemCertPoolEnvKey
	tlsSystemCertPoolEnvKey = "WALLET_TLS_SYSTEMCERTPOOL"

	tlsCACertsFlagName  = "tls-cacerts"
	tlsCACertsFlagUsage = "Comma-Separated list of ca certs path. " + common.EnvVarUsageText + tlsCACertsEnvKey
	tlsCACertsEnvKey    = "WALLET_TLS_CACERTS"

	httpTimeoutFlagName  = "http-timeout"
	httpTimeoutFlagUsage = "Timeout of outbound HTTP requests, e.g. 30s. Defaults to 30s. " +
		common.EnvVarUsageText + httpTimeoutEnvKey
	httpTimeoutEnvKey = "WALLET_HTTP_TIMEOUT"

	universalResolverURLFlagName  = "universal-resolver-url"
	universalResolverURLFlagUsage = "Universal resolver endpoint for DID methods other than key and jwk. " +
		common.EnvVarUsageText + universalResolverURLEnvKey
	universalResolverURLEnvKey = "WALLET_UNIVERSAL_RESOLVER_URL"

	didCacheTTLFlagName  = "did-cache-ttl"
	didCacheTTLFlagUsage = "How long resolved DID documents are cached, e.g. 5m. Zero disables the cache. " +
		common.EnvVarUsageText + didCacheTTLEnvKey
	didCacheTTLEnvKey = "WALLET_DID_CACHE_TTL"

	headerFlagName  = "header"
	headerFlagUsage = "Header added to every outbound request, as name=value. May be repeated. " +
		common.EnvVarUsageText + headerEnvKey + " (comma separated)"
	headerEnvKey = "WALLET_HEADERS"
)

const (
	defaultServiceName = "wallet-engine"
	defaultHTTPTimeout = 30 * time.Second
	defaultDIDCacheTTL = 5 * time.Minute
	didCacheSize       = 100
)

type walletParameters struct {
	logLevel             string
	db                   *common.DBParameters
	tracingProvider      tracing.SpanExporterType
	tracingServiceName   string
	metricsAddr          string
	tlsSystemCertPool    bool
	tlsCACerts           []string
	httpTimeout          time.Duration
	universalResolverURL string
	didCacheTTL          time.Duration
	headers              []string
}

func createFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(common.LogLevelFlagName, common.LogLevelFlagShorthand, "",
		common.LogLevelPrefixFlagUsage)
	cmd.PersistentFlags().StringP(tracingProviderFlagName, "", "", tracingProviderFlagUsage)
	cmd.PersistentFlags().StringP(tracingServiceNameFlagName, "", "", tracingServiceNameFlagUsage)
	cmd.PersistentFlags().StringP(metricsAddrFlagName, "", "", metricsAddrFlagUsage)
	cmd.PersistentFlags().StringP(tlsSystemCertPoolFlagName, "", "", tlsSystemCertPoolFlagUsage)
	cmd.PersistentFlags().StringArrayP(tlsCACertsFlagName, "", []string{}, tlsCACertsFlagUsage)
	cmd.PersistentFlags().StringP(httpTimeoutFlagName, "", "", httpTimeoutFlagUsage)
	cmd.PersistentFlags().StringP(universalResolverURLFlagName, "", "", universalResolverURLFlagUsage)
	cmd.PersistentFlags().StringP(didCacheTTLFlagName, "", "", didCacheTTLFlagUsage)
	cmd.PersistentFlags().StringArrayP(headerFlagName, "", []string{}, headerFlagUsage)

	common.Flags(cmd)
}

func getWalletParameters(cmd *cobra.Command) (*walletParameters, error) {
	db, err := common.DBParams(cmd)
	if err != nil {
		return nil, err
	}

	params := &walletParameters{
		db:                   db,
		logLevel:             cmdutils.GetUserSetOptionalVarFromString(cmd, common.LogLevelFlagName, common.LogLevelEnvKey),
		tracingProvider:      cmdutils.GetUserSetOptionalVarFromString(cmd, tracingProviderFlagName, tracingProviderEnvKey),
		tracingServiceName:   cmdutils.GetUserSetOptionalVarFromString(cmd, tracingServiceNameFlagName, tracingServiceNameEnvKey),
		metricsAddr:          cmdutils.GetUserSetOptionalVarFromString(cmd, metricsAddrFlagName, metricsAddrEnvKey),
		universalResolverURL: cmdutils.GetUserSetOptionalVarFromString(cmd, universalResolverURLFlagName, universalResolverURLEnvKey),
		tlsCACerts:           cmdutils.GetUserSetOptionalVarFromArrayString(cmd, tlsCACertsFlagName, tlsCACertsEnvKey),
		headers:              cmdutils.GetUserSetOptionalVarFromArrayString(cmd, headerFlagName, headerEnvKey),
	}

	if !tracing.IsExportedSupported(params.tracingProvider) {
		return nil, fmt.Errorf("unsupported tracing provider: %s", params.tracingProvider)
	}

	if params.tracingServiceName == "" {
		params.tracingServiceName = defaultServiceName
	}

	if v := cmdutils.GetUserSetOptionalVarFromString(cmd, tlsSystemCertPoolFlagName, tlsSystemCertPoolEnvKey); v != "" {
		params.tlsSystemCertPool, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", tlsSystemCertPoolFlagName, v, err)
		}
	}

	params.httpTimeout, err = durationParam(cmd, httpTimeoutFlagName, httpTimeoutEnvKey, defaultHTTPTimeout)
	if err != nil {
		return nil, err
	}

	params.didCacheTTL, err = durationParam(cmd, didCacheTTLFlagName, didCacheTTLEnvKey, defaultDIDCacheTTL)
	if err != nil {
		return nil, err
	}

	return params, nil
}

func durationParam(cmd *cobra.Command, flagName, envKey string, defaultValue time.Duration) (time.Duration, error) {
	v := cmdutils.GetUserSetOptionalVarFromString(cmd, flagName, envKey)
	if v == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", flagName, v, err)
	}

	return d, nil
}
