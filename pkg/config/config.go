// Package config resolves the exporter's settings from the environment,
// falling back to a literal default for every key that is not present.
//
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Names of the environment variables (and viper keys) the exporter reads.
//
const (
	KeyRPCHost        = "HTMLCOIN_RPC_HOST"
	KeyRPCPort        = "HTMLCOIN_RPC_PORT"
	KeyRPCUser        = "HTMLCOIN_RPC_USER"
	KeyRPCPassword    = "HTMLCOIN_RPC_PASSWORD"
	KeyHashPSBlocks   = "HASH_PS_BLOCKS"
	KeySmartFeeBlocks = "SMART_FEE_BLOCKS"
	KeyMetricsAddress = "METRICS_ADDRESS"
	KeyMetricsPort    = "METRICS_PORT"
	KeyTimeout        = "TIMEOUT"
	KeyRefreshSeconds = "REFRESH_SECONDS"
	KeyLoggingLevel   = "LOGGING_LEVEL"
	KeyTelemetryPath  = "TELEMETRY_PATH"
	KeyGeoIPFilepath  = "GEOIP_FILEPATH"
)

var defaults = map[string]string{
	KeyRPCHost:        "0.0.0.0",
	KeyRPCPort:        "4889", // htmlcoin testnet rpc port
	KeyRPCUser:        "htmlcoin",
	KeyRPCPassword:    "testpasswd",
	KeyHashPSBlocks:   "-1,1,120",
	KeySmartFeeBlocks: "2,3,5,20",
	KeyMetricsAddress: "0.0.0.0",
	KeyMetricsPort:    "6363",
	KeyTimeout:        "15",
	KeyRefreshSeconds: "5",
	KeyLoggingLevel:   "INFO",
	KeyTelemetryPath:  "/metrics",
	KeyGeoIPFilepath:  "",
}

// Config is the immutable set of settings resolved once at startup.
//
type Config struct {
	RPCHost     string
	RPCPort     int
	RPCUser     string
	RPCPassword string

	// HashPSBlocks lists the block windows for which the network hash
	// rate is estimated. A negative window means "since the last
	// difficulty change".
	//
	HashPSBlocks []int

	// SmartFeeBlocks lists the confirmation targets for which a smart fee
	// estimate is requested.
	//
	SmartFeeBlocks []int

	MetricsAddress string
	MetricsPort    int
	TelemetryPath  string

	// Timeout bounds every single rpc call.
	//
	Timeout time.Duration

	// Refresh is the interval between two collection passes.
	//
	Refresh time.Duration

	LoggingLevel zapcore.Level

	// GeoIPFilepath is optional: when empty, banned peers are not mapped
	// to countries.
	//
	GeoIPFilepath string
}

// New returns a viper instance wired the way Load expects it: every key
// resolvable from the environment, with empty variables counting as set.
//
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return v
}

// Load resolves every setting from v. A value that is present but cannot be
// parsed is an error: there's no falling back to the default in that case.
//
func Load(v *viper.Viper) (*Config, error) {
	var err error

	cfg := &Config{
		RPCHost:        v.GetString(KeyRPCHost),
		RPCUser:        v.GetString(KeyRPCUser),
		RPCPassword:    v.GetString(KeyRPCPassword),
		MetricsAddress: v.GetString(KeyMetricsAddress),
		TelemetryPath:  v.GetString(KeyTelemetryPath),
		GeoIPFilepath:  v.GetString(KeyGeoIPFilepath),
	}

	if cfg.RPCPort, err = intValue(v, KeyRPCPort); err != nil {
		return nil, err
	}

	if cfg.MetricsPort, err = intValue(v, KeyMetricsPort); err != nil {
		return nil, err
	}

	if cfg.HashPSBlocks, err = intList(v, KeyHashPSBlocks); err != nil {
		return nil, err
	}

	if cfg.SmartFeeBlocks, err = intList(v, KeySmartFeeBlocks); err != nil {
		return nil, err
	}

	timeout, err := cast.ToFloat64E(strings.TrimSpace(v.GetString(KeyTimeout)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: must be positive", KeyTimeout)
	}
	cfg.Timeout = time.Duration(timeout * float64(time.Second))

	refresh, err := intValue(v, KeyRefreshSeconds)
	if err != nil {
		return nil, err
	}
	if refresh <= 0 {
		return nil, fmt.Errorf("%s: must be positive", KeyRefreshSeconds)
	}
	cfg.Refresh = time.Duration(refresh) * time.Second

	level := strings.ToLower(strings.TrimSpace(v.GetString(KeyLoggingLevel)))
	if err := cfg.LoggingLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLoggingLevel, err)
	}

	return cfg, nil
}

// RPCURL is the http address of the node's rpc interface.
//
func (c *Config) RPCURL() string {
	return "http://" + net.JoinHostPort(c.RPCHost, strconv.Itoa(c.RPCPort))
}

// MetricsListenAddress is the address the prometheus server binds to.
//
func (c *Config) MetricsListenAddress() string {
	return net.JoinHostPort(c.MetricsAddress, strconv.Itoa(c.MetricsPort))
}

func intValue(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return n, nil
}

// intList parses a comma-separated list of integers, silently skipping
// empty segments (so "1,,2," is [1 2]).
//
func intList(v *viper.Viper, key string) ([]int, error) {
	res := []int{}

	for _, segment := range strings.Split(v.GetString(key), ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		n, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("%s: segment '%s': %w",
				key, segment, err)
		}

		res = append(res, n)
	}

	return res, nil
}
