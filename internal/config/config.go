package config

import (
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"regexp"
	"strconv"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// Ledger policy. Fixed at startup, never runtime-mutable.
	CollateralRatioBps      uint64
	LiquidationThresholdBps uint64
	RewardBps               uint64
	OwnerAccount            string

	// Price feed key in redis. Setting ORACLE_FEED_KEY to the empty string
	// selects the static dev oracle instead of the feed.
	OracleFeedKey string
	// Static dev price, Chainlink-style: value scaled by 10^decimals.
	StaticPriceValue    *big.Int
	StaticPriceDecimals uint8
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvUint(k string, d uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lumenvault"),
		MySQLUser: getenv("MYSQL_USER", "lumenvault"),
		MySQLPass: getenv("MYSQL_PASS", "lumenvault"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		IdempTTLSecs: 300,

		CollateralRatioBps:      getenvUint("COLLATERAL_RATIO_BPS", 12_000),
		LiquidationThresholdBps: getenvUint("LIQUIDATION_THRESHOLD_BPS", 11_000),
		RewardBps:               getenvUint("REWARD_BPS", 100),
		OwnerAccount:            getenv("OWNER_ACCOUNT", ""),

		OracleFeedKey:       "oracle:collateral:price",
		StaticPriceDecimals: 8,
	}
	// LookupEnv, not getenv: an explicitly empty ORACLE_FEED_KEY means "no
	// feed, serve the static dev price", while unset keeps the default key.
	if v, ok := os.LookupEnv("ORACLE_FEED_KEY"); ok {
		c.OracleFeedKey = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	// $1.00 default, 8 decimals
	c.StaticPriceValue = big.NewInt(100_000_000)
	if v := os.Getenv("STATIC_PRICE_VALUE"); v != "" {
		if n, ok := new(big.Int).SetString(v, 10); ok {
			c.StaticPriceValue = n
		}
	}
	if v := os.Getenv("STATIC_PRICE_DECIMALS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			c.StaticPriceDecimals = uint8(n)
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if !reHex32.MatchString(c.OwnerAccount) {
		return errors.New("OWNER_ACCOUNT must be 32-char lowercase hex")
	}
	if c.CollateralRatioBps <= c.LiquidationThresholdBps {
		return fmt.Errorf("COLLATERAL_RATIO_BPS (%d) must exceed LIQUIDATION_THRESHOLD_BPS (%d)",
			c.CollateralRatioBps, c.LiquidationThresholdBps)
	}
	if c.LiquidationThresholdBps < 10_000 {
		return errors.New("LIQUIDATION_THRESHOLD_BPS below 100% would let loans sink under par before liquidation")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
