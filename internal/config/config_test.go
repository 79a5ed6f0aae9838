package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoad_OracleFeedKeyDefault(t *testing.T) {
	// t.Setenv registers the restore; Unsetenv gives us the truly-absent case.
	t.Setenv("ORACLE_FEED_KEY", "placeholder")
	os.Unsetenv("ORACLE_FEED_KEY")

	c := Load()
	if c.OracleFeedKey != "oracle:collateral:price" {
		t.Fatalf("OracleFeedKey = %q, want default", c.OracleFeedKey)
	}
}

func TestLoad_EmptyOracleFeedKeySelectsStaticOracle(t *testing.T) {
	t.Setenv("ORACLE_FEED_KEY", "")

	c := Load()
	if c.OracleFeedKey != "" {
		t.Fatalf("OracleFeedKey = %q, want empty for the static fallback", c.OracleFeedKey)
	}
	if c.StaticPriceValue == nil || c.StaticPriceValue.Int64() != 100_000_000 {
		t.Fatalf("StaticPriceValue = %v, want 100000000", c.StaticPriceValue)
	}
	if c.StaticPriceDecimals != 8 {
		t.Fatalf("StaticPriceDecimals = %d, want 8", c.StaticPriceDecimals)
	}
}

func TestLoad_CustomOracleFeedKey(t *testing.T) {
	t.Setenv("ORACLE_FEED_KEY", "oracle:eth:usd")

	if c := Load(); c.OracleFeedKey != "oracle:eth:usd" {
		t.Fatalf("OracleFeedKey = %q, want oracle:eth:usd", c.OracleFeedKey)
	}
}

func validConfig() *Config {
	c := Load()
	c.OwnerAccount = strings.Repeat("a", 32)
	return c
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad owner", func(c *Config) { c.OwnerAccount = "UPPER" }},
		{"ratio not above threshold", func(c *Config) { c.CollateralRatioBps = c.LiquidationThresholdBps }},
		{"threshold under par", func(c *Config) { c.LiquidationThresholdBps = 9_999; c.CollateralRatioBps = 10_500 }},
		{"bad mysql port", func(c *Config) { c.MySQLPort = "not-a-port" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("Validate accepted a bad config")
			}
		})
	}
}
