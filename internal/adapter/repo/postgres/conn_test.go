package postgres

import (
	"testing"

	"github.com/ai2b/zena-toolserver/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		PostgresHost:       "localhost",
		PostgresPort:       5432,
		PostgresDB:         "zena",
		PostgresUser:       "zena",
		PostgresPassword:   "secret",
		PGPoolMin:          2,
		PGPoolMax:          8,
		PGConnectTimeoutS:  5,
		PGStatementTimeout: 30000,
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(testConfig())
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if pc.MinConns != 2 || pc.MaxConns != 8 {
		t.Fatalf("pool sizing: min=%d max=%d", pc.MinConns, pc.MaxConns)
	}
	if got := pc.ConnConfig.RuntimeParams["statement_timeout"]; got != "30000" {
		t.Fatalf("statement_timeout=%q", got)
	}
	if pc.ConnConfig.ConnectTimeout.Seconds() != 5 {
		t.Fatalf("connect timeout: %v", pc.ConnConfig.ConnectTimeout)
	}
	if pc.ConnConfig.Tracer == nil {
		t.Fatalf("expected otel tracer on conn config")
	}
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	cfg := testConfig()
	cfg.PostgresPort = -1
	if _, err := poolConfig(cfg); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}
