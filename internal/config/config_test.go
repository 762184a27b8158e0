package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("S3_HOST", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("VPIC_TIMEOUT", "")
	t.Setenv("JOB_STATUS_ALLOWLIST", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.RateLimit != 20 || cfg.VPICTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.S3Host != "" || cfg.RedisAddr != "" {
		t.Fatalf("optional collaborators must stay disabled: %+v", cfg)
	}
	if cfg.JobStatusAllowlist != nil {
		t.Fatalf("empty allow-list expected, got %v", cfg.JobStatusAllowlist)
	}
}

func TestFromEnv_MongoRequiresURI(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := FromEnv()
	if err == nil || !strings.Contains(err.Error(), "MONGO_URI") {
		t.Fatalf("expected missing MONGO_URI error, got %v", err)
	}
}

func TestFromEnv_Postgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PSQL_HOST", "db")
	t.Setenv("PSQL_PORT", "6543")
	t.Setenv("PSQL_USER", "u")
	t.Setenv("PSQL_PASSWORD", "p")
	t.Setenv("PSQL_DB", "workorders")
	t.Setenv("PSQL_SSLMODE", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.PSQLPort != 6543 || cfg.PSQLSSLMode != "disable" || cfg.PSQLHost != "db" {
		t.Fatalf("unexpected postgres config %+v", cfg)
	}
}

func TestFromEnv_OptionalCollaborators(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("S3_HOST", "minio")
	t.Setenv("S3_PORT", "9001")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("JOB_STATUS_ALLOWLIST", "pending_diagnosis, in_progress,completed")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.S3Host != "minio:9001" || cfg.RedisAddr != "cache:6379" {
		t.Fatalf("unexpected addresses %q %q", cfg.S3Host, cfg.RedisAddr)
	}
	want := []string{"pending_diagnosis", "in_progress", "completed"}
	if !reflect.DeepEqual(cfg.JobStatusAllowlist, want) {
		t.Fatalf("allow-list = %v, want %v", cfg.JobStatusAllowlist, want)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT", "lots")

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT") {
		t.Fatalf("expected RATE_LIMIT error, got %v", err)
	}

	t.Setenv("RATE_LIMIT", "")
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("expected STORE_DRIVER error, got %v", err)
	}
}
