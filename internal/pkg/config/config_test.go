package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"ADMIN_SECRET_KEY": "124356",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "5000" || cfg.Addr() != ":5000" {
		t.Errorf("unexpected port: %q", cfg.Port)
	}
	if cfg.APIPrefix != "/api" {
		t.Errorf("unexpected prefix: %q", cfg.APIPrefix)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("unexpected token ttl: %v", cfg.Auth.TokenTTL)
	}
	if cfg.Mongo.Database != "mini_crm" || cfg.Mongo.Timeout != 10*time.Second {
		t.Errorf("unexpected mongo config: %+v", cfg.Mongo)
	}
	if !cfg.Redis.Enabled || cfg.Redis.LeadStatsTTL != 5*time.Minute {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development by default")
	}
	if len(cfg.CORSAllowOrigins) != 1 || cfg.CORSAllowOrigins[0] != "*" {
		t.Errorf("expected any origin by default, got %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s3cret",
		"ADMIN_SECRET_KEY":   "124356",
		"PORT":               "8080",
		"ENV":                "production",
		"TOKEN_TTL":          "1h",
		"REDIS_ENABLED":      "false",
		"MONGO_URI":          "mongodb://db:27017",
		"CORS_ALLOW_ORIGINS": "https://crm.example.com,http://localhost:3000",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.IsDevelopment() || cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "http://localhost:3000" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowOrigins)
	}
	if cfg.Redis.Enabled || cfg.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("overrides not applied: %+v / %+v", cfg.Redis, cfg.Mongo)
	}
}

func TestLoadWith_RequiresSecrets(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"missing jwt secret": {"ADMIN_SECRET_KEY": "124356"},
		"missing admin key":  {"JWT_SECRET": "s3cret"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
