package mqtt

import (
	"crypto/tls"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.Topic != "patrol/incidents/report" {
		t.Fatalf("default topic %q", cfg.Topic)
	}
	if cfg.ClientID == "" {
		t.Fatal("default client id missing")
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("default max_retries %d", cfg.MaxRetries)
	}
	if cfg.BackoffMS != 100 {
		t.Fatalf("default backoff_ms %d", cfg.BackoffMS)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled config should validate: %v", err)
	}
}

func TestConfigValidateRequiresBroker(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled source without broker")
	}
}

func TestConfigValidateTLSRequiresCertPaths(t *testing.T) {
	cfg := Config{Enabled: true, Broker: "tcp://localhost:1883", UseTLS: true}
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for tls without cert material")
	}
	cfg.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("injected tls config should validate: %v", err)
	}
}

func TestLoadTLSConfigPrefersInjected(t *testing.T) {
	injected := &tls.Config{MinVersion: tls.VersionTLS13}
	cfg := Config{UseTLS: true, TLSConfig: injected}
	got, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != injected {
		t.Fatal("expected the injected tls config back")
	}
}

func TestLoadTLSConfigRejectsMissingPaths(t *testing.T) {
	cfg := Config{UseTLS: true, ClientCert: "cert.pem"}
	if _, err := cfg.LoadTLSConfig(); err == nil {
		t.Fatal("expected error for partial cert material")
	}
}

func TestClientOptionsAppliesTLS(t *testing.T) {
	cfg := Config{
		Broker:    "ssl://localhost:8883",
		ClientID:  "patrolsim",
		UseTLS:    true,
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	opts, err := cfg.clientOptions()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tls.VersionTLS12 {
		t.Fatal("tls config not applied to client options")
	}
}
