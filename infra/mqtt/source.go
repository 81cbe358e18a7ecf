// Package mqtt feeds externally reported incidents into the dispatch flow.
// Reports published on the configured topic are decoded and handed to the
// coordinator exactly as an HTTP caller's would be.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sunnyysetia/patrolsim/core/incident"
	"github.com/sunnyysetia/patrolsim/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Topic carries incident reports, default patrol/incidents/report.
	Topic      string      `json:"topic"`
	QoS        byte        `json:"qos"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "patrolsim"
	}
	if c.Topic == "" {
		c.Topic = "patrol/incidents/report"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when enabled")
	}
	if c.UseTLS && c.TLSConfig == nil {
		if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
			return fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
		}
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// clientOptions builds paho client options from the config.
func (c Config) clientOptions() (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if c.Username != "" {
		opts.SetUsername(c.Username)
	}
	if c.Password != "" {
		opts.SetPassword(c.Password)
	}
	if c.UseTLS {
		tlsCfg, err := c.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// Reporter is the slice of the dispatch coordinator the source needs.
type Reporter interface {
	Report(ctx context.Context, lat, lng float64, description string) (incident.Incident, error)
}

// report is the wire format of an incident report message.
type report struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

// Source subscribes to the incident report topic and dispatches each report.
type Source struct {
	cfg Config
	rep Reporter
	cli paho.Client
	log logger.Logger
}

// NewSource builds a Source. Connect happens in Start.
func NewSource(cfg Config, rep Reporter) *Source {
	return &Source{cfg: cfg, rep: rep, log: logger.New("mqtt-source")}
}

// Start connects to the broker, subscribes and blocks until ctx is done.
// Connect failures are retried with exponential backoff up to MaxRetries.
func (s *Source) Start(ctx context.Context) error {
	opts, err := s.cfg.clientOptions()
	if err != nil {
		return err
	}
	s.cli = paho.NewClient(opts)
	if err := s.connect(ctx); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	if token := s.cli.Subscribe(s.cfg.Topic, s.cfg.QoS, s.onReport(ctx)); token.Wait() && token.Error() != nil {
		s.cli.Disconnect(250)
		return fmt.Errorf("mqtt subscribe: %w", token.Error())
	}
	s.log.Infof("listening for incident reports on %s", s.cfg.Topic)
	<-ctx.Done()
	s.cli.Disconnect(250)
	return nil
}

func (s *Source) connect(ctx context.Context) error {
	maxRetries := s.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(s.cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		token := s.cli.Connect()
		token.Wait()
		if lastErr = token.Error(); lastErr == nil {
			return nil
		}
		s.log.Warnf("connect attempt %d failed: %v", attempt+1, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(1<<attempt)):
		}
	}
	return lastErr
}

func (s *Source) onReport(ctx context.Context) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var r report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			s.log.Warnf("drop malformed report: %v", err)
			return
		}
		inc, err := s.rep.Report(ctx, r.Lat, r.Lng, r.Description)
		if err != nil {
			s.log.Errorf("report from %s rejected: %v", msg.Topic(), err)
			return
		}
		if inc.Assigned() {
			s.log.Debugw("incident dispatched", map[string]any{
				"incident_id": inc.ID,
				"unit_id":     inc.AssignedUnitID,
			})
		} else {
			s.log.Warnf("incident %s left unassigned, fleet exhausted", inc.ID)
		}
	}
}
