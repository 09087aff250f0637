// Package nats fans out risk escalation alerts over NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

type publisherConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Close()
}

// Publisher implements monitor.Alerter. Alerts go to "<subject>.<label>",
// e.g. threatmap.alerts.critical.
type Publisher struct {
	conn    publisherConn
	subject string
	logger  *slog.Logger
}

// Connect dials the NATS server, retrying in the background if it is not yet up.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("threatmap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	logger.Info("connected to nats", "url", url, "subject", subject)
	return newPublisher(conn, subject, logger), nil
}

func newPublisher(conn publisherConn, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// PublishAlert publishes one escalation event.
func (p *Publisher) PublishAlert(ctx context.Context, event domain.AssessmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event.Label))
	msg.Data = data
	msg.Header.Set("Location-Id", event.LocationID)
	msg.Header.Set("Score", strconv.Itoa(event.Score))
	msg.Header.Set("Previous-Label", string(event.PreviousLabel))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", msg.Subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush alert %s: %w", msg.Subject, err)
	}
	p.logger.Info("risk alert published",
		"location_id", event.LocationID, "label", event.Label, "previous_label", event.PreviousLabel)
	return nil
}

// Subject returns the subject used for alerts with the given label.
func (p *Publisher) Subject(label domain.RiskLabel) string {
	return p.subject + "." + strings.ToLower(string(label))
}

// CheckReadiness reports whether the connection is currently up.
func (p *Publisher) CheckReadiness(context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}
