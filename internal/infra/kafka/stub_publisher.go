package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishLoginSucceeded logs auth.login_succeeded events.
func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent("auth.login_succeeded", event.OccurredAt, event)
	return nil
}

// PublishLoginFailed logs auth.login_failed events.
func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.logEvent("auth.login_failed", event.OccurredAt, event)
	return nil
}

// PublishAccountLocked logs auth.account_locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.logEvent("auth.account_locked", event.OccurredAt, event)
	return nil
}

// PublishDeviceStateChanged logs device.state_changed events.
func (p *StubPublisher) PublishDeviceStateChanged(_ context.Context, event domain.DeviceStateChangedEvent) error {
	p.logEvent("device.state_changed", event.OccurredAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
