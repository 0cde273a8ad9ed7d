package port

import (
	"context"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishDeviceStateChanged(ctx context.Context, event domain.DeviceStateChangedEvent) error
}
