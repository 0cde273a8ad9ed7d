package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

const (
	connectTimeout = 10 * time.Second
	disconnectMs   = 250
	subscribeQoS   = 1
)

// readingMessage is the wire payload published by devices. Timestamp is
// RFC 3339 and optional; device_state is optional.
type readingMessage struct {
	SensorID    string  `json:"sensor_id"`
	Value       float64 `json:"value"`
	Timestamp   string  `json:"timestamp,omitempty"`
	DeviceState *string `json:"device_state,omitempty"`
}

// Ingestor subscribes to the configured topic and writes readings through
// ReadingService. Malformed messages are logged and dropped; a bad message
// never stops the listener.
type Ingestor struct {
	client   paho.Client
	topic    string
	readings *usecase.ReadingService
	log      *zap.Logger
}

// NewIngestor builds an Ingestor from MQTT settings. The broker connection is
// established in Start.
func NewIngestor(cfg config.MQTTSettings, readings *usecase.ReadingService, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}

	ing := &Ingestor{
		topic:    cfg.Topic,
		readings: readings,
		log:      log,
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(c paho.Client) {
			// Resubscribe after every (re)connect.
			token := c.Subscribe(ing.topic, subscribeQoS, ing.handleMessage)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Error("mqtt subscribe", zap.String("topic", ing.topic), zap.Error(err))
				return
			}
			log.Info("mqtt subscribed", zap.String("topic", ing.topic))
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})

	ing.client = paho.NewClient(opts)
	return ing
}

// Start connects to the broker. Subscription happens in the on-connect
// handler so it survives reconnects.
func (i *Ingestor) Start() error {
	token := i.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt broker: %w", err)
	}
	return nil
}

// Stop disconnects from the broker, letting in-flight work finish.
func (i *Ingestor) Stop() {
	i.client.Disconnect(disconnectMs)
}

func (i *Ingestor) handleMessage(_ paho.Client, msg paho.Message) {
	var payload readingMessage
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		i.log.Warn("drop malformed mqtt message",
			zap.String("topic", msg.Topic()),
			zap.Error(err),
		)
		return
	}

	if payload.SensorID == "" {
		i.log.Warn("drop mqtt message without sensor_id", zap.String("topic", msg.Topic()))
		return
	}

	var ts time.Time
	if payload.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			i.log.Warn("drop mqtt message with bad timestamp",
				zap.String("sensor_id", payload.SensorID),
				zap.String("timestamp", payload.Timestamp),
				zap.Error(err),
			)
			return
		}
		ts = parsed
	}

	if _, err := i.readings.Ingest(context.Background(), usecase.IngestReadingInput{
		SensorID:    payload.SensorID,
		Value:       payload.Value,
		Timestamp:   ts,
		DeviceState: payload.DeviceState,
	}); err != nil {
		i.log.Warn("drop mqtt reading",
			zap.String("sensor_id", payload.SensorID),
			zap.Error(err),
		)
	}
}
