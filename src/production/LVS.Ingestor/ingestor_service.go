package lvsingestor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	telemetry "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/telemetry"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
)

// queuedReading is one MQTT payload awaiting ingestion.
type queuedReading struct {
	deviceID   string
	topic      string
	req        api_models.CreateReadingRequest
	receivedAt time.Time
}

// Ingestor subscribes to the device telemetry topic and feeds readings
// through the same ingestion path the HTTP endpoints use. Topic layout:
// livestock/<device_id>/readings with a JSON reading payload.
type Ingestor struct {
	cfg       config.MQTTConfig
	telemetry *telemetry.Service
	logger    *logger.Logger
	client    mqtt.Client
	msgCh     chan queuedReading
	quit      chan struct{}
	wg        sync.WaitGroup
}

func New(cfg config.MQTTConfig, svc *telemetry.Service, log *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:       cfg,
		telemetry: svc,
		logger:    log.WithComponent("mqtt-ingestor"),
		msgCh:     make(chan queuedReading, 4096),
		quit:      make(chan struct{}),
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(i.brokerURL()).
		SetClientID(i.cfg.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(i.cfg.KeepAlive).
		SetPingTimeout(i.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if i.cfg.BrokerUser != "" {
		opts.SetUsername(i.cfg.BrokerUser)
		opts.SetPassword(i.cfg.BrokerPass)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.ErrorWithError(err, "MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		i.logger.WithField("topic", i.cfg.Topic).Info("MQTT connected, subscribing")
		if token := c.Subscribe(i.cfg.Topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.ErrorWithError(token.Error(), "MQTT subscribe failed")
		}
	}

	i.client = mqtt.NewClient(opts)
	if tk := i.client.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.worker(ctx)
	}()

	return nil
}

// Stop disconnects the client and waits for the worker to drain out.
// msgCh stays open: paho may still deliver a handler past the
// disconnect grace period, and a send on a closed channel would panic.
// Late sends land in the buffer and are garbage-collected with it.
func (i *Ingestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(500)
	}
	close(i.quit)
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.client != nil && i.client.IsConnected()
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	// Expected format: livestock/<device_id>/readings
	parts := strings.Split(m.Topic(), "/")
	if len(parts) < 3 {
		i.logger.WithField("topic", m.Topic()).Warn("Ignoring message on unexpected topic")
		return
	}
	deviceID := parts[1]

	var req api_models.CreateReadingRequest
	if err := json.Unmarshal(m.Payload(), &req); err != nil {
		i.logger.WithField("topic", m.Topic()).Warn("Dropping malformed MQTT payload")
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = deviceID
	}

	select {
	case i.msgCh <- queuedReading{deviceID: deviceID, topic: m.Topic(), req: req, receivedAt: time.Now().UTC()}:
	default:
		i.logger.Warn("MQTT ingest queue full, dropping reading")
	}
}

func (i *Ingestor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.quit:
			return
		case qr := <-i.msgCh:
			if _, err := i.telemetry.SubmitReading(ctx, qr.req); err != nil {
				i.logger.WithField("device_id", qr.deviceID).ErrorWithError(err, "Failed to ingest MQTT reading")
			}
		}
	}
}

func (i *Ingestor) brokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", i.cfg.BrokerHost, i.cfg.BrokerPort)
}
