// Package mqtt provides an optional MQTT telemetry publisher mirroring the
// simulator outputs to a broker for dashboards and recording.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/open-teleop/navsim/pkg/config"
	"github.com/open-teleop/navsim/pkg/geometry"
	customlog "github.com/open-teleop/navsim/pkg/log"
)

// Publisher mirrors simulator outputs to an MQTT broker. It implements
// sim.Publisher. Topics with no configured name are skipped.
type Publisher struct {
	client paho.Client
	cfg    config.MQTTConfig
	logger customlog.Logger
}

// NewPublisher connects to the configured broker. If no broker is configured
// MQTT is disabled and both return values are nil.
func NewPublisher(cfg config.MQTTConfig, logger customlog.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		logger.Infof("MQTT disabled: no broker configured")
		return nil, nil
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "navsim"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	// Connection settings
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Infof("Connected to MQTT broker %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warnf("MQTT connection lost: %v", err)
	})

	client := paho.NewClient(opts)

	// Connect retries in the background; publishing before the first
	// connect succeeds simply drops messages.
	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Errorf("MQTT connect failed: %v", err)
		}
	}()

	return &Publisher{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// PublishPose mirrors the current pose to the pose topic.
func (p *Publisher) PublishPose(pose geometry.PoseStamped) error {
	return p.publish(p.cfg.PoseTopic, pose)
}

// PublishPath mirrors the landmark path to the path topic.
func (p *Publisher) PublishPath(path geometry.Path) error {
	return p.publish(p.cfg.PathTopic, path)
}

// PublishTransform mirrors frame broadcasts to the transform topic, one
// subtopic per child frame.
func (p *Publisher) PublishTransform(tf geometry.TransformStamped) error {
	if p.cfg.TransformTopic == "" {
		return nil
	}
	return p.publish(p.cfg.TransformTopic+"/"+tf.ChildFrameID, tf)
}

func (p *Publisher) publish(topic string, payload interface{}) error {
	if topic == "" {
		return nil
	}
	if !p.client.IsConnectionOpen() {
		// Telemetry is best-effort; don't queue while disconnected.
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling MQTT payload for %s: %w", topic, err)
	}

	// QoS 0, fire and forget. Delivery errors surface via the token but are
	// not worth blocking the tick for.
	p.client.Publish(topic, 0, false, data)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
