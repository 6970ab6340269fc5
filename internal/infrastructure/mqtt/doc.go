// Package mqtt provides the security event publisher for authcore.
//
// It wraps paho.mqtt.golang with connection lifecycle management,
// automatic reconnection with exponential backoff, and a Last Will and
// Testament so downstream consumers can detect when the service goes
// offline unexpectedly.
//
// The client is publish-only. Authcore emits security events (logins,
// token refreshes, account changes) for SIEM pipelines and dashboards;
// it never consumes messages from the broker.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Event("login")
//	err = client.Publish(topic, payload, 1, false)
//
// All methods are safe for concurrent use.
package mqtt
