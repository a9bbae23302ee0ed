// Package mqtt provides MQTT client connectivity for AquaSense Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the uplink between a node and its orchestrator. The node publishes
// its capability descriptors (retained) and delta state reports, and receives
// invocation commands:
//
//	AquaSense node ↔ MQTT Broker ↔ Orchestrator
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.Command(nodeID), 1, handleCommand)
//	client.PublishRetained(topics.Descriptors(nodeID), payload)
package mqtt
