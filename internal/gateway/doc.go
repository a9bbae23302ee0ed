// Package gateway is the orchestrator uplink over MQTT. It publishes
// the registry's capability descriptors (retained), pushes delta state
// reports on a fixed interval (publishing nothing on unchanged
// cycles), and serves the command topic: each command is parsed,
// dispatched under a per-command timeout, and acknowledged with a
// structured result. Numeric readings are optionally exported to the
// time-series store as they are published.
package gateway
