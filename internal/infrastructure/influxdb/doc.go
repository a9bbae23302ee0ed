// Package influxdb provides time-series export of sensor readings,
// alerts, and invocation outcomes to InfluxDB v2.
//
// Writes are non-blocking and batched by the underlying client; async
// write errors are surfaced through a callback set with SetOnError.
// The integration is optional and returns ErrDisabled from Connect
// when turned off in config.
package influxdb
