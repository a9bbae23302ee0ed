package influxdb

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading records a single numeric sensor reading.
//
// Readings are tagged with the node, thing, and property so that
// dashboards can filter per sensor. The write is non-blocking and
// batched; errors surface through the SetOnError callback.
func (c *Client) WriteReading(nodeID, thing, property string, value float64) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		"readings",
		map[string]string{
			"node":     nodeID,
			"thing":    thing,
			"property": property,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)

	return nil
}

// WriteAlert records an alert notification for historical analysis.
func (c *Client) WriteAlert(nodeID, severity, message string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		"alerts",
		map[string]string{
			"node":     nodeID,
			"severity": severity,
		},
		map[string]interface{}{
			"message": message,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)

	return nil
}

// WriteInvocation records a method invocation outcome.
//
// The outcome field is "ok" for successful invocations, otherwise the
// error text. Useful for auditing remote commands against the node.
func (c *Client) WriteInvocation(nodeID, thing, method string, err error) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	outcome := "ok"
	success := true
	if err != nil {
		outcome = err.Error()
		success = false
	}

	point := write.NewPoint(
		"invocations",
		map[string]string{
			"node":   nodeID,
			"thing":  thing,
			"method": method,
		},
		map[string]interface{}{
			"outcome": outcome,
			"success": success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)

	return nil
}

// Flush forces all pending writes to be sent immediately.
//
// Normally writes are batched; call this before shutdown or when
// immediate persistence is required.
func (c *Client) Flush() error {
	if !c.IsConnected() {
		return fmt.Errorf("%w: cannot flush", ErrNotConnected)
	}

	c.writeAPI.Flush()
	return nil
}
