package mqtt

import "fmt"

// Topic prefixes for the AquaSense uplink.
//
// All node topics use the flat scheme: aquasense/{category}/{node_id}.
// The orchestrator learns a node's command surface from its retained
// descriptor topic and addresses commands to the matching command topic.
const (
	// TopicPrefix is the base for all AquaSense topics.
	TopicPrefix = "aquasense"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "aquasense/system"
)

// Topics provides builders for AquaSense MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("aquasense-01")
//	// Returns: "aquasense/state/aquasense-01"
type Topics struct{}

// Descriptors returns the retained capability descriptor topic for a node.
//
// Example: aquasense/descriptors/aquasense-01
func (Topics) Descriptors(nodeID string) string {
	return fmt.Sprintf("%s/descriptors/%s", TopicPrefix, nodeID)
}

// State returns the topic for state reports from a node.
//
// Example: aquasense/state/aquasense-01
func (Topics) State(nodeID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, nodeID)
}

// Command returns the topic the node listens on for invocation commands.
//
// Example: aquasense/command/aquasense-01
func (Topics) Command(nodeID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, nodeID)
}

// Ack returns the topic for command acknowledgements from a node.
//
// Example: aquasense/ack/aquasense-01
func (Topics) Ack(nodeID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, nodeID)
}

// Notify returns the topic for user-facing notifications from a node.
//
// Example: aquasense/notify/aquasense-01
func (Topics) Notify(nodeID string) string {
	return fmt.Sprintf("%s/notify/%s", TopicPrefix, nodeID)
}

// SystemStatus returns the online/offline status topic (also the LWT topic).
//
// Example: aquasense/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllStates returns a wildcard pattern matching state reports from all nodes.
//
// Example: aquasense/state/+
func (Topics) AllStates() string {
	return TopicPrefix + "/state/+"
}

// AllCommands returns a wildcard pattern matching commands to all nodes.
//
// Example: aquasense/command/+
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/+"
}
