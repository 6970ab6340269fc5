package mqtt

import "fmt"

// Topic prefixes for everything authcore publishes.
//
// Scheme: authcore/{category}/{detail}
const (
	// TopicPrefix is the base for all authcore topics.
	TopicPrefix = "authcore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "authcore/system"

	// TopicPrefixEvents is the base for security event topics.
	TopicPrefixEvents = "authcore/events"
)

// Topics provides builders for authcore MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Event("login")
//	// Returns: "authcore/events/login"
type Topics struct{}

// SystemStatus returns the service online/offline status topic.
// Published retained so new subscribers see the last known state.
//
// Example: authcore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Event returns the topic for a security event kind.
// Kinds mirror audit log actions: register, login, logout,
// token_refresh, token_reuse, update, delete.
//
// Example: authcore/events/token_reuse
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvents, kind)
}
