package mqtt

// Topic namespace for the FoxControl bridge.
//
//	foxcontrol/system/status   retained bridge presence (online/offline)
//	foxcontrol/device/state    retained latest device snapshot
const topicPrefix = "foxcontrol"

// Topics builds the bridge's topic names. A struct rather than free
// functions so call sites read as a namespace: Topics{}.DeviceState().
type Topics struct{}

// SystemStatus is the retained presence topic, also used for the LWT.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceState is the retained snapshot topic.
func (Topics) DeviceState() string {
	return topicPrefix + "/device/state"
}
