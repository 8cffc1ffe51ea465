package mqtt

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	if got := (Topics{}).SystemStatus(); got != "foxcontrol/system/status" {
		t.Errorf("SystemStatus() = %q, want %q", got, "foxcontrol/system/status")
	}
	if got := (Topics{}).DeviceState(); got != "foxcontrol/device/state" {
		t.Errorf("DeviceState() = %q, want %q", got, "foxcontrol/device/state")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := onlinePayload("bridge-1")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"bridge-1"`) {
		t.Errorf("onlinePayload = %s, want online status with client id", online)
	}

	offline := offlinePayload("bridge-1", "graceful_shutdown")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offlinePayload = %s, want offline status with reason", offline)
	}
}
