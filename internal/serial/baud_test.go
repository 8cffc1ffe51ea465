package serial

import "testing"

func TestSnapBaudRate(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 50},
		{50, 50},
		{51, 75},
		{110, 110},
		{115, 134},
		{2000, 2400},
		{9600, 9600},
		{19200, 19200},
		{19201, 38400},
		{38400, 38400},
		// Anything faster than the table falls back to the device default.
		{57600, 9600},
		{115200, 9600},
	}

	for _, tt := range tests {
		if got := SnapBaudRate(tt.requested); got != tt.want {
			t.Errorf("SnapBaudRate(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}
