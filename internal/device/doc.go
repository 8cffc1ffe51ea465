// Package device implements the device-state machine and serial command
// pacing for FoxControl.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────┐
//	│                         Server                            │
//	│                                                           │
//	│  mutators ──▶ token queue ──▶ transmit loop ──▶ Transport │
//	│     │                                                     │
//	│     └──▶ state (is_on, mode, target/actual speed)         │
//	│                ▲                                          │
//	│  receive loop ─┘ (feedback lines from Transport)          │
//	│  console loop ──▶ mutators                                │
//	└───────────────────────────────────────────────────────────┘
//
// The device hardware has no absolute-speed instruction, only single-byte
// relative steps, so a speed change is expressed as an ordered run of
// 'h'/'l' tokens. The queue is strictly FIFO: reordering would corrupt the
// cumulative effect of those steps.
//
// State is updated optimistically when tokens are enqueued; the device's
// own feedback lines converge actual_speed towards target_speed. The
// device accepts mode commands only while actual and target agree.
//
// Delivery is at-least-attempted: a failed serial write is logged and the
// token dropped, relying on the operator or gateway to reissue.
package device
