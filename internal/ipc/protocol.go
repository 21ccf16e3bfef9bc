// Package ipc implements the control channel between the controller and the
// overlay process: framed JSON messages over a loopback TCP connection.
package ipc

import "github.com/tharun-extinct/Gaming-optimizer/internal/domain"

// MsgType discriminates envelope payloads.
type MsgType string

const (
	// MsgCommand carries an OverlayCommand, controller to overlay.
	MsgCommand MsgType = "command"
	// MsgAck acknowledges one command, overlay to controller.
	MsgAck MsgType = "ack"
)

// Envelope is the wire message. Seq is assigned by the sender of a command
// and echoed back in the matching ack; commands are applied strictly in
// send order over the single connection.
type Envelope struct {
	Type    MsgType                `json:"type"`
	Seq     uint64                 `json:"seq"`
	Command *domain.OverlayCommand `json:"command,omitempty"`
	Ack     *Ack                   `json:"ack,omitempty"`
}

// Ack reports whether a command was applied. A rejected command (e.g.
// SetVisible(true) with no image loaded) is acknowledged with OK=false and
// a human-readable reason; it is not an error on the channel.
type Ack struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// CommandEnvelope wraps a command for sending.
func CommandEnvelope(seq uint64, cmd domain.OverlayCommand) Envelope {
	return Envelope{Type: MsgCommand, Seq: seq, Command: &cmd}
}

// AckEnvelope wraps an acknowledgement for seq.
func AckEnvelope(seq uint64, ok bool, reason string) Envelope {
	return Envelope{Type: MsgAck, Seq: seq, Ack: &Ack{OK: ok, Reason: reason}}
}
