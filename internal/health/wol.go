package health

import (
	"bytes"
	"context"
	"fmt"
	"net"
)

// Waker delivers a power-on signal to a sleeping machine.
type Waker interface {
	Wake(ctx context.Context) error
}

// MagicPacketWaker sends a Wake-on-LAN magic packet over UDP.
type MagicPacketWaker struct {
	mac           net.HardwareAddr
	broadcastAddr string
}

// NewMagicPacketWaker parses mac and targets broadcastAddr (host:port).
func NewMagicPacketWaker(mac, broadcastAddr string) (*MagicPacketWaker, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("parse wake mac: %w", err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("wake mac must be 6 bytes, got %d", len(hw))
	}
	return &MagicPacketWaker{mac: hw, broadcastAddr: broadcastAddr}, nil
}

// Wake writes one magic packet; it does not wait for the target.
func (w *MagicPacketWaker) Wake(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", w.broadcastAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.broadcastAddr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(MagicPacket(w.mac)); err != nil {
		return fmt.Errorf("send magic packet: %w", err)
	}
	return nil
}

// MagicPacket builds 6 bytes of 0xFF followed by the MAC repeated 16 times.
func MagicPacket(mac net.HardwareAddr) []byte {
	packet := make([]byte, 0, 6+16*len(mac))
	packet = append(packet, bytes.Repeat([]byte{0xFF}, 6)...)
	for i := 0; i < 16; i++ {
		packet = append(packet, mac...)
	}
	return packet
}
