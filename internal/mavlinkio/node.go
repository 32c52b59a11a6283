// Package mavlinkio wraps a gomavlib node behind the two transport
// shapes the runtime supports (datagram bind, serial device) and the
// ArduPilot dialect the rest of the runtime speaks. It owns the codec
// and the byte-stream endpoint; everything above it deals only in
// decoded messages.
package mavlinkio

import (
	"fmt"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// GCSSystemID is the system ID the runtime identifies itself with,
// following the MAVLink convention of 255 for ground control stations.
const GCSSystemID = 255

// TargetComponent is the component ID commands are addressed to on the
// autopilot, absent a more specific value learned from telemetry.
const TargetComponent = 1

// EndpointKind selects between the two transports the runtime exposes.
type EndpointKind int

const (
	EndpointUDPBind EndpointKind = iota
	EndpointSerialPort
)

// EndpointConfig describes one transport adapter the runtime can open.
// Exactly one of the (Address) / (Device, Baud) pairs is meaningful,
// selected by Kind.
type EndpointConfig struct {
	Kind    EndpointKind
	Address string // host:port, for EndpointUDPBind
	Device  string // serial device path, for EndpointSerialPort
	Baud    int
}

// Node is a thin handle over a gomavlib.Node bound to the ArduPilot
// dialect.
type Node struct {
	inner *gomavlib.Node
}

// Open creates the transport adapter and codec for cfg.
func Open(cfg EndpointConfig) (*Node, error) {
	var endpoint gomavlib.EndpointConf
	switch cfg.Kind {
	case EndpointUDPBind:
		endpoint = gomavlib.EndpointUDPServer{Address: cfg.Address}
	case EndpointSerialPort:
		endpoint = gomavlib.EndpointSerial{Device: cfg.Device, Baud: cfg.Baud}
	default:
		return nil, fmt.Errorf("mavlinkio: unknown endpoint kind %d", cfg.Kind)
	}

	inner, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{endpoint},
		Dialect:     ardupilotmega.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: GCSSystemID,
	})
	if err != nil {
		return nil, fmt.Errorf("mavlinkio: open node: %w", err)
	}
	return &Node{inner: inner}, nil
}

// Events exposes the underlying gomavlib event stream; callers filter
// for *gomavlib.EventFrame themselves, matching the pattern the rest
// of the pack uses.
func (n *Node) Events() chan gomavlib.Event {
	return n.inner.Events()
}

// WriteMessageAll transmits msg to every connected endpoint.
func (n *Node) WriteMessageAll(msg message.Message) error {
	return n.inner.WriteMessageAll(msg)
}

// Close releases the transport.
func (n *Node) Close() {
	n.inner.Close()
}
