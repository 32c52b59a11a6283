// Package session implements the vehicle session: the top-level async
// actor that owns one transport connection, decodes inbound MAVLink
// frames, multiplexes them into reactive state, and exposes the
// command and mission-transfer operation surface.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/argus-gcs/linkrunner/internal/mavlinkio"
	"github.com/argus-gcs/linkrunner/internal/modetable"
	"github.com/argus-gcs/linkrunner/internal/reactive"
	"github.com/argus-gcs/linkrunner/internal/transfer"
)

// transport is the slice of *mavlinkio.Node the session actor depends
// on. Tests substitute a scripted fake; production code passes a real
// node through Connect.
type transport interface {
	Events() chan gomavlib.Event
	WriteMessageAll(msg message.Message) error
	Close()
}

const (
	initialHeartbeatDeadline = 10 * time.Second
	heartbeatInactivityLimit = 3 * time.Second
	heartbeatSendInterval    = 1 * time.Second
	commandAckDeadline       = 3 * time.Second
	watchdogInterval         = 250 * time.Millisecond
)

// Vehicle is a freely shareable handle onto one session actor. All
// state mutation happens on the actor's own goroutines; public methods
// either read reactive snapshots or submit work guarded by a single
// mutex.
type Vehicle struct {
	logger *logrus.Logger

	node transport

	mu              sync.Mutex
	connected       bool
	lastHeartbeat   time.Time
	systemID        uint8
	vehicleType     ardupilotmega.MAV_TYPE
	autopilot       ardupilotmega.MAV_AUTOPILOT
	requestedHome   bool
	transfer        *transferSession
	cmdWaiters      map[ardupilotmega.MAV_CMD][]chan *ardupilotmega.MessageCommandAck

	cancel    context.CancelFunc
	group     *errgroup.Group
	groupDone chan struct{}

	Telemetry *reactive.Latest[Telemetry]
	Vehicle_  *reactive.Latest[VehicleState]
	Link      *reactive.Latest[LinkState]
	Home      *reactive.Latest[HomePositionState]
	Mission   *reactive.Latest[MissionState]
	Transfer  *reactive.Latest[transfer.Progress]
}

// HomePositionState wraps the last HOME_POSITION sample published by
// the autopilot, in degrees/metres the same way plan.HomePosition is
// expressed.
type HomePositionState struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// New constructs an idle Vehicle handle. Connect must be called before
// any other operation succeeds.
func New(logger *logrus.Logger) *Vehicle {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Vehicle{
		logger:     logger,
		cmdWaiters: make(map[ardupilotmega.MAV_CMD][]chan *ardupilotmega.MessageCommandAck),
		Telemetry:  reactive.NewLatest[Telemetry](),
		Vehicle_:   reactive.NewLatest[VehicleState](),
		Link:       reactive.NewLatest[LinkState](),
		Home:       reactive.NewLatest[HomePositionState](),
		Mission:    reactive.NewLatest[MissionState](),
		Transfer:   reactive.NewLatest[transfer.Progress](),
	}
}

// newConnected wires an already-open transport directly into a fresh
// Vehicle and starts its actor loops, bypassing mavlinkio.Open. Used by
// tests that drive the session against a scripted fake transport.
func newConnected(logger *logrus.Logger, tr transport) *Vehicle {
	v := New(logger)
	v.node = tr

	actorCtx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(actorCtx)
	v.cancel = cancel
	v.group = group
	v.groupDone = make(chan struct{})

	group.Go(func() error { return v.readLoop(gctx) })
	group.Go(func() error { return v.heartbeatSendLoop(gctx) })
	group.Go(func() error { return v.watchdogLoop(gctx) })

	go func() {
		_ = group.Wait()
		close(v.groupDone)
	}()

	return v
}

// Connect opens the transport, launches the I/O actor, and blocks
// until the first heartbeat arrives or initialHeartbeatDeadline
// elapses.
func (v *Vehicle) Connect(ctx context.Context, cfg mavlinkio.EndpointConfig) error {
	v.mu.Lock()
	if v.node != nil {
		v.mu.Unlock()
		return ErrBusy
	}
	v.mu.Unlock()

	node, err := mavlinkio.Open(cfg)
	if err != nil {
		return &TransportError{Err: err}
	}

	v.mu.Lock()
	v.node = node
	v.connected = false
	v.requestedHome = false
	v.mu.Unlock()

	v.Link.Publish(LinkState{Phase: LinkConnecting})

	actorCtx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(actorCtx)
	v.cancel = cancel
	v.group = group
	v.groupDone = make(chan struct{})

	group.Go(func() error { return v.readLoop(gctx) })
	group.Go(func() error { return v.heartbeatSendLoop(gctx) })
	group.Go(func() error { return v.watchdogLoop(gctx) })

	go func() {
		_ = group.Wait()
		close(v.groupDone)
	}()

	firstHeartbeat := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(20 * time.Millisecond):
				v.mu.Lock()
				ok := v.connected
				v.mu.Unlock()
				if ok {
					close(firstHeartbeat)
					return
				}
			}
		}
	}()
	defer close(stop)

	select {
	case <-firstHeartbeat:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(initialHeartbeatDeadline):
		v.Link.Publish(LinkState{Phase: LinkErrorPhase, Reason: "no heartbeat"})
		return ErrTimeout
	}
}

// Disconnect shuts down the actor and closes the transport.
func (v *Vehicle) Disconnect() {
	v.mu.Lock()
	node := v.node
	cancel := v.cancel
	done := v.groupDone
	v.node = nil
	v.connected = false
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if node != nil {
		node.Close()
	}
	v.Link.Publish(LinkState{Phase: LinkDisconnected})
}

func (v *Vehicle) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-v.node.Events():
			if !ok {
				return nil
			}
			if frm, ok := evt.(*gomavlib.EventFrame); ok {
				v.handleMessage(frm)
			}
		}
	}
}

func (v *Vehicle) heartbeatSendLoop(ctx context.Context) error {
	ticker := time.NewTicker(heartbeatSendInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageHeartbeat{
				Type:           ardupilotmega.MAV_TYPE_GCS,
				Autopilot:      ardupilotmega.MAV_AUTOPILOT_INVALID,
				BaseMode:       0,
				CustomMode:     0,
				SystemStatus:   ardupilotmega.MAV_STATE_ACTIVE,
				MavlinkVersion: 3,
			})
		}
	}
}

func (v *Vehicle) watchdogLoop(ctx context.Context) error {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v.mu.Lock()
			stale := v.connected && time.Since(v.lastHeartbeat) > heartbeatInactivityLimit
			if stale {
				v.connected = false
			}
			v.mu.Unlock()
			if stale {
				v.logger.Warn("vehicle session: heartbeat inactivity timeout, link lost")
				v.Link.Publish(LinkState{Phase: LinkErrorPhase, Reason: "timeout"})
				v.failActiveTransfer(ErrLinkLost)
			}
		}
	}
}

// LinkSnapshot is a convenience accessor returning the current link
// state without subscribing.
func (v *Vehicle) LinkSnapshot() LinkState {
	s, _ := v.Link.Get()
	return s
}

func (v *Vehicle) isConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

func (v *Vehicle) targetSystem() uint8 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.systemID
}

func (v *Vehicle) vehicleClass() ardupilotmega.MAV_TYPE {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vehicleType
}

// requireConnected is the guard every command/transfer operation opens
// with.
func (v *Vehicle) requireConnected() error {
	v.mu.Lock()
	hasNode := v.node != nil
	v.mu.Unlock()
	if !hasNode {
		return ErrNotConnected
	}
	if !v.isConnected() {
		return ErrLinkLost
	}
	return nil
}

func (v *Vehicle) modeName(customMode uint32) string {
	return modetable.Name(v.vehicleClass(), customMode)
}
