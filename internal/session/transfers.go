package session

import (
	"context"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/argus-gcs/linkrunner/internal/mavlinkio"
	"github.com/argus-gcs/linkrunner/internal/plan"
	"github.com/argus-gcs/linkrunner/internal/transfer"
	"github.com/argus-gcs/linkrunner/internal/wireformat"
)

// transferSession pairs a running transfer.Machine with the single
// outstanding retry timer the session actor maintains for it.
type transferSession struct {
	machine *transfer.Machine
	timer   *time.Timer
	done    chan struct{}
}

// Upload validates, normalises and uploads plan. It fails fast with
// InvalidPlanError without touching the transport if plan.Validate
// finds any Error-severity issue.
func (v *Vehicle) Upload(ctx context.Context, p plan.Plan) error {
	if issues := plan.Validate(p); plan.HasErrors(issues) {
		return &InvalidPlanError{Issues: issues}
	}
	if err := v.requireConnected(); err != nil {
		return err
	}

	wire := wireformat.ToWire(plan.Normalize(p))
	machine := transfer.NewUpload(p.Kind, wire)
	return v.runTransfer(ctx, machine, func() {})
}

// Download runs the mission-protocol download exchange and returns the
// resulting semantic plan. An empty result (zero items) is not an
// error.
func (v *Vehicle) Download(ctx context.Context, kind plan.Kind) (plan.Plan, error) {
	if err := v.requireConnected(); err != nil {
		return plan.Plan{}, err
	}

	machine := transfer.NewDownload(kind)
	var result plan.Plan
	err := v.runTransfer(ctx, machine, func() {
		result = wireformat.FromWire(kind, machine.Result())
	})
	return result, err
}

// Clear removes all items of kind from the autopilot.
func (v *Vehicle) Clear(ctx context.Context, kind plan.Kind) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	machine := transfer.NewClear(kind)
	return v.runTransfer(ctx, machine, func() {})
}

// SetCurrent instructs the autopilot to make seq the active mission
// item.
func (v *Vehicle) SetCurrent(ctx context.Context, seq uint16) error {
	if err := v.requireConnected(); err != nil {
		return err
	}
	mission, _ := v.Mission.Get()
	if mission.Total > 0 && int32(seq) >= mission.Total {
		return &SeqOutOfRangeError{Seq: seq, Total: mission.Total}
	}
	machine := transfer.NewSetCurrent(plan.Mission, seq)
	return v.runTransfer(ctx, machine, func() {})
}

// VerifyRoundtrip uploads p, downloads the same kind back, and reports
// whether they are equivalent once home is stripped from both sides
// (the autopilot may fuse its own home estimate independently of what
// was uploaded). When strict is true, a home position present on both
// sides must also match, not just the non-home items; this is the
// toggle the bare roundtrip check leaves unexposed.
func (v *Vehicle) VerifyRoundtrip(ctx context.Context, p plan.Plan, strict bool) (bool, error) {
	if err := v.Upload(ctx, p); err != nil {
		return false, err
	}
	downloaded, err := v.Download(ctx, p.Kind)
	if err != nil {
		return false, err
	}
	if !plan.Equivalent(plan.StripHome(p), plan.StripHome(downloaded)) {
		return false, nil
	}
	if strict && p.Home != nil && downloaded.Home != nil {
		return homesMatch(*p.Home, *downloaded.Home), nil
	}
	return true, nil
}

func homesMatch(a, b plan.HomePosition) bool {
	const tol = 1e-6
	diff := func(x, y float64) bool {
		d := x - y
		return d > -tol && d < tol
	}
	return diff(a.Latitude, b.Latitude) && diff(a.Longitude, b.Longitude) && diff(a.Altitude, b.Altitude)
}

// CancelTransfer cancels the active transfer, if any. The machine
// settles in PhaseCancelled and the waiting caller's operation returns
// ErrCancelled.
func (v *Vehicle) CancelTransfer() {
	v.mu.Lock()
	ts := v.transfer
	v.mu.Unlock()
	if ts == nil {
		return
	}
	ts.machine.Cancel()
	v.settleTransfer(ts)
}

func (v *Vehicle) runTransfer(ctx context.Context, machine *transfer.Machine, onSuccess func()) error {
	v.mu.Lock()
	if v.transfer != nil {
		v.mu.Unlock()
		return ErrBusy
	}
	ts := &transferSession{machine: machine, done: make(chan struct{})}
	v.transfer = ts
	v.mu.Unlock()

	out, timers := machine.Start()
	v.dispatchOutbound(out)
	v.armTimer(ts, timers)
	v.Transfer.Publish(machine.Progress())

	select {
	case <-ts.done:
	case <-ctx.Done():
		machine.Cancel()
		v.settleTransfer(ts)
		<-ts.done
	}

	progress := machine.Progress()
	switch progress.Phase {
	case transfer.PhaseCompleted:
		onSuccess()
		return nil
	case transfer.PhaseCancelled:
		if !v.isConnected() {
			return ErrLinkLost
		}
		return ErrCancelled
	case transfer.PhaseFailed:
		if progress.Fail != nil && progress.Fail.Timeout {
			return ErrTimeout
		}
		if progress.Fail != nil {
			return &ProtocolError{Result: progress.Fail.AckResult}
		}
		return ErrTimeout
	default:
		return ErrLinkLost
	}
}

func (v *Vehicle) armTimer(ts *transferSession, timers []transfer.TimerRequest) {
	if len(timers) == 0 {
		return
	}
	if ts.timer != nil {
		ts.timer.Stop()
	}
	req := timers[0]
	ts.timer = time.AfterFunc(req.After, func() {
		v.mu.Lock()
		active := v.transfer == ts
		v.mu.Unlock()
		if !active {
			return
		}
		out, next := ts.machine.HandleTimeout(req.Generation)
		v.dispatchOutbound(out)
		v.armTimer(ts, next)
		v.Transfer.Publish(ts.machine.Progress())
		v.settleTransfer(ts)
	})
}

func (v *Vehicle) feedTransfer(ev transfer.Inbound) {
	v.mu.Lock()
	ts := v.transfer
	v.mu.Unlock()
	if ts == nil {
		return
	}
	out, timers := ts.machine.HandleInbound(ev)
	v.dispatchOutbound(out)
	v.armTimer(ts, timers)
	v.Transfer.Publish(ts.machine.Progress())
	v.settleTransfer(ts)

	if ev.Tag == transfer.EvMissionAck || ev.Tag == transfer.EvMissionItemInt {
		v.updateMissionState(func(m *MissionState) {
			p := ts.machine.Progress()
			if p.Phase == transfer.PhaseCompleted && p.Total > 0 {
				m.Total = int32(p.Total)
			}
		})
	}
}

// settleTransfer clears v.transfer and signals ts.done once the
// machine reaches a terminal phase. Safe to call repeatedly.
func (v *Vehicle) settleTransfer(ts *transferSession) {
	if !ts.machine.Done() {
		return
	}
	v.mu.Lock()
	if v.transfer == ts {
		v.transfer = nil
	}
	v.mu.Unlock()
	if ts.timer != nil {
		ts.timer.Stop()
	}
	select {
	case <-ts.done:
	default:
		close(ts.done)
	}
}

// failActiveTransfer is invoked by the watchdog when the link is
// declared lost; it cancels any in-flight transfer so its caller
// unblocks with ErrLinkLost rather than hanging until a timeout.
func (v *Vehicle) failActiveTransfer(_ error) {
	v.mu.Lock()
	ts := v.transfer
	v.mu.Unlock()
	if ts == nil {
		return
	}
	ts.machine.Cancel()
	v.settleTransfer(ts)
}

func (v *Vehicle) dispatchOutbound(outs []transfer.Outbound) {
	sysID := v.targetSystem()
	for _, out := range outs {
		switch out.Kind {
		case transfer.OutMissionCount:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageMissionCount{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				Count:           out.Count,
				MissionType:     kindToMAV(out.Type),
			})

		case transfer.OutMissionItemInt:
			_ = v.node.WriteMessageAll(itemToMessage(sysID, mavlinkio.TargetComponent, out.Type, out.Item))

		case transfer.OutMissionRequestList:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageMissionRequestList{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				MissionType:     kindToMAV(out.Type),
			})

		case transfer.OutMissionRequestInt:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageMissionRequestInt{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				Seq:             out.Seq,
				MissionType:     kindToMAV(out.Type),
			})

		case transfer.OutMissionAck:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageMissionAck{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				Type:            ardupilotmega.MAV_MISSION_RESULT(out.Result),
				MissionType:     kindToMAV(out.Type),
			})

		case transfer.OutMissionClearAll:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageMissionClearAll{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				MissionType:     kindToMAV(out.Type),
			})

		case transfer.OutCommandLong:
			_ = v.node.WriteMessageAll(&ardupilotmega.MessageCommandLong{
				TargetSystem:    sysID,
				TargetComponent: mavlinkio.TargetComponent,
				Command:         ardupilotmega.MAV_CMD(out.Command),
				Param1:          out.Param1,
			})
		}
	}
}
