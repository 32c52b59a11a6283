package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-gcs/linkrunner/internal/plan"
	"github.com/argus-gcs/linkrunner/internal/transfer"
	"github.com/argus-gcs/linkrunner/internal/wireformat"
)

func wireItem(seq uint16, x, y int32) wireformat.WireItem {
	return wireformat.WireItem{Seq: seq, Command: 16, Autocontinue: true, X: x, Y: y}
}

func newTestVehicle() (*Vehicle, *fakeTransport) {
	tr := newFakeTransport()
	v := newConnected(nil, tr)
	v.mu.Lock()
	v.connected = true
	v.systemID = 1
	v.mu.Unlock()
	return v, tr
}

func samplePlan() plan.Plan {
	return plan.Plan{
		Kind: plan.Mission,
		Home: &plan.HomePosition{Latitude: 42.3898, Longitude: -71.1476, Altitude: 14.0},
		Items: []plan.PlanItem{
			{Seq: 0, Command: 16, Autocontinue: true, X: 423898000, Y: -711476000, Z: 25.0},
			{Seq: 1, Command: 16, Autocontinue: true, X: 423902000, Y: -711470000, Z: 30.0},
		},
	}
}

func TestUploadHappyPath(t *testing.T) {
	v, _ := newTestVehicle()
	defer v.Disconnect()

	p := samplePlan()
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		errCh <- v.Upload(ctx, p)
	}()

	require.Eventually(t, func() bool {
		prog, ok := v.Transfer.Get()
		return ok && prog.Phase == transfer.PhaseRequestCount
	}, time.Second, time.Millisecond)

	// Peer requests the three wire items (home + two waypoints) in order.
	for seq := uint16(0); seq < 3; seq++ {
		v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionRequestInt, Type: plan.Mission, Seq: seq})
	}
	v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionAck, Type: plan.Mission, Result: transfer.MissionResultAccepted})

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("upload did not complete")
	}
}

func TestUploadRejectsInvalidPlanWithoutTouchingTransport(t *testing.T) {
	v, tr := newTestVehicle()
	defer v.Disconnect()

	bad := plan.Plan{Kind: plan.Mission, Items: []plan.PlanItem{{Seq: 5, Command: 16}}}
	err := v.Upload(context.Background(), bad)

	var invalid *InvalidPlanError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, tr.Sent())
}

func TestDownloadHappyPath(t *testing.T) {
	v, _ := newTestVehicle()
	defer v.Disconnect()

	resultCh := make(chan plan.Plan, 1)
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		p, err := v.Download(ctx, plan.Fence)
		resultCh <- p
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		prog, ok := v.Transfer.Get()
		return ok && prog.Direction == transfer.Download
	}, time.Second, time.Millisecond)

	v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionCount, Type: plan.Fence, Count: 2})
	v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionItemInt, Type: plan.Fence, Seq: 0, Item: wireItem(0, 100, 200)})
	v.feedTransfer(transfer.Inbound{Tag: transfer.EvMissionItemInt, Type: plan.Fence, Seq: 1, Item: wireItem(1, 300, 400)})

	select {
	case err := <-errCh:
		require.NoError(t, err)
		p := <-resultCh
		assert.Equal(t, plan.Fence, p.Kind)
		assert.Len(t, p.Items, 2)
	case <-time.After(time.Second):
		t.Fatal("download did not complete")
	}
}

func TestSecondTransferIsBusyWhileOneActive(t *testing.T) {
	v, _ := newTestVehicle()
	defer v.Disconnect()

	go func() {
		_, _ = v.Download(context.Background(), plan.Mission)
	}()

	require.Eventually(t, func() bool {
		prog, ok := v.Transfer.Get()
		return ok && prog.Phase == transfer.PhaseRequestCount
	}, time.Second, time.Millisecond)

	err := v.Clear(context.Background(), plan.Fence)
	assert.ErrorIs(t, err, ErrBusy)

	v.CancelTransfer()
}

func TestCancelTransferUnblocksCaller(t *testing.T) {
	v, _ := newTestVehicle()
	defer v.Disconnect()

	errCh := make(chan error, 1)
	go func() {
		errCh <- v.Clear(context.Background(), plan.Rally)
	}()

	require.Eventually(t, func() bool {
		prog, ok := v.Transfer.Get()
		return ok && prog.Kind == plan.Rally
	}, time.Second, time.Millisecond)

	v.CancelTransfer()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock caller")
	}
}

func TestSetCurrentRejectsSeqBeyondKnownTotal(t *testing.T) {
	v, _ := newTestVehicle()
	defer v.Disconnect()
	v.updateMissionState(func(m *MissionState) { m.Total = 3 })

	err := v.SetCurrent(context.Background(), 10)
	var seqErr *SeqOutOfRangeError
	require.ErrorAs(t, err, &seqErr)
}
