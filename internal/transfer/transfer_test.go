package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-gcs/linkrunner/internal/plan"
	"github.com/argus-gcs/linkrunner/internal/wireformat"
)

func twoItemUpload() []wireformat.WireItem {
	return []wireformat.WireItem{
		{Seq: 0, Command: 16, X: 423898000, Y: -711476000, Z: 25.0},
		{Seq: 1, Command: 16, X: 423902000, Y: -711470000, Z: 30.0},
	}
}

func TestUploadFairnessScriptedPeer(t *testing.T) {
	items := twoItemUpload()
	m := NewUpload(plan.Mission, items)

	out, timers := m.Start()
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionCount, out[0].Kind)
	require.Len(t, timers, 1)

	itemSends := 0
	for seq := 0; seq < len(items); seq++ {
		out, _ = m.HandleInbound(Inbound{Tag: EvMissionRequestInt, Type: plan.Mission, Seq: uint16(seq)})
		require.Len(t, out, 1)
		assert.Equal(t, OutMissionItemInt, out[0].Kind)
		itemSends++
	}
	assert.Equal(t, len(items), itemSends)

	out, _ = m.HandleInbound(Inbound{Tag: EvMissionAck, Type: plan.Mission, Result: MissionResultAccepted})
	assert.Empty(t, out)
	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
}

func TestUploadRetriesOnDroppedCountAck(t *testing.T) {
	m := NewUpload(plan.Mission, twoItemUpload())
	_, timers := m.Start()

	var gen int
	for i := 0; i < 2; i++ {
		gen = timers[len(timers)-1].Generation
		out, t2 := m.HandleTimeout(gen)
		require.Len(t, out, 1)
		assert.Equal(t, OutMissionCount, out[0].Kind)
		timers = t2
	}

	for seq := 0; seq < 2; seq++ {
		m.HandleInbound(Inbound{Tag: EvMissionRequestInt, Type: plan.Mission, Seq: uint16(seq)})
	}
	m.HandleInbound(Inbound{Tag: EvMissionAck, Type: plan.Mission, Result: MissionResultAccepted})

	p := m.Progress()
	assert.Equal(t, PhaseCompleted, p.Phase)
	assert.GreaterOrEqual(t, p.RetriesUsed, 2)
}

func TestUploadFailsAfterMaxRetriesWithNoResponse(t *testing.T) {
	m := NewUpload(plan.Mission, twoItemUpload())
	_, timers := m.Start()

	gen := timers[0].Generation
	for i := 0; i <= MaxRetries; i++ {
		out, next := m.HandleTimeout(gen)
		if m.Done() {
			break
		}
		require.NotEmpty(t, out)
		gen = next[0].Generation
	}

	require.True(t, m.Done())
	p := m.Progress()
	assert.Equal(t, PhaseFailed, p.Phase)
	require.NotNil(t, p.Fail)
	assert.True(t, p.Fail.Timeout)
}

func TestRetryBudgetIsScopedPerStepNotLifetime(t *testing.T) {
	m := NewUpload(plan.Mission, twoItemUpload())
	_, timers := m.Start()

	// Retry MaxRetries-1 times in RequestCount, then let the count ack's
	// item request land: this must not carry retries into TransferItems.
	var gen int
	for i := 0; i < MaxRetries-1; i++ {
		gen = timers[len(timers)-1].Generation
		out, next := m.HandleTimeout(gen)
		require.False(t, m.Done())
		require.Len(t, out, 1)
		timers = next
	}

	out, _ := m.HandleInbound(Inbound{Tag: EvMissionRequestInt, Type: plan.Mission, Seq: 0})
	require.Len(t, out, 1)
	assert.Equal(t, PhaseTransferItems, m.Progress().Phase)
	assert.Equal(t, 0, m.retries)

	// Now time the item step out MaxRetries+1 times (its own MaxRetries
	// retransmits, then the failing timeout); without the earlier
	// RequestCount retries carrying over, the machine must not fail
	// until this step's own budget is exhausted.
	gen = m.generation
	for i := 0; i <= MaxRetries; i++ {
		out, next := m.HandleTimeout(gen)
		if m.Done() {
			break
		}
		require.NotEmpty(t, out)
		gen = next[0].Generation
	}

	require.True(t, m.Done())
	p := m.Progress()
	assert.Equal(t, PhaseFailed, p.Phase)
	require.NotNil(t, p.Fail)
	assert.True(t, p.Fail.Timeout)
}

func TestConcurrentUploadIsSessionResponsibilityNotMachine(t *testing.T) {
	// The machine itself only models one in-flight operation; Busy
	// semantics belong to the session, exercised in internal/session.
	m := NewUpload(plan.Mission, twoItemUpload())
	m.Start()
	assert.False(t, m.Done())
}

func TestCancelDuringTransferItemsEmitsNothingFurther(t *testing.T) {
	m := NewUpload(plan.Mission, twoItemUpload())
	m.Start()
	m.HandleInbound(Inbound{Tag: EvMissionRequestInt, Type: plan.Mission, Seq: 0})

	m.Cancel()
	assert.Equal(t, PhaseCancelled, m.Progress().Phase)

	out, timers := m.HandleInbound(Inbound{Tag: EvMissionRequestInt, Type: plan.Mission, Seq: 1})
	assert.Empty(t, out)
	assert.Empty(t, timers)
}

func TestLegacyMissionRequestFallback(t *testing.T) {
	m := NewUpload(plan.Mission, twoItemUpload())
	m.Start()

	out, _ := m.HandleInbound(Inbound{Tag: EvMissionRequestLegacy, Type: plan.Mission, Seq: 0})
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionItemInt, out[0].Kind)
	assert.EqualValues(t, 0, out[0].Seq)
}

func TestDownloadFullFlow(t *testing.T) {
	m := NewDownload(plan.Fence)
	out, _ := m.Start()
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionRequestList, out[0].Kind)

	out, _ = m.HandleInbound(Inbound{Tag: EvMissionCount, Type: plan.Fence, Count: 2})
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionRequestInt, out[0].Kind)
	assert.EqualValues(t, 0, out[0].Seq)

	out, _ = m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Fence, Seq: 0, Item: wireformat.WireItem{X: 1}})
	require.Len(t, out, 1)
	assert.EqualValues(t, 1, out[0].Seq)

	out, _ = m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Fence, Seq: 1, Item: wireformat.WireItem{X: 2}})
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionAck, out[0].Kind)

	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
	assert.Len(t, m.Result(), 2)
}

func TestDownloadEmptyMissionSkipsToComplete(t *testing.T) {
	m := NewDownload(plan.Rally)
	m.Start()
	out, timers := m.HandleInbound(Inbound{Tag: EvMissionCount, Type: plan.Rally, Count: 0})
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionAck, out[0].Kind)
	assert.Empty(t, timers)
	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
}

func TestDownloadDiscardsOutOfOrderItems(t *testing.T) {
	m := NewDownload(plan.Mission)
	m.Start()
	m.HandleInbound(Inbound{Tag: EvMissionCount, Type: plan.Mission, Count: 3})

	out, timers := m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Mission, Seq: 2})
	assert.Empty(t, out)
	assert.Empty(t, timers)
	assert.Equal(t, 0, m.Progress().Completed)
}

func TestCancelMidDownload(t *testing.T) {
	m := NewDownload(plan.Mission)
	m.Start()
	m.HandleInbound(Inbound{Tag: EvMissionCount, Type: plan.Mission, Count: 5})
	m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Mission, Seq: 0})
	m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Mission, Seq: 1})

	m.Cancel()

	out, timers := m.HandleInbound(Inbound{Tag: EvMissionItemInt, Type: plan.Mission, Seq: 2})
	assert.Empty(t, out)
	assert.Empty(t, timers)

	p := m.Progress()
	assert.Equal(t, PhaseCancelled, p.Phase)
	assert.Equal(t, 2, p.Completed)
}

func TestClearProtocol(t *testing.T) {
	m := NewClear(plan.Fence)
	out, _ := m.Start()
	require.Len(t, out, 1)
	assert.Equal(t, OutMissionClearAll, out[0].Kind)

	m.HandleInbound(Inbound{Tag: EvMissionAck, Type: plan.Fence, Result: MissionResultAccepted})
	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
}

func TestSetCurrentByCommandAck(t *testing.T) {
	m := NewSetCurrent(plan.Mission, 2)
	out, _ := m.Start()
	require.Len(t, out, 1)
	assert.Equal(t, OutCommandLong, out[0].Kind)

	m.HandleInbound(Inbound{Tag: EvCommandAck, Command: CmdDoSetMissionCurrent, Result: CommandResultAccepted})
	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
}

func TestSetCurrentByMissionCurrentBroadcast(t *testing.T) {
	m := NewSetCurrent(plan.Mission, 2)
	m.Start()
	m.HandleInbound(Inbound{Tag: EvMissionCurrent, Seq: 2})
	assert.Equal(t, PhaseCompleted, m.Progress().Phase)
}
