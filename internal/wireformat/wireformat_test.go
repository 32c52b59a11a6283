package wireformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-gcs/linkrunner/internal/plan"
)

func missionPlan() plan.Plan {
	return plan.Plan{
		Kind: plan.Mission,
		Home: &plan.HomePosition{Latitude: 42.3898, Longitude: -71.1476, Altitude: 14.0},
		Items: []plan.PlanItem{
			{Seq: 0, Command: 16, Frame: plan.Frame{Kind: plan.FrameGlobalRelativeAltInt}, X: 423898000, Y: -711476000, Z: 25.0},
			{Seq: 1, Command: 16, Frame: plan.Frame{Kind: plan.FrameGlobalRelativeAltInt}, X: 423902000, Y: -711470000, Z: 30.0},
		},
	}
}

func TestToWirePrependsHomeForMission(t *testing.T) {
	w := ToWire(missionPlan())
	require.Len(t, w, 3)
	assert.EqualValues(t, 0, w[0].Seq)
	assert.EqualValues(t, 423898000, w[1].X)
	assert.EqualValues(t, 1, w[1].Seq)
	assert.EqualValues(t, 2, w[2].Seq)
}

func TestFromWireRoundtripsMissionHomeAndItems(t *testing.T) {
	p := missionPlan()
	w := ToWire(p)
	back := FromWire(plan.Mission, w)
	require.NotNil(t, back.Home)
	assert.InDelta(t, p.Home.Latitude, back.Home.Latitude, 1e-6)
	assert.InDelta(t, p.Home.Longitude, back.Home.Longitude, 1e-6)
	assert.True(t, plan.Equivalent(p, back))
}

func TestFenceHasNoHomeShift(t *testing.T) {
	p := plan.Plan{
		Kind: plan.Fence,
		Items: []plan.PlanItem{
			{Seq: 0, X: 473977420, Y: 85455940},
			{Seq: 1, X: 473977420, Y: 85456940},
			{Seq: 2, X: 473978420, Y: 85456940},
			{Seq: 3, X: 473978420, Y: 85455940},
		},
	}
	w := ToWire(p)
	require.Len(t, w, 4)

	back := FromWire(plan.Fence, w)
	assert.Nil(t, back.Home)
	assert.Len(t, back.Items, 4)
	assert.True(t, plan.Equivalent(p, back))
}

func TestToWireWithoutHomeIsUnchanged(t *testing.T) {
	p := missionPlan()
	p.Home = nil
	w := ToWire(p)
	require.Len(t, w, 2)
	assert.EqualValues(t, 0, w[0].Seq)
}
