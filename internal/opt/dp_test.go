package opt

import (
	"context"
	"math"
	"reflect"
	"testing"

	"shiftnav/internal/graph"
	"shiftnav/internal/model"
	"shiftnav/internal/signals"
)

func TestSolveDPTwoZones(t *testing.T) {
	rm := NewRateModel(twoZoneGraph(), testParams, signals.Neutral{})
	vt := rm.solveDP(context.Background(), 9, 1, testDate)

	// One hour is 12 ticks; each move costs 4. From b: 20 + .95*(10 +
	// .95*20) = 47.55, from a: 10 + .95*(20 + .95*10) = 38.025.
	if got := vt.value[12][1]; math.Abs(got-47.55) > 1e-6 {
		t.Fatalf("V[12][b] = %v, want 47.55", got)
	}
	if got := vt.value[12][0]; math.Abs(got-38.025) > 1e-6 {
		t.Fatalf("V[12][a] = %v, want 38.025", got)
	}

	earnings, path := vt.extract(rm.g, 1)
	if math.Abs(earnings-47.55) > 1e-6 {
		t.Fatalf("earnings = %v, want 47.55", earnings)
	}
	if want := []string{"b", "a", "b", "a"}; !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	if vt.bestStart() != 1 {
		t.Fatalf("bestStart = %d, want 1 (zone b)", vt.bestStart())
	}
}

func TestSolveDPOneWayEdgeHoldsAtDeadEnd(t *testing.T) {
	// Only a->b exists. The driver takes it exactly once (6 min wait at a,
	// 10 min travel) and then holds at b with nothing reachable.
	zones := []model.Zone{zone(1, "a", 40.0, -74.0), zone(1, "b", 40.1, -74.1)}
	trips := []model.TripStats{flatTrip(1, "a", "b", 10, 10, 10)}
	rm := NewRateModel(graph.Build(1, zones, trips), testParams, signals.Neutral{})

	vt := rm.solveDP(context.Background(), 8, 1, testDate)
	earnings, path := vt.extract(rm.g, 0)
	if math.Abs(earnings-10) > 1e-9 {
		t.Fatalf("earnings = %v, want 10 (one fare, future value zero)", earnings)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
}

func TestSolveDPTerminalRowZero(t *testing.T) {
	rm := NewRateModel(twoZoneGraph(), testParams, signals.Neutral{})
	vt := rm.solveDP(context.Background(), 9, 2, testDate)
	for z := 0; z < 2; z++ {
		if vt.value[0][z] != 0 {
			t.Fatalf("V[0][%d] = %v, want 0", z, vt.value[0][z])
		}
	}
}

func TestSolveDPNoTripFits(t *testing.T) {
	// 100-minute trips cannot fit in a one-hour shift.
	zones := []model.Zone{zone(1, "a", 40.0, -74.0), zone(1, "b", 40.1, -74.1)}
	trips := []model.TripStats{
		flatTrip(1, "a", "b", 10, 100, 10),
		flatTrip(1, "b", "a", 20, 100, 10),
	}
	rm := NewRateModel(graph.Build(1, zones, trips), testParams, signals.Neutral{})
	vt := rm.solveDP(context.Background(), 9, 1, testDate)
	earnings, path := vt.extract(rm.g, 0)
	if earnings != 0 {
		t.Fatalf("earnings = %v, want 0", earnings)
	}
	if want := []string{"a"}; !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
}

func TestSolveDPMonotoneInHours(t *testing.T) {
	rm := NewRateModel(twoZoneGraph(), testParams, signals.Neutral{})
	prev := 0.0
	for hours := 1; hours <= 6; hours++ {
		vt := rm.solveDP(context.Background(), 9, hours, testDate)
		earnings, _ := vt.extract(rm.g, 1)
		if earnings < prev-valueTol {
			t.Fatalf("earnings decreased from %v to %v at %d hours", prev, earnings, hours)
		}
		prev = earnings
	}
}

func TestSolveDPDeterministic(t *testing.T) {
	rm := NewRateModel(twoZoneGraph(), testParams, signals.Neutral{})
	vt1 := rm.solveDP(context.Background(), 9, 3, testDate)
	vt2 := rm.solveDP(context.Background(), 9, 3, testDate)
	e1, p1 := vt1.extract(rm.g, 0)
	e2, p2 := vt2.extract(rm.g, 0)
	if e1 != e2 || !reflect.DeepEqual(p1, p2) {
		t.Fatalf("repeated solves differ: (%v, %v) vs (%v, %v)", e1, p1, e2, p2)
	}
}

func TestSolveDPTieBreakSmallestZone(t *testing.T) {
	// b and c are identical destinations; ties must pick b.
	zones := []model.Zone{
		zone(1, "a", 40.0, -74.0),
		zone(1, "b", 40.1, -74.1),
		zone(1, "c", 40.2, -74.2),
	}
	trips := []model.TripStats{
		flatTrip(1, "a", "b", 10, 10, 10),
		flatTrip(1, "a", "c", 10, 10, 10),
	}
	rm := NewRateModel(graph.Build(1, zones, trips), testParams, signals.Neutral{})
	vt := rm.solveDP(context.Background(), 9, 1, testDate)
	_, path := vt.extract(rm.g, 0)
	if len(path) < 2 || path[1] != "b" {
		t.Fatalf("path = %v, want a->b first", path)
	}
}

func TestPathTimingBreakdown(t *testing.T) {
	rm := NewRateModel(twoZoneGraph(), testParams, signals.Neutral{})
	steps := rm.PathTiming(context.Background(), []string{"b", "a", "b"}, 9, testDate)
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	if steps[0].Fare != 20 || steps[0].TravelMinutes != 10 || steps[0].WaitMinutes != 6 {
		t.Fatalf("step 1 = %+v", steps[0])
	}
	if got := steps[1].CumulativeEarnings; got != 30 {
		t.Fatalf("cumulative earnings = %v, want 30", got)
	}
	if got := steps[1].CumulativeMinutes; got != 32 {
		t.Fatalf("cumulative minutes = %v, want 32", got)
	}
}

// neutralStore has zones and trips but no surge or weather history, so the
// store-backed signal provider must behave exactly like the neutral one.
func TestSolveNeutralSignalsEquivalence(t *testing.T) {
	g := twoZoneGraph()
	neutral := NewRateModel(g, testParams, signals.Neutral{})
	stored := NewRateModel(g, testParams, signals.NewStoreProvider(newEmptySignalStore()))

	vtN := neutral.solveDP(context.Background(), 9, 2, testDate)
	vtS := stored.solveDP(context.Background(), 9, 2, testDate)
	eN, pN := vtN.extract(g, 1)
	eS, pS := vtS.extract(g, 1)
	if math.Abs(eN-eS) > 1e-9 || !reflect.DeepEqual(pN, pS) {
		t.Fatalf("neutral (%v, %v) != store-backed (%v, %v)", eN, pN, eS, pS)
	}
}
