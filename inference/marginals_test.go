package inference

import (
	"context"
	"math"
	"testing"

	"github.com/happyhackingspace/boqa/ontology"
)

func queryFor(t *testing.T, m *Model, ids ...string) *Observations {
	t.Helper()
	var on []int
	for _, id := range ids {
		idx := m.graph.IndexOf(ontology.TermID(id))
		if idx < 0 {
			t.Fatalf("unknown term %s", id)
		}
		on = append(on, idx)
	}
	obs, err := NewObservations(m, on)
	if err != nil {
		t.Fatal(err)
	}
	return obs
}

func TestTrivialChainExactMatch(t *testing.T) {
	m := chainModel(t, Options{
		AlphaGrid: []float64{0},
		BetaGrid:  []float64{0},
	})
	obs := queryFor(t, m, "T:2")

	res, err := m.AssignMarginals(context.Background(), obs, false, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Marginals[0]; math.Abs(got-1) > 1e-12 {
		t.Errorf("marginal(I0) = %v, want 1", got)
	}
	if got := res.Marginals[1]; got != 0 {
		t.Errorf("marginal(I1) = %v, want 0", got)
	}
}

func TestNoiseSymmetry(t *testing.T) {
	m := chainModel(t, Options{
		AlphaGrid: []float64{0.5},
		BetaGrid:  []float64{0.5},
	})
	obs := queryFor(t, m, "T:2")

	res, err := m.AssignMarginals(context.Background(), obs, false, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Marginals[0]-res.Marginals[1]) > 1e-9 {
		t.Errorf("marginals %v not uniform under alpha = beta = 0.5", res.Marginals)
	}
}

func TestFrequencyWeighting(t *testing.T) {
	g := chainGraph(t)
	cont := assocsSimple(map[string][]simpleAssoc{
		"I0": {{"T:2", "10%"}},
		"I1": {{"T:2", ""}},
	}, []string{"I0", "I1"})

	m, err := New(g, cont, Options{
		AlphaGrid: []float64{0.01},
		BetaGrid:  []float64{0.1},
	})
	if err != nil {
		t.Fatal(err)
	}
	obs := queryFor(t, m, "T:2")

	res, err := m.AssignMarginals(context.Background(), obs, true, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Marginals[1] <= res.Marginals[0] {
		t.Errorf("marginal(I1) = %v should exceed marginal(I0) = %v",
			res.Marginals[1], res.Marginals[0])
	}
}

func TestAncestorClosureScoring(t *testing.T) {
	g := chainGraph(t)
	cont := assocsSimple(map[string][]simpleAssoc{
		"I0": {{"T:0", ""}, {"T:2", ""}},
		"I1": {{"T:1", ""}},
	}, []string{"I0", "I1"})

	m, err := New(g, cont, Options{})
	if err != nil {
		t.Fatal(err)
	}
	obs := queryFor(t, m, "T:2")

	res, err := m.AssignMarginals(context.Background(), obs, true, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range res.Marginals {
		if p <= 0 {
			t.Errorf("marginal(I%d) = %v, want > 0", i, p)
		}
	}
}

func TestNormalisation(t *testing.T) {
	m := randomModel(t, 120, 15, 21)
	obs := queryFor(t, m, "T:0007")

	res, err := m.AssignMarginals(context.Background(), obs, true, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, p := range res.Marginals {
		sum += p
	}
	if sum < 1-1e-9 || sum > 1+1e-9 {
		t.Errorf("sum of marginals = %v, want 1", sum)
	}
}

func TestMonotoneInAlpha(t *testing.T) {
	// I1 = {T:0} accumulates false positives for the query {T:2}; raising
	// alpha must make it relatively more probable.
	g := chainGraph(t)
	cont := assocsSimple(map[string][]simpleAssoc{
		"I0": {{"T:2", ""}},
		"I1": {{"T:0", ""}},
	}, []string{"I0", "I1"})

	prevRatio := -1.0
	for _, alpha := range []float64{0.001, 0.01, 0.1} {
		m, err := New(g, cont, Options{
			AlphaGrid: []float64{alpha},
			BetaGrid:  []float64{0.1},
		})
		if err != nil {
			t.Fatal(err)
		}
		obs := queryFor(t, m, "T:2")
		res, err := m.AssignMarginals(context.Background(), obs, false, 1, nil)
		if err != nil {
			t.Fatal(err)
		}
		ratio := res.Marginals[1] / res.Marginals[0]
		if ratio <= prevRatio {
			t.Errorf("alpha=%v: ratio %v did not increase (previous %v)", alpha, ratio, prevRatio)
		}
		prevRatio = ratio
	}
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	m := randomModel(t, 200, 20, 42)
	obs := queryFor(t, m, "T:0013", "T:0077")

	sequential, err := m.AssignMarginals(context.Background(), obs, true, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := m.AssignMarginals(context.Background(), obs, true, 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range sequential.Marginals {
		if math.Abs(sequential.Marginals[i]-parallel.Marginals[i]) > 1e-12 {
			t.Errorf("item %d: marginals differ: %v vs %v",
				i, sequential.Marginals[i], parallel.Marginals[i])
		}
	}
}

func TestCancellation(t *testing.T) {
	m := randomModel(t, 100, 10, 5)
	obs := queryFor(t, m, "T:0005")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.AssignMarginals(ctx, obs, true, 2, nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestBenchmarkObservations(t *testing.T) {
	m := randomModel(t, 80, 12, 17)

	rnd := newTestRand(3)
	item := 4
	obs := m.GenerateObservations(item, DefaultSimulationParams(), rnd)
	if obs == nil || obs.Positive() == 0 {
		t.Fatal("generated observations are empty")
	}
	info := m.BenchmarkFor(item, obs)
	if info.Stats.Total() != m.graph.NumVertices() {
		t.Fatalf("benchmark stats total = %d, want %d", info.Stats.Total(), m.graph.NumVertices())
	}

	res, err := m.AssignMarginals(context.Background(), obs, true, 1, info)
	if err != nil {
		t.Fatal(err)
	}
	if res.MarginalsIdeal == nil {
		t.Fatal("ideal marginals not computed")
	}
	if res.MarginalsIdeal[item] < res.Marginals[item] {
		t.Error("ideal marginal of the true item should not trail the estimated one")
	}
}
