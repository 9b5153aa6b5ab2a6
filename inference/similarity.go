package inference

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/happyhackingspace/boqa/distribution"
)

// Measure selects a classical term similarity measure.
type Measure int

const (
	MeasureResnik Measure = iota
	MeasureLin
	MeasureJC

	numMeasures
)

var measureNames = [numMeasures]string{"resnik", "lin", "jc"}

func (m Measure) String() string {
	if int(m) < len(measureNames) {
		return measureNames[m]
	}
	return "unknown"
}

// measureState holds the per-measure caches. The distribution store is
// guarded by mu (many readers, single writer); concurrent cache misses for
// the same slot are collapsed by the singleflight group so the distribution
// is computed once.
type measureState struct {
	maxScoreForItem [][]float64

	mu    sync.RWMutex
	store *distribution.Store
	group singleflight.Group
}

// queryCache keeps the randomized queries per query size.
type queryCache struct {
	mu      sync.RWMutex
	queries map[int][][]int
}

// SimResult holds similarity scores and, optionally, p-values per item.
type SimResult struct {
	Scores  []float64
	PValues []float64
}

// TermSim returns the similarity of two terms under the given measure.
func (m *Model) TermSim(measure Measure, t1, t2 int) float64 {
	switch measure {
	case MeasureLin:
		nom := 2 * m.items.ic[m.CommonAncestorWithMaxIC(t1, t2)]
		den := m.items.ic[t1] + m.items.ic[t2]
		if nom <= 0 && den <= 0 {
			return 1
		}
		return nom / den
	case MeasureJC:
		return 1 / (1 + m.items.ic[t1] + m.items.ic[t2] - 2*m.items.ic[m.CommonAncestorWithMaxIC(t1, t2)])
	default:
		return m.items.ic[m.CommonAncestorWithMaxIC(t1, t2)]
	}
}

// CommonAncestorWithMaxIC returns the common ancestor of t1 and t2 (each
// term counting as an ancestor of itself) with maximal information content.
func (m *Model) CommonAncestorWithMaxIC(t1, t2 int) int {
	if t1 == t2 {
		return t1
	}
	if m.micaMatrix != nil {
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		return int(m.micaMatrix[t1][t2-t1-1])
	}

	a1 := withSelf(m.graph.AncestorsOf(t1), t1)
	a2 := withSelf(m.graph.AncestorsOf(t2), t2)

	best, bestIC := -1, math.Inf(-1)
	i, j := 0, 0
	for i < len(a1) && j < len(a2) {
		switch {
		case a1[i] < a2[j]:
			i++
		case a1[i] > a2[j]:
			j++
		default:
			if ic := m.items.ic[a1[i]]; ic > bestIC {
				bestIC = ic
				best = a1[i]
			}
			i++
			j++
		}
	}
	if best < 0 {
		// A DAG rooted in a single term always has a common ancestor; a
		// forest may not. Fall back to t1.
		m.logger.Warn("no common ancestor found", "t1", t1, "t2", t2)
		return t1
	}
	return best
}

// withSelf inserts t into the sorted ancestor slice.
func withSelf(ancestors []int, t int) []int {
	out := make([]int, 0, len(ancestors)+1)
	inserted := false
	for _, a := range ancestors {
		if !inserted && t < a {
			out = append(out, t)
			inserted = true
		}
		out = append(out, a)
	}
	if !inserted {
		out = append(out, t)
	}
	return out
}

// Jaccard returns the jaccard index of the item sets annotated to the two
// terms.
func (m *Model) Jaccard(t1, t2 int) float64 {
	if t1 == t2 {
		return 1
	}
	common := 0
	i, j := 0, 0
	items1, items2 := m.items.termItems[t1], m.items.termItems[t2]
	for i < len(items1) && j < len(items2) {
		switch {
		case items1[i] < items2[j]:
			i++
		case items1[i] > items2[j]:
			j++
		default:
			common++
			i++
			j++
		}
	}
	union := len(items1) + len(items2) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// MostSpecificTerms reduces the given term set to the terms of which none is
// an ancestor of another; the induced graph stays the same.
func (m *Model) MostSpecificTerms(terms []int) []int {
	var specific []int
	for _, t := range terms {
		hasDescendant := false
		for _, u := range terms {
			if u != t && m.graph.IsDescendant(u, t) {
				hasDescendant = true
				break
			}
		}
		if !hasDescendant {
			specific = append(specific, t)
		}
	}
	return specific
}

// precomputeMaxICs fills the triangular maximum-IC ancestor matrix.
func (m *Model) precomputeMaxICs() {
	n := m.graph.NumVertices()
	matrix := make([][]int32, n)
	for i := range n {
		matrix[i] = make([]int32, n-i-1)
		for j := i + 1; j < n; j++ {
			matrix[i][j-i-1] = int32(m.CommonAncestorWithMaxIC(i, j))
		}
	}
	m.micaMatrix = matrix
	m.logger.Debug("max IC ancestor matrix precomputed", "terms", n)
}

// precomputeItemMaxes fills maxScoreForItem for the measure: the similarity
// of every single-term query against every item.
func (m *Model) precomputeItemMaxes(measure Measure) {
	numItems := m.items.numItems()
	numTerms := m.graph.NumVertices()
	maxes := make([][]float64, numItems)
	single := make([]int, 1)
	for item := range numItems {
		maxes[item] = make([]float64, numTerms)
		for t := range numTerms {
			single[0] = t
			maxes[item][t] = m.scoreMaxAvg(single, m.items.directTerms[item], measure)
		}
	}
	m.sim[measure].maxScoreForItem = maxes
	m.logger.Debug("item maxes precomputed", "measure", measure.String())
}

// scoreMaxAvg scores two term lists: for every query term take the best
// match in the target list, then average.
func (m *Model) scoreMaxAvg(tl1, tl2 []int, measure Measure) float64 {
	total := 0.0
	for _, t1 := range tl1 {
		best := math.Inf(-1)
		for _, t2 := range tl2 {
			if s := m.TermSim(measure, t1, t2); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(tl1))
}

// ScoreVsItem scores a term list against one item, using the precomputed
// per-item maxes when available.
func (m *Model) ScoreVsItem(tl1 []int, item int, measure Measure) float64 {
	if maxes := m.sim[measure].maxScoreForItem; maxes != nil {
		score := 0.0
		for _, t := range tl1 {
			score += maxes[item][t]
		}
		return score / float64(len(tl1))
	}
	return m.scoreMaxAvg(tl1, m.items.directTerms[item], measure)
}

// SimScore ranks every item against the observations with the given
// similarity measure. With pval set, each score is turned into an upper-tail
// p-value against the item's random-query score distribution.
func (m *Model) SimScore(ctx context.Context, obs *Observations, measure Measure, pval bool, rnd *rand.Rand) (*SimResult, error) {
	observedTerms := m.MostSpecificTerms(sparseOn(obs.States))
	if len(observedTerms) == 0 {
		return nil, fmt.Errorf("similarity scoring needs a non-empty query")
	}

	numItems := m.items.numItems()
	res := &SimResult{Scores: make([]float64, numItems)}
	if pval {
		res.PValues = make([]float64, numItems)
	}

	querySize := min(len(observedTerms), m.opts.MaxCachedQuerySize)

	for item := range numItems {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		res.Scores[item] = m.ScoreVsItem(observedTerms, item, measure)
		if pval {
			d, err := m.scoreDistribution(measure, querySize, item, rnd)
			if err != nil {
				return nil, err
			}
			res.PValues[item] = d.UpperTail(res.Scores[item])
		}
	}
	return res, nil
}

// randomizedQueries returns the cached random queries of the given size,
// sampling them on first use. Queries with ancestor/descendant pairs are
// rejected during sampling.
func (m *Model) randomizedQueries(rnd *rand.Rand, querySize int) [][]int {
	m.queries.mu.RLock()
	queries := m.queries.queries[querySize]
	m.queries.mu.RUnlock()
	if queries != nil {
		return queries
	}

	m.queries.mu.Lock()
	defer m.queries.mu.Unlock()
	if queries = m.queries.queries[querySize]; queries != nil {
		return queries
	}

	storage := make([]int, m.graph.NumVertices())
	for i := range storage {
		storage[i] = i
	}
	queries = make([][]int, m.opts.DistributionSize)
	for j := range queries {
		queries[j] = make([]int, querySize)
		m.chooseTerms(rnd, queries[j], storage)
	}
	if m.queries.queries == nil {
		m.queries.queries = make(map[int][][]int)
	}
	m.queries.queries[querySize] = queries
	return queries
}

// chooseTerms samples len(chosen) distinct terms into chosen, rejecting
// samples in which one term subsumes another.
func (m *Model) chooseTerms(rnd *rand.Rand, chosen, storage []int) {
	for {
		choose(rnd, chosen, storage)
		valid := true
	outer:
		for _, a := range chosen {
			for _, b := range chosen {
				if a != b && m.graph.IsDescendant(a, b) {
					valid = false
					break outer
				}
			}
		}
		if valid {
			return
		}
	}
}

// choose draws len(chosen) distinct values from storage, permuting storage
// so it can be reused for the next draw.
func choose(rnd *rand.Rand, chosen, storage []int) {
	for k := range chosen {
		idx := rnd.Intn(len(storage) - k)
		term := storage[idx]
		storage[idx] = storage[len(storage)-k-1]
		storage[len(storage)-k-1] = term
		chosen[k] = term
	}
}

// scoreDistribution returns the score distribution of random queries of the
// given size against the item, computing and caching it on first use.
func (m *Model) scoreDistribution(measure Measure, querySize, item int, rnd *rand.Rand) (*distribution.Approximated, error) {
	state := &m.sim[measure]
	slot := item*(m.opts.MaxCachedQuerySize+1) + querySize

	state.mu.RLock()
	if state.store != nil {
		if d := state.store.At(slot); d != nil {
			state.mu.RUnlock()
			return d, nil
		}
	}
	state.mu.RUnlock()

	v, err, _ := state.group.Do(fmt.Sprintf("%d", slot), func() (any, error) {
		queries := m.randomizedQueries(rnd, querySize)
		scores := make([]float64, len(queries))
		for j, q := range queries {
			scores[j] = m.ScoreVsItem(q, item, measure)
		}
		d := distribution.NewApproximated(scores, m.opts.DistributionBins)

		state.mu.Lock()
		if state.store == nil {
			state.store = distribution.NewStore(
				m.items.numItems()*(m.opts.MaxCachedQuerySize+1), m.Fingerprint())
		}
		if existing := state.store.At(slot); existing != nil {
			d = existing
		} else {
			state.store.Set(slot, d)
		}
		state.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*distribution.Approximated), nil
}

// PrecomputeDistributions computes the score distributions of every item for
// all cacheable query sizes, trying the persisted store first and writing it
// back afterwards. Only meaningful when Options.DistributionDir is set or
// the caller plans many p-value queries.
func (m *Model) PrecomputeDistributions(ctx context.Context, measure Measure, seed int64) error {
	state := &m.sim[measure]

	path := ""
	if m.opts.DistributionDir != "" {
		path = filepath.Join(m.opts.DistributionDir, fmt.Sprintf(
			"scoreDistributions-%s-%d-%t-%d.gz",
			measure, m.items.numItems(), m.opts.ConsiderFrequenciesOnly, m.opts.DistributionSize))
		store, err := distribution.Load(path, m.Fingerprint())
		if err != nil {
			return err
		}
		if store != nil {
			state.mu.Lock()
			state.store = store
			state.mu.Unlock()
			return nil
		}
	}

	// The query sets are shared; sample them up front with the base seed.
	baseRnd := rand.New(rand.NewSource(seed))
	for qs := 1; qs <= m.opts.MaxCachedQuerySize; qs++ {
		m.randomizedQueries(baseRnd, qs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for item := range m.items.numItems() {
		g.Go(func() error {
			rnd := rand.New(rand.NewSource(seed + int64(item)))
			for qs := 1; qs <= m.opts.MaxCachedQuerySize; qs++ {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("%w: %v", ErrCancelled, err)
				}
				if _, err := m.scoreDistribution(measure, qs, item, rnd); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.logger.Info("score distributions precomputed", "measure", measure.String())

	if path != "" {
		state.mu.RLock()
		store := state.store
		state.mu.RUnlock()
		if store != nil {
			return store.Save(path)
		}
	}
	return nil
}

// Fingerprint identifies the model data a persisted artefact belongs to: it
// hashes the item names, the term identifiers and names, the distribution
// size, and the maximum cached query size.
func (m *Model) Fingerprint() uint64 {
	h := fnv.New64a()
	for _, name := range m.items.names {
		_, _ = h.Write([]byte(name))
	}
	for i := range m.graph.NumVertices() {
		t := m.graph.TermAt(i)
		_, _ = h.Write([]byte(t.ID))
		_, _ = h.Write([]byte(t.Name))
	}
	_, _ = fmt.Fprintf(h, "%d|%d", m.opts.DistributionSize, m.opts.MaxCachedQuerySize)
	return h.Sum64()
}
