package inference

import (
	"log/slog"
	"runtime"

	"github.com/happyhackingspace/boqa/annotations"
	"github.com/happyhackingspace/boqa/ontology"
)

// Variant selects which explanations the network admits and whether
// annotation frequencies weight the hidden layer.
type Variant uint

const (
	// InheritFalsePositives lets false positives be explained via
	// inheritance from an observed child.
	InheritFalsePositives Variant = 1 << iota
	// InheritFalseNegatives lets false negatives be explained via
	// inheritance from an unobserved parent.
	InheritFalseNegatives
	// RespectFrequencies marginalises over the hidden configurations
	// implied by per-annotation frequencies.
	RespectFrequencies
)

// DefaultVariant matches the published model.
const DefaultVariant = InheritFalseNegatives | RespectFrequencies

// Options configures a Model. The zero value selects the defaults.
type Options struct {
	// Variant selects the model variant; DefaultVariant if zero.
	Variant Variant

	// MaxFrequencyTerms bounds the number of lowest-frequency annotations
	// whose on/off combinations are enumerated per item (k in the paper).
	// Defaults to 10.
	MaxFrequencyTerms int

	// ConsiderFrequenciesOnly drops items without any explicit frequency
	// annotation below one during setup.
	ConsiderFrequenciesOnly bool

	// AlphaGrid and BetaGrid are the false positive and false negative rate
	// grids the marginal integrates over. When nil, AlphaGrid defaults to
	// {1e-10, 1/T, 2/T, ..., 6/T} for T ontology terms, leaving out entries
	// k/T that are not below one, and BetaGrid to
	// {0.05, 0.1, ..., 0.9, 0.95}.
	AlphaGrid []float64
	BetaGrid  []float64

	// Workers bounds the per-item scoring parallelism. Defaults to the
	// number of CPUs.
	Workers int

	// PrecomputeMaxICs precomputes the pairwise maximum-IC common ancestor
	// matrix used by the similarity measures. Costly for large ontologies.
	PrecomputeMaxICs bool

	// PrecomputeItemMaxes precomputes, per measure, the best similarity of
	// every single term against every item.
	PrecomputeItemMaxes bool

	// DistributionSize is the number of random queries sampled per score
	// distribution. Defaults to 250000.
	DistributionSize int

	// DistributionBins is the bin count of the approximated distributions.
	// Defaults to 10000.
	DistributionBins int

	// MaxCachedQuerySize bounds the query sizes for which distributions are
	// cached. Defaults to 20.
	MaxCachedQuerySize int

	// DistributionDir, when set, is where precomputed score distributions
	// are persisted and looked up.
	DistributionDir string
}

func (o Options) withDefaults() Options {
	if o.Variant == 0 {
		o.Variant = DefaultVariant
	}
	if o.MaxFrequencyTerms == 0 {
		o.MaxFrequencyTerms = 10
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.DistributionSize == 0 {
		o.DistributionSize = 250000
	}
	if o.DistributionBins == 0 {
		o.DistributionBins = 10000
	}
	if o.MaxCachedQuerySize == 0 {
		o.MaxCachedQuerySize = 20
	}
	return o
}

// Model is the inference engine over one ontology and one annotation set.
// It is immutable after New and safe for concurrent queries.
type Model struct {
	opts  Options
	graph *ontology.SlimGraph
	items *itemData
	diff  *diffVectors

	alphaGrid []float64
	betaGrid  []float64

	micaMatrix [][]int32
	sim        [numMeasures]measureState
	queries    queryCache

	logger *slog.Logger
}

// New builds the model: the item index arrays, the diff vectors, and the
// information content per term.
func New(graph *ontology.SlimGraph, assoc *annotations.Container, opts Options) (*Model, error) {
	opts = opts.withDefaults()

	items, err := buildItemData(graph, assoc, opts.ConsiderFrequenciesOnly)
	if err != nil {
		return nil, err
	}

	m := &Model{
		opts:   opts,
		graph:  graph,
		items:  items,
		logger: slog.Default().With("component", "inference"),
	}
	m.diff = buildDiffVectors(m)

	m.alphaGrid = opts.AlphaGrid
	if m.alphaGrid == nil {
		t := float64(graph.NumVertices())
		m.alphaGrid = []float64{1e-10}
		for k := 1.0; k <= 6; k++ {
			if k/t < 1 {
				m.alphaGrid = append(m.alphaGrid, k/t)
			}
		}
	}
	m.betaGrid = opts.BetaGrid
	if m.betaGrid == nil {
		m.betaGrid = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95}
	}

	if opts.PrecomputeMaxICs {
		m.precomputeMaxICs()
	}
	if opts.PrecomputeItemMaxes {
		for measure := range Measure(numMeasures) {
			m.precomputeItemMaxes(measure)
		}
	}

	m.logger.Info("model ready",
		"terms", graph.NumVertices(),
		"items", items.numItems(),
		"variant", opts.Variant,
		"maxFrequencyTerms", opts.MaxFrequencyTerms)
	return m, nil
}

// Graph returns the underlying slim ontology view.
func (m *Model) Graph() *ontology.SlimGraph { return m.graph }

// NumItems returns the number of items in the catalogue.
func (m *Model) NumItems() int { return m.items.numItems() }

// ItemName returns the name of the item with the given index.
func (m *Model) ItemName(item int) string { return m.items.names[item] }

// ItemIndex returns the index of the named item, or -1.
func (m *Model) ItemIndex(name string) int {
	if i, ok := m.items.index[name]; ok {
		return i
	}
	return -1
}

// DirectTerms returns the directly annotated term indices of an item,
// sorted. The slice is owned by the model.
func (m *Model) DirectTerms(item int) []int { return m.items.directTerms[item] }

// InducedTerms returns the ancestor-closed term set of an item, sorted.
func (m *Model) InducedTerms(item int) []int { return m.items.terms[item] }

// Frequencies returns the annotation probabilities parallel to
// DirectTerms(item).
func (m *Model) Frequencies(item int) []float64 { return m.items.frequencies[item] }

// HasFrequencies reports whether the item has an explicit frequency
// annotation below one.
func (m *Model) HasFrequencies(item int) bool { return m.items.hasFrequencies[item] }

// IC returns the information content of a term:
// -log(items annotated to the term / number of items).
func (m *Model) IC(t int) float64 { return m.items.ic[t] }

// NumItemsAnnotated returns how many items carry term t in their induced
// set.
func (m *Model) NumItemsAnnotated(t int) int { return m.items.annotatedCount[t] }

// AlphaGrid returns the false positive rate grid.
func (m *Model) AlphaGrid() []float64 { return m.alphaGrid }

// BetaGrid returns the false negative rate grid.
func (m *Model) BetaGrid() []float64 { return m.betaGrid }

// respectsFrequencies reports whether the model variant weights hidden
// configurations by annotation frequency.
func (m *Model) respectsFrequencies() bool {
	return m.opts.Variant&RespectFrequencies != 0
}
