package calc

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"stocks2ml/frame"
)

// Params are the study-period and windowing dimensions. Defaults reproduce
// the reference experiment: roughly five years of daily data per period, of
// which the final fifth is the trading (test) segment, and 240-day input
// windows.
type Params struct {
	LenPeriod int `validate:"gt=0"`
	LenTest   int `validate:"gt=0,ltefield=LenPeriod"`
	LenTrain  int `validate:"gt=0,ltfield=LenPeriod"`
	NSteps    int `validate:"gt=0,ltfield=LenTrain"`
}

func DefaultParams() Params {
	return Params{
		LenPeriod: 1308,
		LenTest:   327,
		LenTrain:  981,
		NSteps:    240,
	}
}

var validate = validator.New()

func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid dataset params %+v: %w", p, err)
	}
	return nil
}

// Dataset holds the flattened sequence tensors for one study period.
// X tensors have shape (numSequences, nSteps, channels); Y holds one scalar
// class label per sequence.
type Dataset struct {
	XTrain [][][]float64
	YTrain []float64
	XTest  [][][]float64
	YTest  []float64
}

// FlatDataset is the non-sequential variant: each instance is a fixed-size
// feature vector instead of an ordered window.
type FlatDataset struct {
	XTrain [][]float64
	YTrain []float64
	XTest  [][]float64
	YTest  []float64
}

// DatasetLSTM assembles the model-ready tensors for one study period:
// select the period, split it into a lenTrain-row training prefix and a
// test suffix, standardize the two segments with independently fit scalers,
// window every company and stack the sequences company-major, then add the
// trailing singleton channel dimension.
//
// Scaling the test suffix with its own statistics (rather than the training
// fit) reproduces the reference experiment exactly; see DESIGN.md before
// changing it.
func DatasetLSTM(returns, binary *frame.Frame, p Params, period int) (*Dataset, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	periodsRet, periodsBin, err := SplitPeriods(returns, binary, p.LenPeriod, p.LenTest)
	if err != nil {
		return nil, err
	}
	if period < 0 || period >= len(periodsRet) {
		return nil, fmt.Errorf("study period %d out of range: have %d periods", period, len(periodsRet))
	}

	input := periodsRet[period]
	target := periodsBin[period]

	trainIn, err := input.Slice(0, p.LenTrain)
	if err != nil {
		return nil, err
	}
	testIn, err := input.Slice(p.LenTrain, input.NumRows())
	if err != nil {
		return nil, err
	}
	trainTgt, err := target.Slice(0, p.LenTrain)
	if err != nil {
		return nil, err
	}
	testTgt, err := target.Slice(p.LenTrain, target.NumRows())
	if err != nil {
		return nil, err
	}

	var trainScaler, testScaler Scaler
	trainIn = trainScaler.FitTransform(trainIn)
	testIn = testScaler.FitTransform(testIn)

	xTrain, yTrain, err := stackSequences(trainIn, trainTgt, p.NSteps)
	if err != nil {
		return nil, err
	}
	xTest, yTest, err := stackSequences(testIn, testTgt, p.NSteps)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		XTrain: addChannelDim(xTrain),
		YTrain: yTrain,
		XTest:  addChannelDim(xTest),
		YTest:  yTest,
	}, nil
}

// stackSequences windows every company of the aligned (input, target) pair
// and concatenates the per-company sequences one after the other. The
// company-major order is part of the tensor contract: consumers rely on
// sequence i belonging to company i / sequencesPerCompany.
func stackSequences(input, target *frame.Frame, nSteps int) ([][]float64, []float64, error) {
	if err := input.ColumnsMatch(target); err != nil {
		return nil, nil, fmt.Errorf("input and target tables are not aligned: %w", err)
	}

	var xAll [][]float64
	var yAll []float64
	for c := range input.Columns {
		x, y, err := Sequences(input.Col(c), target.Col(c), nSteps)
		if err != nil {
			return nil, nil, err
		}
		xAll = append(xAll, x...)
		yAll = append(yAll, y...)
	}
	return xAll, yAll, nil
}

// addChannelDim reshapes (n, steps) into (n, steps, 1).
func addChannelDim(x [][]float64) [][][]float64 {
	out := make([][][]float64, len(x))
	for i, seq := range x {
		steps := make([][]float64, len(seq))
		for j, v := range seq {
			steps[j] = []float64{v}
		}
		out[i] = steps
	}
	return out
}

// MultiChannels is the number of decomposition levels produced by the DWT
// preprocessing; the multi-resolution tensors are built from exactly this
// many parallel return tables.
const MultiChannels = 4

// MultiDatasetLSTM builds the 4-channel variant from parallel
// multi-resolution return tables sharing one binary-label table. Each table
// goes through DatasetLSTM independently with identical params and period;
// the per-channel tensors are then stacked along the last axis. Any
// disagreement in the resulting shapes is fatal, there is no partial
// result.
func MultiDatasetLSTM(multis []*frame.Frame, binary *frame.Frame, p Params, period int) (*Dataset, error) {
	if len(multis) != MultiChannels {
		return nil, fmt.Errorf("multi-resolution input needs exactly %d return tables, got %d", MultiChannels, len(multis))
	}

	sets := make([]*Dataset, MultiChannels)
	for i, m := range multis {
		ds, err := DatasetLSTM(m, binary, p, period)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i+1, err)
		}
		sets[i] = ds
	}

	xTrain, err := stackChannels(sets, func(d *Dataset) [][][]float64 { return d.XTrain })
	if err != nil {
		return nil, fmt.Errorf("train tensors: %w", err)
	}
	xTest, err := stackChannels(sets, func(d *Dataset) [][][]float64 { return d.XTest })
	if err != nil {
		return nil, fmt.Errorf("test tensors: %w", err)
	}

	return &Dataset{
		XTrain: xTrain,
		YTrain: sets[0].YTrain,
		XTest:  xTest,
		YTest:  sets[0].YTest,
	}, nil
}

func stackChannels(sets []*Dataset, pick func(*Dataset) [][][]float64) ([][][]float64, error) {
	base := pick(sets[0])
	for i, ds := range sets[1:] {
		x := pick(ds)
		if len(x) != len(base) || (len(base) > 0 && len(x[0]) != len(base[0])) {
			return nil, fmt.Errorf("channel %d shape disagrees with channel 1", i+2)
		}
	}

	out := make([][][]float64, len(base))
	for i := range base {
		steps := make([][]float64, len(base[i]))
		for j := range base[i] {
			ch := make([]float64, len(sets))
			for k, ds := range sets {
				ch[k] = pick(ds)[i][j][0]
			}
			steps[j] = ch
		}
		out[i] = steps
	}
	return out, nil
}

// dnnSteps is the only window length the DNN feature policy is defined for.
const dnnSteps = 240

// DatasetDNN derives the dense-model variant from the LSTM tensors by
// keeping every 20th step from the window start plus the contiguous recent
// tail (steps 221..239): 31 features total. The subset encodes the domain
// assumption that recent days matter densely while distant ones are sampled
// sparsely; it is defined for 240-step windows only, not derived from
// NSteps generically.
func DatasetDNN(returns, binary *frame.Frame, p Params, period int) (*FlatDataset, error) {
	if p.NSteps != dnnSteps {
		return nil, fmt.Errorf("DNN feature selection is defined for %d-step windows, got %d", dnnSteps, p.NSteps)
	}

	ds, err := DatasetLSTM(returns, binary, p, period)
	if err != nil {
		return nil, err
	}

	idx := dnnFeatureIndices()
	return &FlatDataset{
		XTrain: subsampleSteps(ds.XTrain, idx),
		YTrain: ds.YTrain,
		XTest:  subsampleSteps(ds.XTest, idx),
		YTest:  ds.YTest,
	}, nil
}

// dnnFeatureIndices returns {0, 20, ..., 220} followed by {221, ..., 239}.
func dnnFeatureIndices() []int {
	var idx []int
	for i := 0; i < dnnSteps; i += 20 {
		idx = append(idx, i)
	}
	for i := 221; i < dnnSteps; i++ {
		idx = append(idx, i)
	}
	return idx
}

func subsampleSteps(x [][][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(x))
	for i, seq := range x {
		feats := make([]float64, len(idx))
		for j, k := range idx {
			feats[j] = seq[k][0]
		}
		out[i] = feats
	}
	return out
}
