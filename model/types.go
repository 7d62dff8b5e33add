package model

// SequenceRow is one model-ready training instance in the exported dataset:
// a rolling window of scaled returns plus the classification target observed
// at the end of the window. Multi-channel windows are flattened step-major,
// so Features has len NSteps*Channels.
type SequenceRow struct {
	Period   int32     `parquet:"period"`
	Split    string    `parquet:"split,dict"` // "train" or "test"
	Symbol   string    `parquet:"symbol,dict"`
	Seq      int32     `parquet:"seq"` // window offset within the split
	NSteps   int32     `parquet:"n_steps"`
	Channels int32     `parquet:"channels"`
	Features []float64 `parquet:"features,list"`
	Target   float64   `parquet:"target"`
}
