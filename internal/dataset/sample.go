package dataset

import _ "embed"

// SampleName is the filename the bundled dataset is decoded and downloaded as.
const SampleName = "tips.csv"

//go:embed tips.csv
var sampleCSV []byte

// SampleBytes returns a copy of the bundled dataset as CSV.
func SampleBytes() []byte {
	out := make([]byte, len(sampleCSV))
	copy(out, sampleCSV)
	return out
}
