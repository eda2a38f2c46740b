// Package domain holds the pure data model shared by the estimation and
// evaluation modules. It has no infrastructure dependencies.
package domain

import "sort"

// AssetSeries is one asset's ordered closing-price history. Observations are
// ordinal (index-aligned across assets); every series in a run must share the
// same observation count.
type AssetSeries struct {
	Symbol string
	Closes []float64
}

// SortedSymbols returns the symbols of the given series in ascending order.
// Matrix rows and expected-return entries follow this ordering everywhere.
func SortedSymbols(series []AssetSeries) []string {
	symbols := make([]string, len(series))
	for i, s := range series {
		symbols[i] = s.Symbol
	}
	sort.Strings(symbols)
	return symbols
}

// SortBySymbol sorts the series slice in place by symbol, the canonical
// ordering for all derived matrices and vectors.
func SortBySymbol(series []AssetSeries) {
	sort.Slice(series, func(i, j int) bool {
		return series[i].Symbol < series[j].Symbol
	})
}

// CopyWeights returns a copy of a weight mapping.
func CopyWeights(w map[string]float64) map[string]float64 {
	if w == nil {
		return nil
	}
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// CopyMatrix returns a deep copy of a 2D matrix.
func CopyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// CopyVector returns a copy of a 1D vector.
func CopyVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
