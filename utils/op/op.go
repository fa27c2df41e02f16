// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/gold on GitHub
package op

import (
	G "gorgonia.org/gorgonia"
)

// Clip clips the value of a node to within [min, max]
func Clip(value *G.Node, min, max float64) (*G.Node, error) {
	minNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(min),
	)
	maxNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(max),
	)

	// Mask of elements below the minimum
	minMask, err := G.Lt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	minVal, err := G.HadamardProd(minNode, minMask)
	if err != nil {
		return nil, err
	}

	// Mask of elements within the bounds
	isMaskGt, err := G.Gte(value, minNode, true)
	if err != nil {
		return nil, err
	}
	isMaskLt, err := G.Lte(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	isMask, err := G.HadamardProd(isMaskGt, isMaskLt)
	if err != nil {
		return nil, err
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, err
	}

	// Mask of elements above the maximum
	maxMask, err := G.Gt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	maxVal, err := G.HadamardProd(maxNode, maxMask)
	if err != nil {
		return nil, err
	}

	return G.ReduceAdd(G.Nodes{minVal, isVal, maxVal})
}

// Min returns the elementwise minimum of two nodes. If values are
// equal the first value is returned.
func Min(a *G.Node, b *G.Node) (*G.Node, error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}

	return G.Add(aVal, bVal)
}

// Max returns the elementwise maximum of two nodes. If values are
// equal the first value is returned.
func Max(a *G.Node, b *G.Node) (*G.Node, error) {
	aMask, err := G.Gte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Gt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}

	return G.Add(aVal, bVal)
}
