// Package vectorizer provides incremental TF-IDF vectorization over named features.
package vectorizer

import (
	"math"
	"sort"
)

// Vector is a sparse feature vector keyed by feature name. Absent features are zero.
type Vector map[string]float64

// Binary returns a vector with value 1 for each name.
func Binary(names []string) Vector {
	v := make(Vector, len(names))
	for _, n := range names {
		v[n] = 1
	}
	return v
}

// Merge combines vectors into a new one. Later vectors win on name collisions.
func Merge(vectors ...Vector) Vector {
	size := 0
	for _, v := range vectors {
		size += len(v)
	}
	out := make(Vector, size)
	for _, v := range vectors {
		for k, x := range v {
			out[k] = x
		}
	}
	return out
}

// L2Norm returns the L2 norm of the vector.
func (v Vector) L2Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize scales v in place to unit L2 norm. A zero vector is left unchanged.
func (v Vector) Normalize() {
	norm := v.L2Norm()
	if norm == 0 {
		return
	}
	for k := range v {
		v[k] /= norm
	}
}

// Names returns the feature names in sorted order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Nnz returns the number of non-zero entries.
func (v Vector) Nnz() int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}
