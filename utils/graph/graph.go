// Package graph exposes traversal and visualization utilities over any data
// with a graph representation. Callers only provide the edge relation.
package graph

type edgesOf[T comparable] func(node T) []T

// Graph is a lazily explored graph. Edges are computed on demand and cached.
type Graph[T comparable] struct {
	edgesOf     edgesOf[T]
	cachedEdges map[T][]T
}

func (G Graph[T]) Edges(node T) []T {
	if cached, found := G.cachedEdges[node]; found {
		return cached
	}

	es := G.edgesOf(node)
	G.cachedEdges[node] = es
	return es
}

func Of[T comparable](edgesOf edgesOf[T]) Graph[T] {
	return Graph[T]{
		edgesOf,
		make(map[T][]T),
	}
}
