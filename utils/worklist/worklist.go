package worklist

type Worklist[T any] struct {
	list []T
	lifo bool
}

// Start worklist execution with provided `starting` element and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist.
func Start[T any](start T, do func(next T, add func(el T))) {
	StartV([]T{start}, do)
}

// Start worklist execution with a preloaded queue and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist.
func StartV[T any](start []T, do func(next T, add func(el T))) {
	W := Empty[T]()
	for _, e := range start {
		W.Add(e)
	}

	W.Process(do)
}

// Empty creates a FIFO worklist.
func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

// EmptyStack creates a LIFO worklist.
func EmptyStack[T any]() Worklist[T] {
	return Worklist[T]{lifo: true}
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	if w.lifo {
		last := len(w.list) - 1
		next := w.list[last]
		w.list = w.list[:last]
		return next
	}
	next := w.list[0]
	w.list = w.list[1:]
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Len() int {
	return len(w.list)
}

func (w *Worklist[T]) Process(
	do func(
		next T,
		add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

// Filter keeps only the pending elements satisfying keep.
// The relative order of the kept elements is preserved.
func (w *Worklist[T]) Filter(keep func(T) bool) (removed int) {
	kept := w.list[:0]
	for _, el := range w.list {
		if keep(el) {
			kept = append(kept, el)
		} else {
			removed++
		}
	}
	w.list = kept
	return
}

// ForEach calls do on every pending element, in insertion order.
func (w *Worklist[T]) ForEach(do func(T)) {
	for _, el := range w.list {
		do(el)
	}
}
