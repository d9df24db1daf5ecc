package arena

// Pool is a typed arena: it stores values of T in growable chunks and
// hands back a stable index instead of a pointer, per spec §9's
// "arena+index pattern" recommendation for the AST in an
// ownership-disciplined target language. Indices remain valid for the
// Pool's lifetime and make serialization trivial (an index is just an
// int), unlike pointers into the arena's backing storage.
type Pool[T any] struct {
	chunks [][]T
}

const chunkLen = 1024

// NewPool returns an empty typed pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{chunks: [][]T{make([]T, 0, chunkLen)}}
}

// Add stores v and returns its stable index.
func (p *Pool[T]) Add(v T) int {
	last := len(p.chunks) - 1
	if len(p.chunks[last]) == cap(p.chunks[last]) {
		p.chunks = append(p.chunks, make([]T, 0, chunkLen))
		last++
	}
	p.chunks[last] = append(p.chunks[last], v)
	idx := 0
	for i := 0; i < last; i++ {
		idx += cap(p.chunks[i])
	}
	return idx + len(p.chunks[last]) - 1
}

// At returns a pointer to the value at idx, addressable for in-place
// mutation (the type checker fills in result_type/is_const/lvalue on
// existing nodes).
func (p *Pool[T]) At(idx int) *T {
	for _, chunk := range p.chunks {
		if idx < cap(chunk) {
			return &chunk[:cap(chunk)][idx]
		}
		idx -= cap(chunk)
	}
	panic("arena: index out of range")
}

// Len returns the number of values stored.
func (p *Pool[T]) Len() int {
	n := 0
	for i, chunk := range p.chunks {
		if i == len(p.chunks)-1 {
			n += len(chunk)
		} else {
			n += cap(chunk)
		}
	}
	return n
}
