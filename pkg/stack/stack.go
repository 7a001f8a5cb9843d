package stack

type Stack[T any] struct {
	a   []T
	l   int
	max int // 0 means unbounded
}

// NewStack creates a new stack instance holding the given elements, bottom first
func NewStack[T any](elm ...T) *Stack[T] {
	stack := Stack[T]{
		a: make([]T, 0, len(elm)),
		l: 0,
	}

	for _, e := range elm {
		stack.l++
		stack.a = append(stack.a, e)
	}

	return &stack
}

// NewBounded creates an empty stack that refuses to grow past max elements
func NewBounded[T any](max int) *Stack[T] {
	return &Stack[T]{
		a:   make([]T, 0, max),
		max: max,
	}
}

// Push adds an element to the top of the stack.
// It reports false when a bounded stack is already full.
func (s *Stack[T]) Push(elm T) bool {
	if s.max > 0 && s.l >= s.max {
		return false
	}

	s.l++
	s.a = append(s.a, elm)

	return true
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.l < 1 {
		return zero, false
	}

	s.l--
	elm := s.a[s.l]
	s.a[s.l] = zero
	s.a = s.a[:s.l]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if s.l < 1 {
		return zero, false
	}

	return s.a[s.l-1], true
}

// At returns the element n positions below the top (0 is the top)
func (s *Stack[T]) At(n int) (T, bool) {
	var zero T
	if n < 0 || n >= s.l {
		return zero, false
	}

	return s.a[s.l-1-n], true
}

// Clear drops every element
func (s *Stack[T]) Clear() {
	clear(s.a)
	s.a = s.a[:0]
	s.l = 0
}

// Get the size of the stack
func (s *Stack[T]) Size() int {
	return s.l
}

// Cap returns the bound of the stack, 0 when unbounded
func (s *Stack[T]) Cap() int {
	return s.max
}

// Array returns the underlying array of the stack, bottom first
func (s *Stack[T]) Array() []T {
	return s.a
}
