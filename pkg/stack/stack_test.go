package stack_test

import (
	"liveedit/pkg/stack"
	"testing"
)

func TestStackOrder(t *testing.T) {
	s := stack.NewStack("$", "Program")
	s.Push("Decl")

	if got := s.Size(); got != 3 {
		t.Fatalf("expected size 3, got %d", got)
	}

	for _, want := range []string{"Decl", "Program", "$"} {
		got, ok := s.Pop()
		if !ok || got != want {
			t.Errorf("expected %q, got %q (ok=%v)", want, got, ok)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Errorf("pop on empty stack should report false")
	}
}

func TestBoundedStack(t *testing.T) {
	s := stack.NewBounded[int](2)

	if !s.Push(1) || !s.Push(2) {
		t.Fatalf("pushes within bound should succeed")
	}
	if s.Push(3) {
		t.Errorf("push past bound should fail")
	}

	if top, _ := s.Peek(); top != 2 {
		t.Errorf("expected top 2, got %d", top)
	}
	if below, _ := s.At(1); below != 1 {
		t.Errorf("expected element below top to be 1, got %d", below)
	}

	s.Clear()
	if s.Size() != 0 {
		t.Errorf("expected empty stack after Clear, got %d", s.Size())
	}
	if s.Cap() != 2 {
		t.Errorf("expected cap 2, got %d", s.Cap())
	}
}
