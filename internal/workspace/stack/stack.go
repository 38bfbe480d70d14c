// Package stack maintains the ordered navigation history of views and their
// per-view state.
//
// One stack deliberately serves two purposes at once: cross-view page history
// AND fine-grained undo within a view. Every distinct state change inside a
// view becomes its own history entry (MutateCurrent), so "back" first undoes
// the most recent state change and only then undoes navigation between views.
// This is an unusual design; implementers and testers should not "fix" it by
// splitting the two concerns.
package stack

import (
	"sync"

	"atelier/internal/workspace/models"
	dErrors "atelier/pkg/domain-errors"
)

// Stack is never empty: it is seeded with the overview entry and the pointer
// always satisfies 0 <= pointer < len(entries). All mutation goes through its
// methods; callers never hold references into the entry slice.
type Stack struct {
	mu      sync.RWMutex
	entries []models.ViewEntry
	pointer int
}

// New returns a stack seeded with the default overview entry.
func New() *Stack {
	seed, err := models.InitialStateFor(models.ViewOverview)
	if err != nil {
		// The overview variant is part of the closed union; this cannot fail.
		panic(err)
	}
	return &Stack{entries: []models.ViewEntry{models.NewEntry(seed)}}
}

// Current returns the entry at the pointer.
func (s *Stack) Current() models.ViewEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[s.pointer]
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Pointer returns the current position.
func (s *Stack) Pointer() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pointer
}

// Entries returns a copy of the history for inspection.
func (s *Stack) Entries() []models.ViewEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ViewEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Push navigates to a new view. If the target view equals the current
// entry's view this is a no-op: navigating to the view you are already on
// must not reset that view's state. Otherwise entries after the pointer are
// discarded (standard back-then-navigate semantics), the new entry is
// appended, and the pointer advances to it.
func (s *Stack) Push(state models.ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[s.pointer].View == state.View() {
		return
	}
	s.truncateAndAppend(models.NewEntry(state))
}

// NavigateTo pushes the initial state for a view; the common entry point for
// route-driven navigation.
func (s *Stack) NavigateTo(v models.ViewID) error {
	initial, err := models.InitialStateFor(v)
	if err != nil {
		return err
	}
	s.Push(initial)
	return nil
}

// MutateCurrent records a state change within the current view as its own
// history entry (fine-grained undo). A deep-equal state is a no-op. The view
// must not change; cross-view transitions go through Push.
func (s *Stack) MutateCurrent(newState models.ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.entries[s.pointer]
	if newState.View() != current.View {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"state mutation must keep the current view")
	}
	if models.StateEqual(current.State, newState) {
		return nil
	}
	s.truncateAndAppend(models.NewEntry(newState))
	return nil
}

// Back moves the pointer one entry towards the oldest; no-op at the start.
func (s *Stack) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer > 0 {
		s.pointer--
	}
}

// Forward moves the pointer one entry towards the newest; no-op at the end.
func (s *Stack) Forward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer < len(s.entries)-1 {
		s.pointer++
	}
}

// ResetTo returns the current view to its idle state as an undoable history
// entry. Overview has no reset state; if the view is already in its idle
// state nothing is recorded.
func (s *Stack) ResetTo(v models.ViewID) error {
	if v == models.ViewOverview {
		return nil
	}
	initial, err := models.InitialStateFor(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.entries[s.pointer]
	if current.View != v {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"reset target does not match the current view")
	}
	if models.StateEqual(current.State, initial) {
		return nil
	}
	s.truncateAndAppend(models.NewEntry(initial))
	return nil
}

// truncateAndAppend discards entries after the pointer, appends e, and
// advances the pointer. Callers hold s.mu.
func (s *Stack) truncateAndAppend(e models.ViewEntry) {
	s.entries = append(s.entries[:s.pointer+1], e)
	s.pointer = len(s.entries) - 1
}
