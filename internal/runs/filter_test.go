package runs

import (
	"reflect"
	"testing"
)

func TestStatusFilterStartsAll(t *testing.T) {
	filter := NewStatusFilter()
	if !filter.All() {
		t.Fatal("new filter should be in the all state")
	}
	if params := filter.Params(); params != nil {
		t.Fatalf("Params() = %v, want nil in all state", params)
	}
}

func TestStatusFilterToggleLeavesAll(t *testing.T) {
	filter := NewStatusFilter()
	filter.Toggle(StatusFailed)
	if filter.All() {
		t.Fatal("toggling a concrete status must clear the all state")
	}
	if got := filter.Selected(); !reflect.DeepEqual(got, []Status{StatusFailed}) {
		t.Fatalf("Selected() = %v, want [FAILED]", got)
	}
}

func TestStatusFilterToggleTwiceRestoresAll(t *testing.T) {
	filter := NewStatusFilter()
	filter.Toggle(StatusFailed)
	filter.Toggle(StatusFailed)
	if !filter.All() {
		t.Fatal("deselecting the last concrete status must restore the all state")
	}
}

func TestStatusFilterLastMemberFallsBack(t *testing.T) {
	filter := NewStatusFilter()
	filter.Toggle(StatusFailed)
	filter.Toggle(StatusInRetry)
	filter.Toggle(StatusFailed)
	if filter.All() {
		t.Fatal("filter still has a concrete member, should not be all")
	}
	filter.Toggle(StatusInRetry)
	if !filter.All() {
		t.Fatal("removing the sole remaining member must yield all")
	}
}

func TestStatusFilterSelectAll(t *testing.T) {
	filter := NewStatusFilter()
	filter.Toggle(StatusCreated)
	filter.Toggle(StatusInProgress)
	filter.SelectAll()
	if !filter.All() {
		t.Fatal("SelectAll must land in the all state")
	}
	if got := filter.Selected(); got != nil {
		t.Fatalf("Selected() = %v, want nil after SelectAll", got)
	}
}

func TestStatusFilterParamsSorted(t *testing.T) {
	filter := NewStatusFilter()
	filter.Toggle(StatusInRetry)
	filter.Toggle(StatusCreated)
	want := []string{"CREATED", "IN_RETRY"}
	if got := filter.Params(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Params() = %v, want %v", got, want)
	}
}
