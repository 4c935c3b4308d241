package task

import (
	"reflect"
	"testing"
)

func TestSnapIndex_Boundaries(t *testing.T) {
	idx := NewSnapIndex([]Task{
		{ID: "a", DayIndex: 0, Start: "09:00", End: "10:00"},
		{ID: "b", DayIndex: 0, Start: "10:00", End: "11:30"},
		{ID: "c", DayIndex: 1, Start: "08:00", End: "09:00"},
	})

	got := idx.Boundaries(0)
	want := []int{540, 600, 690}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Boundaries(0) = %v, want %v", got, want)
	}

	got = idx.Boundaries(0, "b")
	want = []int{540, 600}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Boundaries(0, b) = %v, want %v", got, want)
	}

	if got := idx.Boundaries(5); len(got) != 0 {
		t.Errorf("Boundaries(5) = %v, want empty", got)
	}
}

func TestSnapIndex_Snap(t *testing.T) {
	idx := NewSnapIndex([]Task{
		{ID: "a", DayIndex: 0, Start: "09:00", End: "10:00"},
		{ID: "b", DayIndex: 0, Start: "12:10", End: "13:00"},
	})

	tests := []struct {
		name    string
		minutes int
		exclude []string
		want    int
		wantOK  bool
	}{
		{name: "exact", minutes: 540, want: 540, wantOK: true},
		{name: "within threshold", minutes: 612, want: 600, wantOK: true},
		{name: "at threshold", minutes: 615, want: 600, wantOK: true},
		{name: "past threshold", minutes: 616, wantOK: false},
		{name: "excluded task ignored", minutes: 540, exclude: []string{"a"}, wantOK: false},
		{name: "nearest wins", minutes: 722, want: 730, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Snap(0, tt.minutes, tt.exclude...)
			if ok != tt.wantOK {
				t.Fatalf("Snap(%d) ok = %v, want %v", tt.minutes, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Snap(%d) = %d, want %d", tt.minutes, got, tt.want)
			}
		})
	}
}

func TestSnapIndex_TieGoesEarlier(t *testing.T) {
	idx := NewSnapIndex([]Task{
		{ID: "a", DayIndex: 0, Start: "09:00", End: "09:20"},
	})
	got, ok := idx.Snap(0, 550)
	if !ok || got != 540 {
		t.Errorf("Snap(550) = %d, %v; want 540, true", got, ok)
	}
}
