package waypoint

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/rover_nav/internal/geo"
)

func wp(lat, lng float64) geo.Coordinate {
	return geo.Coordinate{Lat: lat, Lng: lng}
}

func TestQueue_InsertOrder(t *testing.T) {
	q, err := NewQueue(wp(1, 1), wp(2, 2))
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}

	tests := []struct {
		name  string
		index int
		point geo.Coordinate
		want  []geo.Coordinate
	}{
		{"front", 0, wp(0, 0), []geo.Coordinate{wp(0, 0), wp(1, 1), wp(2, 2)}},
		{"middle", 2, wp(1.5, 1.5), []geo.Coordinate{wp(0, 0), wp(1, 1), wp(1.5, 1.5), wp(2, 2)}},
		{"negative appends", -1, wp(3, 3), []geo.Coordinate{wp(0, 0), wp(1, 1), wp(1.5, 1.5), wp(2, 2), wp(3, 3)}},
		{"past end appends", 99, wp(4, 4), []geo.Coordinate{wp(0, 0), wp(1, 1), wp(1.5, 1.5), wp(2, 2), wp(3, 3), wp(4, 4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := q.Insert(tt.point, tt.index); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got := q.Snapshot()
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestQueue_InsertRejectsNonFinite(t *testing.T) {
	q := &Queue{}
	bad := []geo.Coordinate{
		wp(math.NaN(), 0),
		wp(0, math.Inf(1)),
	}
	for _, c := range bad {
		err := q.Append(c)
		if !errors.Is(err, geo.ErrInvalidCoordinate) {
			t.Errorf("Append(%v) = %v, want ErrInvalidCoordinate", c, err)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after rejected inserts, want 0", q.Len())
	}
}

func TestQueue_PopAfterInsertSameIndex(t *testing.T) {
	for index := 0; index <= 3; index++ {
		q, _ := NewQueue(wp(1, 1), wp(2, 2), wp(3, 3))
		point := wp(42.5, -71.25)
		if err := q.Insert(point, index); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, ok := q.Pop(index)
		if !ok || got != point {
			t.Errorf("Pop(%d) = %v, %v; want %v, true", index, got, ok, point)
		}
		if q.Len() != 3 {
			t.Errorf("Len = %d, want 3", q.Len())
		}
	}
}

func TestQueue_PopOutOfRange(t *testing.T) {
	q := &Queue{}
	if _, ok := q.PopFront(); ok {
		t.Error("PopFront on empty queue returned ok")
	}

	q, _ = NewQueue(wp(1, 1))
	for _, index := range []int{-1, 1, 5} {
		if _, ok := q.Pop(index); ok {
			t.Errorf("Pop(%d) returned ok", index)
		}
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d after out-of-range pops, want 1", q.Len())
	}
}

func TestQueue_LenAfterInsertsAndPops(t *testing.T) {
	q := &Queue{}
	const n, m = 10, 4
	for i := 0; i < n; i++ {
		if err := q.Append(wp(float64(i), float64(i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	for i := 0; i < m; i++ {
		got, ok := q.PopFront()
		if !ok {
			t.Fatalf("PopFront %d failed", i)
		}
		if got != wp(float64(i), float64(i)) {
			t.Errorf("PopFront %d = %v, want FIFO order", i, got)
		}
	}
	if q.Len() != n-m {
		t.Errorf("Len = %d, want %d", q.Len(), n-m)
	}
}

func TestQueue_PeekAndClear(t *testing.T) {
	q, _ := NewQueue(wp(1, 2), wp(3, 4))

	got, ok := q.Peek(1)
	if !ok || got != wp(3, 4) {
		t.Errorf("Peek(1) = %v, %v", got, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Peek removed an item, Len = %d", q.Len())
	}
	if _, ok := q.Peek(2); ok {
		t.Error("Peek(2) returned ok on a 2-item queue")
	}

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d", q.Len())
	}
	if _, ok := q.Peek(0); ok {
		t.Error("Peek on cleared queue returned ok")
	}
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q, _ := NewQueue(wp(1, 1))
	snap := q.Snapshot()
	snap[0] = wp(9, 9)
	if got, _ := q.Peek(0); got != wp(1, 1) {
		t.Errorf("Snapshot aliased queue storage, Peek = %v", got)
	}
}

func TestNewQueue_SkipsInvalid(t *testing.T) {
	q, err := NewQueue(wp(1, 1), wp(math.NaN(), 0), wp(2, 2))
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("NewQueue error = %v, want ErrInvalidCoordinate", err)
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
}
