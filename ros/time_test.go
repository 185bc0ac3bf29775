package ros

import (
	"testing"
	gotime "time"
)

func TestNewTime(t *testing.T) {
	tm := NewTime(1, 2)
	if tm.Sec != 1 || tm.NSec != 2 {
		t.Error(tm)
	}
	tm = NewTime(1, 2500000000)
	if tm.Sec != 3 || tm.NSec != 500000000 {
		t.Error(tm)
	}
}

func TestTimeFromGoTime(t *testing.T) {
	g := gotime.Unix(1687780000, 123456789)
	tm := FromTime(g)
	if tm.Sec != 1687780000 || tm.NSec != 123456789 {
		t.Error(tm)
	}
	if !tm.GoTime().Equal(g) {
		t.Error(tm.GoTime())
	}
}

func TestTimeArithmetic(t *testing.T) {
	t1 := NewTime(10, 800000000)
	d := NewDuration(0, 500000000)
	t2 := t1.Add(d)
	if t2.Sec != 11 || t2.NSec != 300000000 {
		t.Error(t2)
	}
	diff := t2.Diff(t1)
	if diff.Cmp(d) != 0 {
		t.Error(diff)
	}
	if t1.Cmp(t2) != -1 || t2.Cmp(t1) != 1 || t1.Cmp(t1) != 0 {
		t.Fail()
	}
}

func TestDurationArithmetic(t *testing.T) {
	var d1, d2 Duration
	d1.FromNSec(500000000)
	d2.FromNSec(800000000)

	d3 := d1.Add(d2)
	if d3.Sec != 1 || d3.NSec != 300000000 {
		t.Error(d3)
	}
	d4 := d3.Sub(d1)
	if d4.Cmp(d2) != 0 {
		t.Error(d4)
	}
	if d3.GoDuration() != 1300*gotime.Millisecond {
		t.Error(d3.GoDuration())
	}
	if d1.ToSec() != 0.5 {
		t.Error(d1.ToSec())
	}
}

func TestNegativeTimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewDuration(0, 1).Sub(NewDuration(1, 0))
}
