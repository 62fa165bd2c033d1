package debugsession

import "testing"

func TestWatchpointMatchesOverlap(t *testing.T) {
	w := Watchpoint{Address: 0x20000010, Size: 4, Access: WatchAccessAny}

	cases := []struct {
		name    string
		addr    uint32
		size    int
		isWrite bool
		want    bool
	}{
		{"exact range", 0x20000010, 4, true, true},
		{"leading byte", 0x20000010, 1, false, true},
		{"trailing byte", 0x20000013, 1, false, true},
		{"just before", 0x2000000F, 1, false, false},
		{"just after", 0x20000014, 1, false, false},
		{"spans whole window", 0x2000000E, 8, false, true},
	}
	for _, c := range cases {
		if got := w.matches(c.addr, c.size, c.isWrite); got != c.want {
			t.Errorf("%s: matches(0x%X, %d, %v) = %v, want %v", c.name, c.addr, c.size, c.isWrite, got, c.want)
		}
	}
}

func TestWatchpointMatchesAccessDirection(t *testing.T) {
	readOnly := Watchpoint{Address: 0x40000000, Size: 4, Access: WatchRead}
	if !readOnly.matches(0x40000000, 1, false) {
		t.Error("read watchpoint should fire on a read")
	}
	if readOnly.matches(0x40000000, 1, true) {
		t.Error("read watchpoint should not fire on a write")
	}

	writeOnly := Watchpoint{Address: 0x40000000, Size: 4, Access: WatchWrite}
	if writeOnly.matches(0x40000000, 1, false) {
		t.Error("write watchpoint should not fire on a read")
	}
	if !writeOnly.matches(0x40000000, 1, true) {
		t.Error("write watchpoint should fire on a write")
	}
}
