package dub

import (
	"reflect"
	"testing"
)

func TestSelectorBars(t *testing.T) {
	tests := []struct {
		input string
		bars  int
		want  []int
	}{
		{"'*", 4, []int{0, 1, 2, 3}},
		{"'3", 8, []int{2}},
		{"'1:4", 8, []int{0, 1, 2, 3}},
		{"'1,3,5", 8, []int{0, 2, 4}},
		{"'1:2,7", 8, []int{0, 1, 6}},
		{"'4,1", 4, []int{0, 3}},
		{"'2:3,3", 4, []int{1, 2}},
	}
	for _, test := range tests {
		cmd, err := Parse("x " + test.input)
		if err != nil {
			t.Fatalf("%s: %v", test.input, err)
		}
		got, err := cmd.Args[0].(Selector).Bars(test.bars)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.input, err)
			continue
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("%s: want %v, got %v", test.input, test.want, got)
		}
	}
}

func TestSelectorOutOfRange(t *testing.T) {
	cmd, err := Parse("x '2:9")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cmd.Args[0].(Selector).Bars(8); err == nil {
		t.Errorf("expected error selecting bar 9 of 8")
	}
}
