package main

import (
	"testing"

	"github.com/pdrpinto/teleport-astar/geom"
)

func TestParsePosition(t *testing.T) {
	got, err := parsePosition(" 1, -2.5,3 ")
	if err != nil {
		t.Fatal(err)
	}
	if got != (geom.Position{X: 1, Y: -2.5, Z: 3}) {
		t.Fatalf("got %v", got)
	}
	for _, bad := range []string{"", "1,2", "1,2,x", "1,2,3,4"} {
		if _, err := parsePosition(bad); err == nil {
			t.Errorf("parsePosition(%q) accepted", bad)
		}
	}
}
