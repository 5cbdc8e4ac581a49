package preset

import (
	"testing"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

func TestCatalogCycling(t *testing.T) {
	c := Default()
	if c.Len() != 2 {
		t.Fatalf("default catalog len=%d want=2", c.Len())
	}

	if got := c.Next(1); got != 0 {
		t.Fatalf("Next(1)=%d want=0", got)
	}
	if got := c.Previous(0); got != 1 {
		t.Fatalf("Previous(0)=%d want=1", got)
	}
	// Wrapping past zero must never produce a negative index.
	for i := -5; i < 5; i++ {
		got := c.Normalize(i)
		if got < 0 || got >= c.Len() {
			t.Fatalf("Normalize(%d)=%d out of range", i, got)
		}
	}
	if got := c.Normalize(-1); got != 1 {
		t.Fatalf("Normalize(-1)=%d want=1", got)
	}
}

func TestCatalogChannelRoles(t *testing.T) {
	c := Default()
	for _, p := range c.Presets {
		if p.Channels[0].Kind != ChannelAudio {
			t.Fatalf("preset %s: channel 0 must be the live audio texture", p.Name)
		}
	}
	matrix := c.Presets[0]
	if matrix.Channels[2].Wrap != glx.WrapRepeat {
		t.Fatalf("noise channel should repeat, got wrap=%d", matrix.Channels[2].Wrap)
	}
}

func TestNamesMatchOrder(t *testing.T) {
	c := Default()
	names := c.Names()
	for i, p := range c.Presets {
		if names[i] != p.Name {
			t.Fatalf("names[%d]=%q want=%q", i, names[i], p.Name)
		}
	}
}
