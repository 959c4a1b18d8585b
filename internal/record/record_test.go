package record

import (
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "alice", "alice"},
		{"emoji stripped", "alice🐟", "alice"},
		{"cjk kept", "摸鱼王👑", "摸鱼王"},
		{"allowed punctuation", "a.b,c，d。e、f？g！", "a.b,c，d。e、f？g！"},
		{"spaces stripped", "bob smith", "bobsmith"},
		{"only noise", "🐟🐟", ""},
		{"empty", "", ""},
		{"mixed", "[Dev]张三_2", "Dev张三2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizerCollisionsMerge(t *testing.T) {
	n := NewNormalizer(8)
	a := n.Normalize("alice🐟")
	b := n.Normalize("alice🎣")
	if a != b {
		t.Errorf("expected collision to merge, got %q and %q", a, b)
	}
}

func TestNormalizerMatchesPureFunction(t *testing.T) {
	n := NewNormalizer(2) // smaller than the input set to force evictions
	names := []string{"a😀", "b😀", "c😀", "a😀", "张三!", "张三!"}
	for _, name := range names {
		if got, want := n.Normalize(name), Normalize(name); got != want {
			t.Errorf("Normalizer(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNilNormalizer(t *testing.T) {
	var n *Normalizer
	if got := n.Normalize("x🐟"); got != "x" {
		t.Errorf("nil normalizer should fall back to Normalize, got %q", got)
	}
}

func TestNormalizeAll(t *testing.T) {
	n := NewNormalizer(0)
	got := n.NormalizeAll([]string{"bob", "alice🐟", "alice", "carol"})
	want := []string{"bob", "alice", "carol"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNormalizerConcurrent(t *testing.T) {
	n := NewNormalizer(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got := n.Normalize("alice🐟"); got != "alice" {
					t.Errorf("unexpected %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
