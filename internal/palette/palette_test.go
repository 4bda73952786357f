package palette

import (
	"reflect"
	"testing"

	"github.com/zulandar/roadmap/internal/config"
)

var builtin = []string{"#4156A1", "#427E93", "#008473", "#6F7D1C", "#D14905"}

func TestLookup(t *testing.T) {
	r := New([]config.ColorSetConfig{
		{ID: 3, Name: "Mono", Colors: []string{"#000", "#333"}},
		{ID: 0, Name: "Override", Colors: []string{"#fff"}},
	})

	tests := []struct {
		name string
		id   int
		want []string
	}{
		{"default", 0, builtin},
		{"configured", 3, []string{"#000", "#333"}},
		{"unknown falls back", 7, builtin},
		{"negative falls back", -1, builtin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Lookup(tt.id); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lookup(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	r := New(nil)
	r.Lookup(0)[0] = "#bad"
	if got := r.Lookup(0)[0]; got != "#4156A1" {
		t.Errorf("built-in set modified: %q", got)
	}
}

func TestNames(t *testing.T) {
	r := New([]config.ColorSetConfig{
		{ID: 9, Name: "Late", Colors: []string{"#999"}},
		{ID: 2, Name: "Early", Colors: []string{"#222"}},
	})
	names := r.Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %+v, want 3 sets", names)
	}
	ids := []int{names[0].ID, names[1].ID, names[2].ID}
	if !reflect.DeepEqual(ids, []int{0, 2, 9}) {
		t.Errorf("ids = %v, want [0 2 9]", ids)
	}
	if names[0].Name != DefaultName {
		t.Errorf("default name = %q", names[0].Name)
	}
	if !r.Has(9) || r.Has(4) {
		t.Error("Has mismatch")
	}
}
