package ntt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/testutil"
)

type goldenFile struct {
	Cases []struct {
		Field   string   `json:"field"`
		LogN    int      `json:"log_n"`
		Input   []uint64 `json:"input"`
		Forward []uint64 `json:"forward"`
	} `json:"cases"`
}

func toElements(v []uint64) []field.Element {
	out := make([]field.Element, len(v))
	for i, x := range v {
		out[i] = field.Element(x)
	}
	return out
}

func TestAgainstGoldenFile(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile(filepath.Join("testdata", "ntt_golden.json"))
	if err != nil {
		t.Fatalf("Failed to open golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	var golden goldenFile
	if err := json.Unmarshal(raw, &golden); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}
	if len(golden.Cases) == 0 {
		t.Fatal("Golden file has no cases")
	}

	engines := map[string]*Engine{}
	for _, tc := range golden.Cases {
		e, ok := engines[tc.Field]
		if !ok {
			f, err := field.ByName(tc.Field)
			if err != nil {
				t.Fatal(err)
			}
			e = newTestEngine(t, f, WithTileLog(2))
			engines[tc.Field] = e
		}

		input := toElements(tc.Input)
		want := toElements(tc.Forward)

		got := slices.Clone(input)
		if err := e.Forward(context.Background(), 0, got, NaturalNatural); err != nil {
			t.Fatalf("%s 2^%d: %v", tc.Field, tc.LogN, err)
		}
		testutil.RequireEqualVectors(t, want, got)

		// The inverse of the reference output restores the input.
		if err := e.Inverse(context.Background(), 0, want, NaturalNatural); err != nil {
			t.Fatalf("%s 2^%d inverse: %v", tc.Field, tc.LogN, err)
		}
		testutil.RequireEqualVectors(t, input, want)
	}
}
