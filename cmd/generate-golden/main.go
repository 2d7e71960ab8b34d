// Command generate-golden writes the reference vectors used by the engine
// tests. Values come from direct O(n²) evaluation of the transform sum with
// arbitrary-precision integers, independent of the engine's reductions.
//
// Build with -tags gmp to evaluate with GMP instead of math/big.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agbru/nttgpu/internal/field"
)

// GoldenFile is the layout of ntt_golden.json.
type GoldenFile struct {
	Description string       `json:"description"`
	Cases       []GoldenCase `json:"cases"`
}

// GoldenCase is one forward transform in natural order.
type GoldenCase struct {
	Field   string   `json:"field"`
	LogN    int      `json:"log_n"`
	Input   []uint64 `json:"input"`
	Forward []uint64 `json:"forward"`
}

const description = "Forward NTT in natural order, X[k] = sum_j x[j] * w^(jk) mod p with w = g^((p-1)/n); " +
	"input[i] = ((i+1) * 0x9E3779B97F4A7C15 mod 2^64) mod p."

// inputMultiplier is the 64-bit golden ratio constant; it spreads inputs
// across the whole field.
const inputMultiplier uint64 = 0x9E3779B97F4A7C15

func main() {
	outputDir := flag.String("out", "internal/ntt/testdata", "Output directory for the golden file")
	maxLog := flag.Int("max-log", 6, "Largest log2 size to generate")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "ntt_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	fmt.Printf("Generating golden data with the %s oracle...\n", oracleName)

	out := GoldenFile{Description: description}
	for _, f := range []*field.Field{field.Goldilocks(), field.BabyBear()} {
		for logN := 0; logN <= *maxLog; logN++ {
			input := goldenInput(f.Modulus(), 1<<uint(logN))
			out.Cases = append(out.Cases, GoldenCase{
				Field:   f.Name(),
				LogN:    logN,
				Input:   input,
				Forward: naiveForward(f.Modulus(), uint64(f.Generator()), logN, input),
			})
			fmt.Printf("Generated %s 2^%d\n", f.Name(), logN)
		}
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

func goldenInput(p uint64, n int) []uint64 {
	x := make([]uint64, n)
	for i := range x {
		x[i] = (uint64(i+1) * inputMultiplier) % p
	}
	return x
}
