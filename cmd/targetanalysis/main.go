// Standalone distribution check for 1337 target offsets.
// It derives the targets of many consecutive daily cycles the same way the
// game does and reports how evenly they spread over the resolution window.
package main

import (
	"flag"
	"fmt"
	"math"
	"strings"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/services"
)

// chiSquaredCritical95 holds the 95% critical values for 1..20 degrees of freedom
var chiSquaredCritical95 = []float64{
	3.84, 5.99, 7.81, 9.49, 11.07, 12.59, 14.07, 15.51, 16.92, 18.31,
	19.68, 21.03, 22.36, 23.68, 25.00, 26.30, 27.59, 28.87, 30.14, 31.41,
}

// Report summarizes the spread of generated targets
type Report struct {
	Cycles     int
	WindowMs   int64
	Buckets    []int
	MinOffset  int64
	MaxOffset  int64
	MeanOffset float64
	ChiSquared float64
}

// Expected returns the ideal count per bucket
func (r Report) Expected() float64 {
	return float64(r.Cycles) / float64(len(r.Buckets))
}

// Uniform reports whether the chi-squared statistic stays below the 95% critical value
func (r Report) Uniform() bool {
	df := len(r.Buckets) - 1
	if df < 1 || df > len(chiSquaredCritical95) {
		return false
	}
	return r.ChiSquared < chiSquaredCritical95[df-1]
}

func analyzeTargets(generator *services.TargetGenerator, guildID int64, first time.Time, cycles, buckets int, windowMs int64) Report {
	report := Report{
		Cycles:    cycles,
		WindowMs:  windowMs,
		Buckets:   make([]int, buckets),
		MinOffset: math.MaxInt64,
		MaxOffset: -1,
	}
	if cycles <= 0 || buckets <= 0 || windowMs <= 0 {
		report.MinOffset = 0
		report.MaxOffset = 0
		return report
	}

	var sum float64
	for day := 0; day < cycles; day++ {
		key := entities.CycleKey{GuildID: guildID, StartsAt: first.AddDate(0, 0, day)}
		offset := generator.TargetOffsetWithin(key, windowMs)

		bucket := int(offset * int64(buckets) / windowMs)
		if bucket >= buckets {
			bucket = buckets - 1
		}
		report.Buckets[bucket]++

		report.MinOffset = min(report.MinOffset, offset)
		report.MaxOffset = max(report.MaxOffset, offset)
		sum += float64(offset)
	}
	report.MeanOffset = sum / float64(cycles)

	expected := report.Expected()
	for _, count := range report.Buckets {
		report.ChiSquared += math.Pow(float64(count)-expected, 2) / expected
	}

	return report
}

func printReport(r Report) {
	fmt.Printf("Cycles: %d | Window: %dms | Min: %d | Max: %d | Mean: %.1f (ideal %.1f)\n",
		r.Cycles, r.WindowMs, r.MinOffset, r.MaxOffset, r.MeanOffset, float64(r.WindowMs-1)/2)

	expected := r.Expected()
	fmt.Printf("\nDistribution (each bucket should have ~%.0f targets):\n", expected)
	for idx, count := range r.Buckets {
		from := r.WindowMs * int64(idx) / int64(len(r.Buckets))
		to := r.WindowMs * int64(idx+1) / int64(len(r.Buckets))
		deviation := (float64(count) - expected) / expected * 100
		bar := strings.Repeat("█", int(float64(count)/expected*20))
		fmt.Printf("  [%5d-%5d): %6d (%+5.2f%%) %s\n", from, to, count, deviation, bar)
	}

	fmt.Printf("\nχ² (uniformity): %.2f with %d df\n", r.ChiSquared, len(r.Buckets)-1)
	if r.Uniform() {
		fmt.Println("✓ Targets are uniformly distributed at 95% confidence")
	} else {
		fmt.Println("✗ Targets deviate from a uniform distribution")
	}
}

func main() {
	secret := flag.String("secret", "analysis", "target secret to derive offsets with")
	guildID := flag.Int64("guild", 1, "guild ID used in the cycle key")
	cycles := flag.Int("cycles", 100000, "number of consecutive daily cycles")
	buckets := flag.Int("buckets", 10, "number of histogram buckets")
	window := flag.Duration("window", 60*time.Second, "resolution window length")
	flag.Parse()

	fmt.Println("=== 1337 Target Distribution Analysis ===")
	fmt.Println()

	first := time.Date(2024, time.January, 1, 13, 37, 0, 0, time.UTC)
	generator := services.NewTargetGenerator(*secret, *window)
	printReport(analyzeTargets(generator, *guildID, first, *cycles, *buckets, window.Milliseconds()))
}
