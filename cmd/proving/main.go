// Package main - proving
// Executable to run the Proving Ground against the simulation.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PauMirall/Lumenfall/server/test"
)

func main() {
	fmt.Println("🏮 LUMENFALL - PROVING GROUND")
	fmt.Println("================================================")

	ctx := context.Background()

	fmt.Println("\n🧪 Starting run: The Long Night...")
	proving := test.NewNightfallProving()
	proving.RunProving(ctx)

	results := proving.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("📊 PROVING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   ✅ Passed: %d\n", passed)
	fmt.Printf("   ❌ Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\n⚠️  The Keeper requires recalibration")
		os.Exit(1)
	}

	fmt.Println("\n✅ The arena is ready for nightfall")
	os.Exit(0)
}
