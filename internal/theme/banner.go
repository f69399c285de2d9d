package theme

import (
	"fmt"
)

// Banner returns the gramlens startup banner.
func Banner() string {
	const magenta = "\033[35m"
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"   ◉ ◎   " + magenta + "GRAMLENS" + reset + "   ◎ ◉\n" +
		cyan + "   ┌─────────────────────┐\n" + reset +
		cyan + "   │  ▣  engagement lens  │\n" + reset +
		cyan + "   └─────────────────────┘\n" + reset +
		yellow + "   ─────────────────────────\n" + reset +
		"   follow-graph analytics for Instagram\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
