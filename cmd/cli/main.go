// Command cli is the entry point for the synth binary.
package main

import (
	"os"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
