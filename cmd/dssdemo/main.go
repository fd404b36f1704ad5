// Command dssdemo exercises the deep shape store end to end: it builds a
// small synthetic hierarchical layout, stages it through a ShapeStore,
// and runs a toy device extractor over the result.
package main

import (
	"fmt"
	"os"

	"github.com/JiancunWang/klayout/cmd/dssdemo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
