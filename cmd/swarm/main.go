// Command swarm animates a grid of cubes sliding toward their target
// positions, presented in a window, a terminal or nowhere at all.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
