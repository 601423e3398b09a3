// Command dashboard serves the Georgia health and income dashboard and
// renders individual views to SVG.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
