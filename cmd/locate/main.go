// Command locate resolves diary entry locations from the command line using
// the same dictionary and resolver as the locator service.
//
// Usage:
//
//	locate resolve "今天在杭州" --user 42 --stored Puer
//	locate title "飞往成都" --at 2026-02-18T20:00:00Z
//	locate locations
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
