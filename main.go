// Package main is the entry point for the mapscore CLI tool, which extracts
// per-map player statistics from CS2 demo recordings and scores fantasy
// rosters from them.
package main

import "github.com/fantasycs/mapscore/cmd"

func main() {
	cmd.Execute()
}
