// Command snapinspect prints the header and sections of snapshot files
// written by the engine's file sink.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/emberline/ecscore/internal/persist"
	"github.com/emberline/ecscore/internal/snapshot"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: snapinspect <file.snap>...")
		os.Exit(2)
	}
	failed := false
	for _, path := range os.Args[1:] {
		if err := inspect(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string) error {
	data, err := persist.ReadFile(path)
	if err != nil {
		return err
	}
	h, err := snapshot.Inspect(data)
	if err != nil {
		return err
	}

	enc := h.TextEncoding
	if enc == "" {
		enc = "utf-8"
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  world     %s\n", h.World)
	fmt.Printf("  tick      %d\n", h.Tick)
	fmt.Printf("  encoding  %s\n", enc)
	fmt.Printf("  size      %d bytes\n", len(data))
	fmt.Printf("  blake2b   %s\n", hex.EncodeToString(h.Checksum[:]))
	for _, s := range h.Sections {
		fmt.Printf("  %-12s %6d entities %8d bytes\n", s.Name, s.Entities, s.Bytes)
	}
	return nil
}
