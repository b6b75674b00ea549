// Command remotesym-lookup prints the runtime virtual address of a named
// symbol inside another process.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/appsworld/remotesym"
	"github.com/appsworld/remotesym/darwin"
)

func main() {
	pid := flag.Int("pid", 0, "target process id (0 means the calling process itself)")
	symbol := flag.String("symbol", "", "symbol name to resolve, with or without its leading underscore")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "remotesym-lookup: -symbol is required")
		os.Exit(2)
	}

	var (
		proc *darwin.Process
		err  error
	)
	if *pid == 0 {
		proc, err = darwin.Self()
	} else {
		proc, err = darwin.Open(*pid)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "remotesym-lookup: %v\n", err)
		os.Exit(1)
	}
	defer proc.Close()

	addr, ok := remotesym.Lookup(proc, *symbol)
	if !ok {
		fmt.Fprintf(os.Stderr, "remotesym-lookup: %q not found\n", *symbol)
		os.Exit(1)
	}
	fmt.Printf("%#016x\n", addr)
}
