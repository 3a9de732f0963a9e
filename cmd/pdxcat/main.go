// pdxcat loads one or more Clausewitz files - text, binary, or ZIP - and
// either re-emits them as text or prints a shape summary (one line per
// top-level pair).
//
// Usage:
//
//	pdxcat [-dict FILE] [-bin-header S] [-txt-header S] [-shape] FILE...
//
// Each file is parsed independently; with more than one file, parsing
// runs across a small worker pool so one slow file doesn't block the
// rest (§5: parsers on distinct streams coordinate with nothing).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Neumenon/clausewitz/pdx"
	"github.com/Neumenon/clausewitz/pdx/tokendict"
)

func main() {
	dictPath := flag.String("dict", "", "token dictionary file (id<TAB>name per line); required to resolve binary-dialect token ids")
	binHeader := flag.String("bin-header", "", "expected binary-dialect header string")
	txtHeader := flag.String("txt-header", "", "expected text-dialect header string")
	shape := flag.Bool("shape", false, "print a shape summary (one line per top-level pair) instead of re-emitting as text")
	workers := flag.Int("workers", 4, "max files parsed concurrently")
	flag.Usage = usage
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		usage()
		os.Exit(2)
	}

	lookup := func() map[int16]string { return nil }
	if *dictPath != "" {
		lookup = tokendict.Lazy(*dictPath)
	}

	if *workers < 1 {
		*workers = 1
	}
	sem := make(chan struct{}, *workers)
	var wg sync.WaitGroup
	var mu sync.Mutex // serializes stdout/stderr writes across workers

	exit := 0
	for _, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			v, err := pdx.Load(path, *binHeader, *txtHeader, lookup)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("%s: %v", path, err)
				exit = 1
				return
			}
			if *shape {
				printShape(path, v)
				return
			}
			if err := pdx.Save(os.Stdout, v); err != nil {
				log.Printf("%s: %v", path, err)
				exit = 1
			}
		}(path)
	}
	wg.Wait()
	os.Exit(exit)
}

// printShape prints path, then one "key: kind" line per top-level pair
// of the record Load produced - useful for eyeballing an unfamiliar
// savegame's top-level layout without dumping the whole tree.
func printShape(path string, v *pdx.Value) {
	fmt.Printf("%s:\n", path)
	pairs, err := v.AsRecord()
	if err != nil {
		fmt.Printf("  (not a record: %v)\n", err)
		return
	}
	for _, p := range pairs {
		fmt.Printf("  %s: %s\n", p.Key, p.Value.Kind())
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `pdxcat - dump or inspect Clausewitz-format files

Usage:
  pdxcat [-dict FILE] [-bin-header S] [-txt-header S] [-shape] FILE...

Flags:
`)
	flag.PrintDefaults()
}
