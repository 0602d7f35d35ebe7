// Command dupefinder scans a directory tree for files whose paths collide
// under case folding and reports each collision set with content digests,
// so equal-content duplicates can be told apart from genuine conflicts.
package main

import (
	"fmt"
	"os"

	"github.com/namsral/flag"
	log "github.com/sirupsen/logrus"

	"gitlab.com/caseproxy/caseproxy/internal/dupescan"
)

func main() {
	htmlPath := flag.String("html", "", "Path to save an HTML report to")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-html report.html] ROOT-DIR\n", os.Args[0])
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *htmlPath); err != nil {
		log.WithError(err).Fatal("scan failed")
	}
}

func run(root, htmlPath string) error {
	files, err := dupescan.FindFiles(root)
	if err != nil {
		return err
	}

	sets := dupescan.CollisionSets(files)
	hashes := dupescan.HashAll(sets, func(path string, err error) {
		log.WithError(err).WithField("path", path).Warn("could not read file for hashing")
	})

	if htmlPath == "" {
		dupescan.WriteTextReport(os.Stdout, sets, hashes)
		return nil
	}

	f, err := os.Create(htmlPath)
	if err != nil {
		return err
	}

	if err := dupescan.WriteHTMLReport(f, sets, hashes); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
