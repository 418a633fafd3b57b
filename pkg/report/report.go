// Package report renders resolved sets: the sentinel-delimited text
// block consumed by downstream tooling, and a provenance graph in DOT
// or SVG form.
package report

import (
	"fmt"
	"io"

	"github.com/matzehuels/reqsolve/pkg/resolve"
)

// Sentinels delimiting the machine-readable block. Downstream parsers
// scan for these exact lines, so they never change.
const (
	SentinelBegin = "--- RESOLVED-BEGIN ---"
	SentinelEnd   = "--- RESOLVED-END ---"
)

// noneToken stands in for absent values in the rendered block.
const noneToken = "None"

// Write renders set between the sentinels, one fixed seven-line record
// per entry in pin order. The output is a pure function of the set:
// rendering the same set twice yields identical bytes.
//
// The final line of each record is the download URL of the entry that
// introduced this one, or None for user-supplied roots.
func Write(w io.Writer, set *resolve.ResolvedSet) error {
	if _, err := fmt.Fprintln(w, SentinelBegin); err != nil {
		return err
	}
	for _, e := range set.All() {
		cameFrom := noneToken
		if e.CameFrom != "" {
			if parent := set.Get(e.CameFrom); parent != nil {
				cameFrom = parent.Link.URL
			}
		}
		_, err := fmt.Fprintf(w,
			"name: %s\nspecifier: %s\nlink.ext: %s\nlink.filename: %s\nlink.comes_from: %s\nlink.url: %s\ncomes_from.link.url: %s\n",
			e.Requirement.Name,
			e.Requirement.Specifier,
			e.Link.Ext(),
			e.Link.Filename,
			e.Link.ComesFrom,
			e.Link.URL,
			cameFrom,
		)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, SentinelEnd)
	return err
}
