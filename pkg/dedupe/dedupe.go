// Package dedupe clusters bibliographic records into duplicate groups.
//
// Two records match when they share a non-empty identifier (DOI or ISBN),
// or when their titles score above the title threshold and at least one
// creator name overlaps. Matches combine transitively: the groups are the
// connected components of the pairwise match graph.
package dedupe

import (
	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/similarity"
)

// Group is an ordered cluster of records believed to describe the same
// work. Order follows the input snapshot. Groups are computed fresh on
// each scan and never persisted.
type Group struct {
	Records []bib.Record
}

// Len returns the group size.
func (g Group) Len() int {
	return len(g.Records)
}

// Keys returns the member record keys in group order.
func (g Group) Keys() []string {
	keys := make([]string, len(g.Records))
	for i, rec := range g.Records {
		keys[i] = rec.Key
	}
	return keys
}

// Representative returns the member shown when the group is displayed:
// the earliest-added record, falling back to group order when timestamps
// are absent or equal. It carries no authority; the merge master is always
// chosen explicitly by the caller.
func (g Group) Representative() bib.Record {
	best := g.Records[0]
	for _, rec := range g.Records[1:] {
		if rec.DateAdded != "" && (best.DateAdded == "" || rec.DateAdded < best.DateAdded) {
			best = rec
		}
	}
	return best
}

// Groups scans a record snapshot and returns its duplicate groups, each of
// size >= 2, ordered by the first member's position in the input. A
// blocking index pre-filters candidate pairs before the full comparator
// runs, so most non-duplicates are never compared.
func Groups(records []bib.Record) []Group {
	if len(records) < 2 {
		return nil
	}

	uf := newUnionFind(len(records))
	for _, pair := range candidatePairs(records) {
		if uf.find(pair[0]) == uf.find(pair[1]) {
			continue
		}
		if Match(records[pair[0]], records[pair[1]]) {
			uf.union(pair[0], pair[1])
		}
	}

	// Collect components of size >= 2, preserving input order.
	members := make(map[int][]int, len(records))
	for i := range records {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	// The union root is always the lowest member index, so iterating roots
	// in index order yields groups ordered by first member position, with
	// members in input order.
	var groups []Group
	for i := range records {
		if uf.find(i) != i {
			continue
		}
		component := members[i]
		if len(component) < 2 {
			continue
		}
		group := Group{Records: make([]bib.Record, len(component))}
		for j, idx := range component {
			group.Records[j] = records[idx]
		}
		groups = append(groups, group)
	}

	return groups
}

// Match reports whether two records describe the same work. An exact
// identifier match always wins: a fuzzy title score never overrides a
// shared DOI or ISBN.
func Match(a, b bib.Record) bool {
	if doi := normalizeDOI(a.DOI()); doi != "" && doi == normalizeDOI(b.DOI()) {
		return true
	}
	if isbn := normalizeISBN(a.ISBN()); isbn != "" && isbn == normalizeISBN(b.ISBN()) {
		return true
	}

	if similarity.Score(a.Title(), b.Title()) < similarity.TitleThreshold {
		return false
	}
	return authorOverlap(a, b) > 0
}

// authorOverlap counts creator pairs whose names score at or above the
// name threshold. Surnames are compared when available so "G. Hinton" and
// "Geoffrey Hinton" still overlap.
func authorOverlap(a, b bib.Record) int {
	overlap := 0
	for _, ca := range a.Creators {
		if !ca.Valid() {
			continue
		}
		for _, cb := range b.Creators {
			if !cb.Valid() {
				continue
			}
			if similarity.Score(ca.Surname(), cb.Surname()) >= similarity.NameThreshold ||
				similarity.Score(ca.Display(), cb.Display()) >= similarity.NameThreshold {
				overlap++
				break
			}
		}
	}
	return overlap
}

// unionFind is a plain union-find over record indices with path halving.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union attaches the larger-rooted tree under the smaller root so the
// component root is always the lowest member index, which keeps group
// ordering stable.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
