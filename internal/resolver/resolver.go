// Package resolver selects canonical compound names and links a compound
// record list into a parent chain.
package resolver

import (
	"math"
	"slices"
	"strings"

	"github.com/starford/chemid/internal/models"
)

// missingCID orders entries without an identifier after every real one.
const missingCID int64 = 999999999999

// Resolve turns a by-name record list into an identity chain. The first entry
// is the compound; the remaining entries, in order, resolve into its parent
// chain. An entry without an identifier yields nil and drops the chain that
// would have hung below it.
//
// The chain is built from the tail so stack depth stays constant no matter
// how long the list is; the result is identical to resolving head-first and
// recursing into the tail.
func Resolve(entries []models.CompoundEntry, priority []models.NameType) *models.Identity {
	var parent *models.Identity
	for i := len(entries) - 1; i >= 0; i-- {
		parent = resolveEntry(entries[i], priority, parent)
	}
	return parent
}

// ResolveOldest resolves the list after ordering it by ascending identifier,
// so the numerically smallest CID becomes the compound. The input slice is
// not modified.
func ResolveOldest(entries []models.CompoundEntry, priority []models.NameType) *models.Identity {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.CompoundEntry) int {
		ca, cb := sortKey(a), sortKey(b)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})
	return Resolve(sorted, priority)
}

func sortKey(e models.CompoundEntry) int64 {
	if cid, ok := e.CID(); ok {
		return cid
	}
	return missingCID
}

func resolveEntry(e models.CompoundEntry, priority []models.NameType, parent *models.Identity) *models.Identity {
	cid, ok := e.CID()
	if !ok {
		return nil
	}
	name, _ := SelectName(e, priority)
	return &models.Identity{
		CID:    models.FormatCID(cid),
		Name:   name,
		Parent: parent,
	}
}

// SelectName picks the IUPAC name property whose name-type appears earliest
// in priority. Among properties sharing that position the first one wins.
func SelectName(e models.CompoundEntry, priority []models.NameType) (string, bool) {
	best := math.MaxInt
	var name string
	found := false
	for _, p := range e.Props {
		if p.URN == nil || !strings.EqualFold(p.URN.Label, models.IUPACNameLabel) {
			continue
		}
		rank := Rank(p.URN.Name, priority)
		if rank < 0 || rank >= best {
			continue
		}
		best = rank
		found = true
		name = ""
		if p.Value != nil && p.Value.SVal != nil {
			name = *p.Value.SVal
		}
	}
	return name, found
}

// Rank returns the position of name in priority, or -1 when it is not listed.
func Rank(name string, priority []models.NameType) int {
	for i, nt := range priority {
		if nt.Matches(name) {
			return i
		}
	}
	return -1
}
