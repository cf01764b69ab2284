// Package reconcile proposes a mapping from each uploaded file's original
// column names onto canonical target columns, using exact matching on a
// normalized form and fuzzy matching by length-normalized Levenshtein
// distance. The 0.70 similarity threshold and the distance formula are a
// fixed contract, not a tuning knob.
package reconcile

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Threshold is the similarity bound for fuzzy grouping; two columns group
// when their similarity is strictly greater than this.
const Threshold = 0.70

// Status describes how a column ended up mapped to its target.
type Status string

const (
	// StatusExact: identical to the target after normalization.
	StatusExact Status = "exact"
	// StatusFuzzy: similarity above Threshold but not identical.
	StatusFuzzy Status = "fuzzy"
	// StatusManual: user-assigned; matches neither rule.
	StatusManual Status = "manual"
	// StatusUnmapped: excluded from the mapping.
	StatusUnmapped Status = "unmapped"
)

// FileColumns names one uploaded file and its header columns in order.
type FileColumns struct {
	Filename string
	Columns  []string
}

// Member is one original column's place inside a ColumnGroup.
type Member struct {
	Filename       string
	OriginalColumn string
	Status         Status
}

// ColumnGroup collects the original columns that map onto one target.
type ColumnGroup struct {
	TargetColumn string
	Members      []Member
}

// ColumnMapping maps a single file's original column names to target names.
type ColumnMapping map[string]string

// MappingSet holds a ColumnMapping per filename.
type MappingSet map[string]ColumnMapping

// foldDiacritics strips combining marks so accented headers compare equal to
// their plain-ASCII spellings (NFD, drop Mn, NFC).
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize reduces a column name to its comparison form: diacritics folded,
// lowercased, everything but letters and digits stripped.
func Normalize(name string) string {
	folded, _, _ := transform.String(foldDiacritics, name)
	var sb strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Similarity computes 1 − lev(a,b)/max(len(a),len(b)) over the normalized
// forms. Identical normalized forms score 1.0; two empty forms also score
// 1.0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(na, nb))/float64(maxLen)
}

// levenshtein is the classic edit distance with unit costs, two-row DP.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// entry is one occurrence of a column in the global list. Occurrences keep
// their identity, so the same name appearing twice in one file yields two
// entries.
type entry struct {
	file string
	name string
	norm string
}

// ProposeMapping runs the exact and fuzzy passes over every file's columns
// and returns the proposed groups. It is a pure function of its inputs; an
// all-singleton result is valid output, not an error.
func ProposeMapping(files []FileColumns) []ColumnGroup {
	var all []entry
	normCount := make(map[string]int)
	for _, f := range files {
		for _, c := range f.Columns {
			e := entry{file: f.Filename, name: c, norm: Normalize(c)}
			all = append(all, e)
			normCount[e.norm]++
		}
	}

	var groups []ColumnGroup
	grouped := make([]bool, len(all))

	// Exact pass: columns sharing a normalized form land in one group whose
	// target is that normalized form.
	seenNorm := make(map[string]bool)
	for i, e := range all {
		if grouped[i] || normCount[e.norm] < 2 || seenNorm[e.norm] {
			continue
		}
		seenNorm[e.norm] = true
		g := ColumnGroup{TargetColumn: e.norm}
		for j := i; j < len(all); j++ {
			if !grouped[j] && all[j].norm == e.norm {
				grouped[j] = true
				g.Members = append(g.Members, Member{
					Filename:       all[j].file,
					OriginalColumn: all[j].name,
					Status:         StatusExact,
				})
			}
		}
		groups = append(groups, g)
	}

	// Fuzzy pass: greedy seeding in original order; each remaining column
	// joins the first open group whose seed it resembles.
	for i, seed := range all {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		members := []entry{seed}
		for j := i + 1; j < len(all); j++ {
			if grouped[j] {
				continue
			}
			if Similarity(seed.name, all[j].name) > Threshold {
				grouped[j] = true
				members = append(members, all[j])
			}
		}
		groups = append(groups, buildFuzzyGroup(seed, members))
	}

	return groups
}

// buildFuzzyGroup derives the target (shortest member name, first occurrence
// breaking ties) and per-member statuses for a fuzzy-pass group. A group of
// one is a singleton: target is the original name, status exact.
func buildFuzzyGroup(seed entry, members []entry) ColumnGroup {
	target := members[0].name
	for _, m := range members[1:] {
		if len(m.name) < len(target) {
			target = m.name
		}
	}
	g := ColumnGroup{TargetColumn: target}
	for _, m := range members {
		st := StatusFuzzy
		if m.norm == seed.norm {
			st = StatusExact
		}
		g.Members = append(g.Members, Member{
			Filename:       m.file,
			OriginalColumn: m.name,
			Status:         st,
		})
	}
	return g
}

// TargetUniverse returns the sorted union of every group's target column and
// every original column name that was not absorbed into a multi-member
// group.
func TargetUniverse(groups []ColumnGroup) []string {
	set := make(map[string]bool)
	for _, g := range groups {
		set[g.TargetColumn] = true
		if len(g.Members) < 2 {
			for _, m := range g.Members {
				set[m.OriginalColumn] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// StatusFor classifies a (possibly user-edited) original → target assignment:
// exact when normalized-identical, fuzzy when similar enough, manual
// otherwise.
func StatusFor(original, target string) Status {
	if Normalize(original) == Normalize(target) {
		return StatusExact
	}
	if Similarity(original, target) > Threshold {
		return StatusFuzzy
	}
	return StatusManual
}

// Mappings converts proposed groups into a per-file ColumnMapping set. The
// canonical initializer is deterministic: within one file the first original
// column claiming a target wins, so no two columns of the same file map to
// the same target.
func Mappings(groups []ColumnGroup) MappingSet {
	set := make(MappingSet)
	claimed := make(map[string]map[string]bool) // file -> target -> taken
	for _, g := range groups {
		for _, m := range g.Members {
			fm := set[m.Filename]
			if fm == nil {
				fm = make(ColumnMapping)
				set[m.Filename] = fm
			}
			taken := claimed[m.Filename]
			if taken == nil {
				taken = make(map[string]bool)
				claimed[m.Filename] = taken
			}
			if taken[g.TargetColumn] {
				continue
			}
			if _, dup := fm[m.OriginalColumn]; dup {
				continue
			}
			fm[m.OriginalColumn] = g.TargetColumn
			taken[g.TargetColumn] = true
		}
	}
	return set
}
