package reconcile_test

import (
	"strings"
	"testing"

	"csvtoolkit/internal/reconcile"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Email", "email"},
		{"e-mail", "email"},
		{"EMAIL ", "email"},
		{"Café Name", "cafename"},
		{"order_id", "orderid"},
		{"---", ""},
	}
	for _, c := range cases {
		if got := reconcile.Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"email", "e-mail"},
		{"customer id", "custid"},
		{"name", "first_name"},
	}
	for _, p := range pairs {
		ab := reconcile.Similarity(p[0], p[1])
		ba := reconcile.Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("similarity(%q,%q)=%v but reversed=%v", p[0], p[1], ab, ba)
		}
	}
	if got := reconcile.Similarity("Email", "e-mail"); got != 1.0 {
		t.Errorf("normalized-identical similarity=%v want 1.0", got)
	}
}

func TestProposeMappingExactGroup(t *testing.T) {
	groups := reconcile.ProposeMapping([]reconcile.FileColumns{
		{Filename: "a.csv", Columns: []string{"e-mail", "id"}},
		{Filename: "b.csv", Columns: []string{"Email", "id"}},
		{Filename: "c.csv", Columns: []string{"EMAIL ", "id"}},
	})

	var email *reconcile.ColumnGroup
	for i := range groups {
		if groups[i].TargetColumn == "email" {
			email = &groups[i]
		}
	}
	if email == nil {
		t.Fatal("no group with target email")
	}
	if len(email.Members) != 3 {
		t.Fatalf("members=%d want 3", len(email.Members))
	}
	for _, m := range email.Members {
		if m.Status != reconcile.StatusExact {
			t.Errorf("member %q status=%s want exact", m.OriginalColumn, m.Status)
		}
	}
}

func TestProposeMappingFuzzyGroup(t *testing.T) {
	groups := reconcile.ProposeMapping([]reconcile.FileColumns{
		{Filename: "a.csv", Columns: []string{"email1"}},
		{Filename: "b.csv", Columns: []string{"email"}},
	})
	if len(groups) != 1 {
		t.Fatalf("groups=%d want 1", len(groups))
	}
	g := groups[0]
	if g.TargetColumn != "email" {
		t.Fatalf("target=%q want email (shortest member)", g.TargetColumn)
	}
	statuses := map[string]reconcile.Status{}
	for _, m := range g.Members {
		statuses[m.OriginalColumn] = m.Status
	}
	if statuses["email1"] != reconcile.StatusExact {
		// email1 is the seed of its own group.
		t.Errorf("seed status=%s want exact", statuses["email1"])
	}
	if statuses["email"] != reconcile.StatusFuzzy {
		t.Errorf("absorbed status=%s want fuzzy", statuses["email"])
	}
}

func TestProposeMappingSingletons(t *testing.T) {
	groups := reconcile.ProposeMapping([]reconcile.FileColumns{
		{Filename: "a.csv", Columns: []string{"zzz_unique"}},
		{Filename: "b.csv", Columns: []string{"completely_other"}},
	})
	if len(groups) != 2 {
		t.Fatalf("groups=%d want 2", len(groups))
	}
	for _, g := range groups {
		if len(g.Members) != 1 {
			t.Fatalf("members=%d want 1", len(g.Members))
		}
		if g.TargetColumn != g.Members[0].OriginalColumn {
			t.Errorf("singleton target=%q want %q", g.TargetColumn, g.Members[0].OriginalColumn)
		}
		if g.Members[0].Status != reconcile.StatusExact {
			t.Errorf("singleton status=%s want exact", g.Members[0].Status)
		}
	}
}

func TestTargetUniverseSorted(t *testing.T) {
	groups := reconcile.ProposeMapping([]reconcile.FileColumns{
		{Filename: "a.csv", Columns: []string{"Email", "zeta"}},
		{Filename: "b.csv", Columns: []string{"e-mail", "alpha"}},
	})
	universe := reconcile.TargetUniverse(groups)
	if !sortedStrings(universe) {
		t.Fatalf("universe not sorted: %v", universe)
	}
	want := map[string]bool{"email": true, "zeta": true, "alpha": true}
	for _, c := range universe {
		if !want[c] {
			t.Errorf("unexpected universe entry %q", c)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if got := reconcile.StatusFor("E-Mail", "email"); got != reconcile.StatusExact {
		t.Errorf("got %s want exact", got)
	}
	if got := reconcile.StatusFor("email1", "email"); got != reconcile.StatusFuzzy {
		t.Errorf("got %s want fuzzy", got)
	}
	if got := reconcile.StatusFor("region", "email"); got != reconcile.StatusManual {
		t.Errorf("got %s want manual", got)
	}
}

func TestMappingsNoDuplicateTargetsPerFile(t *testing.T) {
	// Two columns of the same file normalize identically; only the first may
	// claim the shared target.
	groups := reconcile.ProposeMapping([]reconcile.FileColumns{
		{Filename: "a.csv", Columns: []string{"Email", "E-Mail"}},
		{Filename: "b.csv", Columns: []string{"email"}},
	})
	set := reconcile.Mappings(groups)
	fm := set["a.csv"]
	targets := map[string]int{}
	for _, tgt := range fm {
		targets[tgt]++
	}
	for tgt, n := range targets {
		if n > 1 {
			t.Errorf("file a.csv maps %d columns to %q", n, tgt)
		}
	}
	if set["b.csv"]["email"] != "email" {
		t.Errorf("b.csv email mapping=%q", set["b.csv"]["email"])
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if strings.Compare(s[i-1], s[i]) > 0 {
			return false
		}
	}
	return true
}
