package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_MatchesKnownProjects(t *testing.T) {
	c := Default()
	cases := []struct {
		id          string
		wood, metal int
		days        int
	}{
		{"House", 5, 0, 3},
		{"Woodmill", 5, 1, 5},
		{"Quarry", 3, 5, 7},
		{"Farm", 5, 2, 5},
		{"Castle", 50, 50, 50},
	}
	for _, tc := range cases {
		d, ok := c.Project(tc.id)
		if !ok {
			t.Fatalf("missing project %s", tc.id)
		}
		if d.WoodCost != tc.wood || d.MetalCost != tc.metal || d.BuildDays != tc.days {
			t.Fatalf("%s: got wood=%d metal=%d days=%d", tc.id, d.WoodCost, d.MetalCost, d.BuildDays)
		}
	}
	if got := c.ProjectIDs(); len(got) != 5 || got[0] != "House" || got[4] != "Castle" {
		t.Fatalf("unexpected order: %v", got)
	}
	if d, _ := c.Project("Castle"); !d.EndsGame || !d.Effect.IsZero() {
		t.Fatalf("castle should end the game without a standing effect: %+v", d)
	}
	if d, _ := c.Project("Woodmill"); d.Effect.WoodPerDay != 2 {
		t.Fatalf("woodmill effect: %+v", d.Effect)
	}
	if len(c.Projects.Digest) != 64 {
		t.Fatalf("digest not sha256 hex: %q", c.Projects.Digest)
	}
}

func TestProject_Unknown(t *testing.T) {
	c := Default()
	if _, ok := c.Project("Lighthouse"); ok {
		t.Fatalf("expected unknown project")
	}
	var nilCats *Catalogs
	if _, ok := nilCats.Project("House"); ok {
		t.Fatalf("nil catalogs should resolve nothing")
	}
}

func TestFromJSON_SchemaRejects(t *testing.T) {
	bad := []string{
		`[{"id":"Hut","wood_cost":-1,"metal_cost":0,"build_days":1,"effect":{}}]`,
		`[{"id":"Hut","wood_cost":1,"metal_cost":0,"build_days":0,"effect":{}}]`,
		`[{"id":"Hut","wood_cost":1,"metal_cost":0,"effect":{}}]`,
		`[{"id":"Hut","wood_cost":1,"metal_cost":0,"build_days":1,"effect":{"gold_per_day":1}}]`,
		`{"id":"Hut"}`,
	}
	for _, raw := range bad {
		if _, err := FromJSON([]byte(raw)); err == nil {
			t.Fatalf("expected schema error for %s", raw)
		} else if !strings.HasPrefix(err.Error(), ProjectsFile) {
			t.Fatalf("error should name the file: %v", err)
		}
	}
}

func TestFromJSON_DuplicateID(t *testing.T) {
	raw := `[
	  {"id":"Hut","wood_cost":1,"metal_cost":0,"build_days":1,"effect":{}},
	  {"id":"Hut","wood_cost":2,"metal_cost":0,"build_days":1,"effect":{}}
	]`
	if _, err := FromJSON([]byte(raw)); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoad_DirOverrideAndFallback(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load empty dir: %v", err)
	}
	if _, ok := c.Project("Castle"); !ok {
		t.Fatalf("expected embedded fallback")
	}

	raw := `[{"id":"Well","wood_cost":2,"metal_cost":0,"build_days":2,"effect":{"food_per_day":1}}]`
	if err := os.WriteFile(filepath.Join(dir, ProjectsFile), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err = Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, ok := c.Project("Well")
	if !ok || d.Effect.FoodPerDay != 1 {
		t.Fatalf("override not applied: %+v ok=%v", d, ok)
	}
	if _, ok := c.Project("Castle"); ok {
		t.Fatalf("override should replace the defaults")
	}
}
