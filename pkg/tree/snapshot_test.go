package tree

import (
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	root := string(filepath.Separator) + "root"
	a := filepath.Join(root, "a")
	lister := fakeLister{dirs: map[string][]Entry{
		root: {
			{Name: "a", Path: a, IsDir: true},
			{Name: "b", Path: filepath.Join(root, "b"), IsDir: true},
		},
		a: {
			{Name: "a1", Path: filepath.Join(a, "a1"), IsDir: true},
		},
	}}
	tr, err := Build(lister, root, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	data, err := Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if back.RootPath() != tr.RootPath() || back.Len() != tr.Len() {
		t.Fatalf("round trip changed shape: %s/%d vs %s/%d",
			back.RootPath(), back.Len(), tr.RootPath(), tr.Len())
	}
	wantPaths := tr.Paths()
	for i, p := range back.Paths() {
		if p != wantPaths[i] {
			t.Errorf("order[%d] = %s, want %s", i, p, wantPaths[i])
		}
	}
	for _, p := range wantPaths {
		orig, _ := tr.Node(p)
		got, ok := back.Node(p)
		if !ok {
			t.Fatalf("node %s lost in round trip", p)
		}
		if got.Name != orig.Name || got.Parent != orig.Parent || got.Depth != orig.Depth {
			t.Errorf("node %s = %+v, want %+v", p, got, orig)
		}
		if len(got.Children) != len(orig.Children) {
			t.Errorf("node %s has %d children, want %d", p, len(got.Children), len(orig.Children))
		}
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	root := string(filepath.Separator) + "root"
	lister := fakeLister{dirs: map[string][]Entry{
		root: {
			{Name: "x", Path: filepath.Join(root, "x"), IsDir: true},
		},
	}}
	tr, err := Build(lister, root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	first, err := Marshal(tr)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Marshal(tr)
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatal("Marshal() output unstable")
		}
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{"},
		{"empty", `{"root": "", "nodes": []}`},
		{"missing root node", `{"root": "/r", "nodes": [{"name": "x", "path": "/x"}]}`},
		{"orphan parent", `{"root": "/r", "nodes": [{"name": "r", "path": "/r"}, {"name": "x", "path": "/x", "parent": "/gone"}]}`},
		{"duplicate path", `{"root": "/r", "nodes": [{"name": "r", "path": "/r"}, {"name": "r", "path": "/r"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Error("Unmarshal() succeeded, want error")
			}
		})
	}
}
