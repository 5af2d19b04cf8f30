package diagram_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/layout"
)

func ExampleWrite() {
	d := diagram.Diagram{
		Version:     diagram.FormatVersion,
		Root:        "/projects",
		GeneratedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Width:       180,
		Height:      40,
		Nodes: []diagram.Node{
			{Path: "/projects", Name: "projects", Dir: true, Width: 60, Height: 40},
			{Path: "/projects/api", Name: "api", Parent: "/projects", Depth: 1, Dir: true, X: 120, Width: 60, Height: 40},
		},
		Connectors: []diagram.Connector{
			{Parent: "/projects", Child: "/projects/api", Points: []layout.Point{{X: 60, Y: 20}, {X: 120, Y: 20}}},
		},
	}

	var buf bytes.Buffer
	if err := diagram.Write(d, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(buf.String())
	// Output:
	// {
	//   "version": 1,
	//   "root": "/projects",
	//   "generated_at": "2026-03-14T09:00:00Z",
	//   "width": 180,
	//   "height": 40,
	//   "nodes": [
	//     {
	//       "path": "/projects",
	//       "name": "projects",
	//       "depth": 0,
	//       "dir": true,
	//       "x": 0,
	//       "y": 0,
	//       "width": 60,
	//       "height": 40
	//     },
	//     {
	//       "path": "/projects/api",
	//       "name": "api",
	//       "parent": "/projects",
	//       "depth": 1,
	//       "dir": true,
	//       "x": 120,
	//       "y": 0,
	//       "width": 60,
	//       "height": 40
	//     }
	//   ],
	//   "connectors": [
	//     {
	//       "parent": "/projects",
	//       "child": "/projects/api",
	//       "points": [
	//         {
	//           "x": 60,
	//           "y": 20
	//         },
	//         {
	//           "x": 120,
	//           "y": 20
	//         }
	//       ]
	//     }
	//   ]
	// }
}

func ExampleRead() {
	jsonData := `{
		"version": 1,
		"root": "/projects",
		"width": 180,
		"height": 40,
		"nodes": [
			{"path": "/projects", "name": "projects", "dir": true, "width": 60, "height": 40},
			{"path": "/projects/api", "name": "api", "parent": "/projects", "depth": 1, "dir": true, "x": 120, "width": 60, "height": 40}
		]
	}`

	d, err := diagram.Read(bytes.NewReader([]byte(jsonData)))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Root:", d.Root)
	fmt.Println("Nodes:", len(d.Nodes))
	fmt.Println("Frame:", d.Width, "x", d.Height)
	// Output:
	// Root: /projects
	// Nodes: 2
	// Frame: 180 x 40
}

func ExampleWriteFile() {
	d := diagram.Diagram{
		Version: diagram.FormatVersion,
		Root:    "/data",
		Nodes: []diagram.Node{
			{Path: "/data", Name: "data", Dir: true, Width: 60, Height: 40},
		},
	}

	tmpDir := os.TempDir()
	path := filepath.Join(tmpDir, "exported-diagram.json")
	defer os.Remove(path)

	if err := diagram.WriteFile(d, path); err != nil {
		fmt.Println("Error:", err)
		return
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Println("Diagram exported successfully")
	}
	// Output:
	// Diagram exported successfully
}
