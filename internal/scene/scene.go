// Package scene persists splat scenes as JSON files, for keeping a
// captured serial or packed scene around between runs.
package scene

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/cwbudde/gsplat/internal/splat"
)

// Splat is the JSON form of one Gaussian.
type Splat struct {
	Position   [3]float32 `json:"position"`
	Covariance [6]float32 `json:"covariance"`
	Color      [3]uint8   `json:"color"`
	Alpha      uint8      `json:"alpha"`
}

// Scene is a saved splat set.
type Scene struct {
	Splats []Splat `json:"splats"`
}

// Save writes the store's contents to path. Uses the temp-file + rename
// pattern so a crash never leaves a truncated scene behind.
func Save(path string, st *splat.Store) error {
	sc := Scene{Splats: make([]Splat, 0, st.Len())}
	for _, s := range st.Splats() {
		sc.Splats = append(sc.Splats, Splat{
			Position:   [3]float32{s.X, s.Y, s.Z},
			Covariance: s.Cov,
			Color:      [3]uint8{s.R, s.G, s.B},
			Alpha:      s.Alpha,
		})
	}

	data, err := json.MarshalIndent(&sc, "", "  ")
	if err != nil {
		return fmt.Errorf("scene: serialize: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("scene: write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("scene: rename: %w", err)
	}

	slog.Debug("scene saved", "path", path, "splats", len(sc.Splats))
	return nil
}

// Load replaces the store's contents with the scene at path.
func Load(path string, st *splat.Store) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("scene: %w", err)
	}

	var sc Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return 0, fmt.Errorf("scene: parse %s: %w", path, err)
	}

	st.Clear()
	for i, s := range sc.Splats {
		err := st.Append(splat.Splat3D{
			X: s.Position[0], Y: s.Position[1], Z: s.Position[2],
			Cov:   s.Covariance,
			R:     s.Color[0],
			G:     s.Color[1],
			B:     s.Color[2],
			Alpha: s.Alpha,
		})
		if err != nil {
			return 0, fmt.Errorf("scene: splat %d: %w", i, err)
		}
	}

	slog.Info("scene loaded", "path", path, "splats", st.Len())
	return st.Len(), nil
}
