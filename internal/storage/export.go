package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata RunMetadata          `json:"metadata"`
	Times    []float64            `json:"times"`
	Series   map[string][]float64 `json:"series"`
	Atoms    []AtomRecord         `json:"atoms,omitempty"`
}

type AtomRecord struct {
	ID       uint64     `json:"id"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	Photons  float64    `json:"photons"`
	Dark     bool       `json:"dark"`
}

// Export writes a stored run as one JSON document. Atoms are included
// when withAtoms is set.
func (s *Store) Export(w io.Writer, runID string, withAtoms bool) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata: *meta,
		Times:    series.Times,
		Series:   series.Values,
	}
	if withAtoms {
		atoms, err := s.LoadAtoms(runID)
		if err != nil {
			return err
		}
		data.Atoms = make([]AtomRecord, len(atoms))
		for i, a := range atoms {
			data.Atoms[i] = AtomRecord{
				ID:       a.ID,
				Position: [3]float64{a.Position.X, a.Position.Y, a.Position.Z},
				Velocity: [3]float64{a.Velocity.X, a.Velocity.Y, a.Velocity.Z},
				Photons:  a.Photons,
				Dark:     a.Dark,
			}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
