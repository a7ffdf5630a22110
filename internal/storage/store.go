package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	seriesFile   = "series.csv"
	atomsFile    = "atoms.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         uint64             `json:"seed"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Integrator   string             `json:"integrator"`
	Species      string             `json:"species"`
	Atoms        int                `json:"atoms"`
	CoolingBeams int                `json:"cooling_beams"`
	DipoleBeams  int                `json:"dipole_beams"`
	Elapsed      time.Duration      `json:"elapsed_ns"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the configuration, the
// metric series and the final atom snapshot.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Name:         name,
		Timestamp:    now,
		Seed:         result.Seed,
		Dt:           cfg.Dt,
		Steps:        result.StepsTaken,
		Integrator:   cfg.Integrator,
		Species:      cfg.Species,
		Atoms:        len(result.Atoms),
		CoolingBeams: len(cfg.CoolingBeams),
		DipoleBeams:  len(cfg.DipoleBeams),
		Elapsed:      result.Elapsed,
		Metrics:      result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return "", err
	}
	if err := writeAtoms(filepath.Join(runDir, atomsFile), result.Atoms); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func writeSeries(path string, result *sim.Result) error {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(result.Times))
	for i, t := range result.Times {
		row := []string{formatFloat(t)}
		for _, name := range names {
			v := 0.0
			if i < len(result.Series[name]) {
				v = result.Series[name][i]
			}
			row = append(row, formatFloat(v))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, append([]string{"time"}, names...), rows)
}

func writeAtoms(path string, atoms []sim.AtomState) error {
	rows := make([][]string, 0, len(atoms))
	for _, a := range atoms {
		rows = append(rows, []string{
			strconv.FormatUint(a.ID, 10),
			formatFloat(a.Position.X), formatFloat(a.Position.Y), formatFloat(a.Position.Z),
			formatFloat(a.Velocity.X), formatFloat(a.Velocity.Y), formatFloat(a.Velocity.Z),
			formatFloat(a.Photons),
			strconv.FormatBool(a.Dark),
		})
	}
	header := []string{"id", "x", "y", "z", "vx", "vy", "vz", "photons", "dark"}
	return writeCSV(path, header, rows)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// Series is a loaded metric time series.
type Series struct {
	Times  []float64
	Names  []string
	Values map[string][]float64
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}

	series := &Series{Values: make(map[string][]float64)}
	if len(records) == 0 {
		return series, nil
	}
	series.Names = records[0][1:]

	for _, record := range records[1:] {
		if len(record) != len(series.Names)+1 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		series.Times = append(series.Times, t)
		for j, name := range series.Names {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				v = 0
			}
			series.Values[name] = append(series.Values[name], v)
		}
	}
	return series, nil
}

func (s *Store) LoadAtoms(runID string) ([]sim.AtomState, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, atomsFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.AtomState{}, nil
	}

	atoms := make([]sim.AtomState, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 9 {
			continue
		}
		id, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			continue
		}
		var vals [7]float64
		for j := range vals {
			vals[j], _ = strconv.ParseFloat(record[j+1], 64)
		}
		dark, _ := strconv.ParseBool(record[8])
		a := sim.AtomState{ID: id, Photons: vals[6], Dark: dark}
		a.Position.X, a.Position.Y, a.Position.Z = vals[0], vals[1], vals[2]
		a.Velocity.X, a.Velocity.Y, a.Velocity.Z = vals[3], vals[4], vals[5]
		atoms = append(atoms, a)
	}
	return atoms, nil
}
