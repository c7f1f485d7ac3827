package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
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
	ID         string                   `json:"id"`
	Preset     string                   `json:"preset"`
	Storyboard string                   `json:"storyboard,omitempty"`
	Timestamp  time.Time                `json:"timestamp"`
	Seed       int64                    `json:"seed"`
	FrameTime  time.Duration            `json:"frame_time"`
	Duration   float64                  `json:"duration"`
	Integrator string                   `json:"integrator"`
	Particles  int                      `json:"particles"`
	Physics    dynamo.PhysicsParameters `json:"physics"`
	Metrics    map[string]float64       `json:"metrics"`
}

var traceHeader = []string{
	"time", "frame", "particles", "contacts", "kinetic", "potential",
	"frequency", "amplitude", "filter_cutoff", "reverb_amount", "harmony",
}

// Save writes a run directory holding the metadata and the trace, and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, trace []metrics.Sample) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir, err := s.makeRunDir(&meta)
	if err != nil {
		return "", err
	}

	err = writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", fmt.Errorf("storage: write metadata: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, traceFile), func(w io.Writer) error {
		return writeTrace(w, trace)
	}); err != nil {
		return "", fmt.Errorf("storage: write trace: %w", err)
	}
	return meta.ID, nil
}

var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeFile creates path and runs write on it. A failed close is reported
// since it may mean buffered data never reached the disk.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// makeRunDir creates a fresh directory named after the preset and time,
// adding a suffix when several runs start in the same second.
func (s *Store) makeRunDir(meta *RunMetadata) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%d", name, meta.Timestamp.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			meta.ID = id
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
}

func writeTrace(w io.Writer, trace []metrics.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for _, s := range trace {
		row := []string{
			formatFloat(s.Time),
			strconv.FormatUint(s.Frame, 10),
			strconv.Itoa(s.Particles),
			strconv.Itoa(s.Contacts),
			formatFloat(s.Kinetic),
			formatFloat(s.Potential),
			formatFloat(s.Frequency),
			formatFloat(s.Amplitude),
			formatFloat(s.FilterCutoff),
			formatFloat(s.ReverbAmount),
			formatFloat(s.Harmony),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, newest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: run %q: %w", runID, dynamo.ErrNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %q: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]metrics.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: trace %q: %w", runID, dynamo.ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: trace %q: %w", runID, err)
	}
	if len(records) < 2 {
		return []metrics.Sample{}, nil
	}

	trace := make([]metrics.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: trace %q row %d: %w", runID, i+1, err)
		}
		trace = append(trace, s)
	}
	return trace, nil
}

func parseSample(rec []string) (metrics.Sample, error) {
	var s metrics.Sample
	var err error
	floats := []*float64{
		&s.Time, nil, nil, nil, &s.Kinetic, &s.Potential,
		&s.Frequency, &s.Amplitude, &s.FilterCutoff, &s.ReverbAmount, &s.Harmony,
	}
	for i, dst := range floats {
		if dst == nil {
			continue
		}
		if *dst, err = strconv.ParseFloat(rec[i], 64); err != nil {
			return s, err
		}
	}
	if s.Frame, err = strconv.ParseUint(rec[1], 10, 64); err != nil {
		return s, err
	}
	if s.Particles, err = strconv.Atoi(rec[2]); err != nil {
		return s, err
	}
	if s.Contacts, err = strconv.Atoi(rec[3]); err != nil {
		return s, err
	}
	return s, nil
}
