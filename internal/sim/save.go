package sim

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"
)

// SaveVersion is bumped whenever SaveState changes shape.
const SaveVersion = 1

// SaveState is the on-disk form of a world.
type SaveState struct {
	Version     int              `json:"version"`
	Seed        int64            `json:"seed"`
	Tick        int64            `json:"tick"`
	Temperature float64          `json:"temperature"`
	Processors  []SavedProcessor `json:"processors"`
	Snares      []SavedSnare     `json:"snares,omitempty"`
	Products    map[string]int   `json:"products,omitempty"`
}

type SavedProcessor struct {
	Name    string           `json:"name"`
	Fuel    bool             `json:"fuel"`
	Burning bool             `json:"burning,omitempty"`
	Record  processor.Record `json:"record"`
}

type SavedSnare struct {
	Name   string       `json:"name"`
	Record snare.Record `json:"record"`
}

// Snapshot captures the world. Creatures standing on snares are not saved.
func (w *World) Snapshot() SaveState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *World) snapshot() SaveState {
	st := SaveState{
		Version:     SaveVersion,
		Seed:        w.seed,
		Tick:        w.tick,
		Temperature: w.temperature,
		Processors:  make([]SavedProcessor, 0, len(w.siteOrder)),
		Products:    make(map[string]int, len(w.products)),
	}
	for _, k := range w.siteOrder {
		s := w.sites[k]
		st.Processors = append(st.Processors, SavedProcessor{
			Name:    s.Name,
			Fuel:    s.env.fuel,
			Burning: s.env.burning,
			Record:  s.Processor().Snapshot(),
		})
	}
	for _, k := range w.snareOrder {
		st.Snares = append(st.Snares, SavedSnare{Name: k, Record: w.snares[k].Snare.Snapshot()})
	}
	for k, v := range w.products {
		st.Products[k] = v
	}
	return st
}

// Restore replaces the world with st. On error the world is unchanged.
func (w *World) Restore(st SaveState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.restore(st)
}

func (w *World) restore(st SaveState) error {
	if st.Version != SaveVersion {
		return perr.WithField(perr.InvalidArgf("unsupported save version %d", st.Version), "version")
	}
	if st.Tick < 0 {
		return perr.WithField(perr.Consistencyf("negative world tick %d", st.Tick), "tick")
	}

	type backup struct {
		seed, tick, placed int64
		temperature        float64
		sites              map[string]*Site
		siteOrder          []string
		snares             map[string]*SnareSite
		snareOrder         []string
		products           map[string]int
	}
	prev := backup{w.seed, w.tick, w.placed, w.temperature, w.sites, w.siteOrder, w.snares, w.snareOrder, w.products}
	rollback := func() {
		w.seed, w.tick, w.placed, w.temperature = prev.seed, prev.tick, prev.placed, prev.temperature
		w.sites, w.siteOrder, w.snares, w.snareOrder = prev.sites, prev.siteOrder, prev.snares, prev.snareOrder
		w.products = prev.products
	}

	w.seed, w.tick, w.placed, w.temperature = st.Seed, st.Tick, 0, st.Temperature
	w.sites, w.siteOrder = make(map[string]*Site), nil
	w.snares, w.snareOrder = make(map[string]*SnareSite), nil
	w.products = make(map[string]int, len(st.Products))

	for _, sp := range st.Processors {
		rec := sp.Record
		if err := w.place(string(rec.Kind), sp.Name, &rec, nil); err != nil {
			rollback()
			return err
		}
		s := w.sites[key(sp.Name)]
		s.env.fuel = sp.Fuel
		s.env.burning = sp.Burning
	}
	for _, ss := range st.Snares {
		rec := ss.Record
		if err := w.place(snareKind, ss.Name, nil, &rec); err != nil {
			rollback()
			return err
		}
	}
	for k, v := range st.Products {
		w.products[k] = v
	}
	w.events = nil
	w.lastEntity = ""
	clear(w.sched.reserved)
	return nil
}

// Save writes the world to path as indented JSON, replacing any file there.
func (w *World) Save(path string) error {
	w.mu.Lock()
	st := w.snapshot()
	w.mu.Unlock()
	return w.writeSave(path, st)
}

func (w *World) writeSave(path string, st SaveState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode save")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "world-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	w.log.Info().Str("path", path).Int("processors", len(st.Processors)).Msg("world saved")
	return nil
}

// Load replaces the world with the one saved at path.
func (w *World) Load(path string) error {
	st, err := readSave(path)
	if err != nil {
		return err
	}
	if err := w.Restore(st); err != nil {
		return err
	}
	w.log.Info().Str("path", path).Int("processors", len(st.Processors)).Msg("world loaded")
	return nil
}

func readSave(path string) (SaveState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return SaveState{}, perr.WithField(perr.NotFoundf("no save at %s", path), "path")
	}
	if err != nil {
		return SaveState{}, err
	}
	var st SaveState
	if err := json.Unmarshal(data, &st); err != nil {
		return SaveState{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse save %s", path)
	}
	return st, nil
}
