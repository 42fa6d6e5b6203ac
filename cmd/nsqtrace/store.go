package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key layout of the trace store.
const (
	prefixRun  = "run:"  // run:<id>:<frame> -> frameRecord JSON
	prefixMeta = "meta:" // meta:<id> -> runMeta JSON
	keyLatest  = "latest"
)

var (
	errNoBaseline       = errors.New("baseline run not found")
	errBaselineConfig   = errors.New("baseline run used a different configuration")
	errBaselineMismatch = errors.New("pulses differ from the baseline run")
)

// runMeta is the configuration a run was traced with. Runs are only comparable
// when it matches.
type runMeta struct {
	Rate       int    `json:"rate"`
	Complexity int    `json:"complexity"`
	Delay      int    `json:"delay"`
	Warping    bool   `json:"warping"`
	Signal     string `json:"signal"`
	Frames     int    `json:"frames"`
}

func metaFor(opts options) runMeta {
	return runMeta{
		Rate:       opts.rate,
		Complexity: opts.complexity,
		Delay:      opts.delay,
		Warping:    opts.warping,
		Signal:     opts.signal,
		Frames:     opts.frames,
	}
}

// traceStore keeps the frame records of past runs in a LevelDB database.
type traceStore struct {
	db *leveldb.DB
}

func openStore(path string) (*traceStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open trace store %s: %w", path, err)
	}
	return &traceStore{db: db}, nil
}

func (s *traceStore) Close() error {
	return s.db.Close()
}

func frameKey(runID string, frame int) []byte {
	return []byte(fmt.Sprintf("%s%s:%06d", prefixRun, runID, frame))
}

// saveRun writes a run and marks it as the latest in one batch.
func (s *traceStore) saveRun(runID string, meta runMeta, records []frameRecord) error {
	batch := new(leveldb.Batch)
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	batch.Put([]byte(prefixMeta+runID), data)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		batch.Put(frameKey(runID, rec.Frame), data)
	}
	batch.Put([]byte(keyLatest), []byte(runID))
	return s.db.Write(batch, nil)
}

// resolve maps "latest" to the id of the last saved run.
func (s *traceStore) resolve(runID string) (string, error) {
	if runID != keyLatest {
		return runID, nil
	}
	id, err := s.db.Get([]byte(keyLatest), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", errNoBaseline
	}
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// loadRun returns the configuration and frame records of a saved run, in
// frame order.
func (s *traceStore) loadRun(runID string) (runMeta, []frameRecord, error) {
	var meta runMeta
	data, err := s.db.Get([]byte(prefixMeta+runID), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return meta, nil, fmt.Errorf("%w: %s", errNoBaseline, runID)
	}
	if err != nil {
		return meta, nil, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, nil, fmt.Errorf("run %s: %w", runID, err)
	}

	var records []frameRecord
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixRun+runID+":")), nil)
	defer iter.Release()
	for iter.Next() {
		var rec frameRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return meta, nil, fmt.Errorf("run %s key %s: %w", runID, iter.Key(), err)
		}
		records = append(records, rec)
	}
	return meta, records, iter.Error()
}

// baseline holds a saved run to compare a new run against.
type baseline struct {
	runID   string
	meta    runMeta
	records []frameRecord
}

func (s *traceStore) loadBaseline(runID string) (*baseline, error) {
	id, err := s.resolve(runID)
	if err != nil {
		return nil, err
	}
	meta, records, err := s.loadRun(id)
	if err != nil {
		return nil, err
	}
	return &baseline{runID: id, meta: meta, records: records}, nil
}

// compare returns the frames whose pulses or cost differ from the baseline.
func (b *baseline) compare(meta runMeta, records []frameRecord) ([]int, error) {
	if b.meta != meta {
		return nil, fmt.Errorf("%w: %+v, now %+v", errBaselineConfig, b.meta, meta)
	}
	if len(b.records) != len(records) {
		return nil, fmt.Errorf("%w: baseline has %d frames, run has %d", errBaselineConfig, len(b.records), len(records))
	}
	var diff []int
	for i, rec := range records {
		old := b.records[i]
		if old.Frame != rec.Frame || old.PulseHash != rec.PulseHash || old.RDQ10 != rec.RDQ10 || old.Seed != rec.Seed {
			diff = append(diff, rec.Frame)
		}
	}
	return diff, nil
}
