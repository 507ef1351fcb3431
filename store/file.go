package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/nstehr/vimy/vimy-defense/defense"
)

const fileVersion = 1

type fileHeader struct {
	Version int `json:"version"`
	Tick    int `json:"tick"`
	Players int `json:"players"`
}

// File writes every player's records as one zstd-compressed document: a JSON
// header line followed by a player -> territory -> record map. Writes go to a
// temp file that is renamed over the target, so a crash never leaves a torn
// file behind.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(ctx context.Context, player string) (map[string]defense.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	records := all[player]
	if records == nil {
		records = map[string]defense.Record{}
	}
	return records, nil
}

func (f *File) Save(ctx context.Context, player string, tick int, records map[string]defense.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	all[player] = records

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := writeDocument(tmp, tick, all); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Close() error { return nil }

func (f *File) readAll() (map[string]map[string]defense.Record, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]map[string]defense.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	dec, err := zstd.NewReader(fh)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var hdr fileHeader
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != fileVersion {
		return nil, fmt.Errorf("unsupported state file version %d", hdr.Version)
	}

	all := make(map[string]map[string]defense.Record, hdr.Players)
	if err := json.NewDecoder(br).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return all, nil
}

func writeDocument(path string, tick int, all map[string]map[string]defense.Record) error {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()

	enc, err := zstd.NewWriter(fh, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	hb, _ := json.Marshal(fileHeader{Version: fileVersion, Tick: tick, Players: len(all)})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(all); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return fh.Sync()
}
