package blockstore

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const directoryFileName = "directory.gob"

// directoryOnDisk is the gob-encoded snapshot of every dirEntry, plus
// the insertion-order index slices that make scan offsets stable
// across a process restart.
type directoryOnDisk struct {
	Entries    map[uint64]*dirEntry
	DepthIndex map[int16][]uint64
	LevelIndex map[int16][]uint64
}

func (b *BlockStore) directoryPath() string {
	return filepath.Join(b.dir, directoryFileName)
}

func (b *BlockStore) loadDirectory() error {
	raw, err := os.ReadFile(b.directoryPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read directory")
	}
	var onDisk directoryOnDisk
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&onDisk); err != nil {
		return errors.Wrap(err, "decode directory")
	}
	b.dirMu.Lock()
	if onDisk.Entries != nil {
		b.directory = onDisk.Entries
	}
	b.dirMu.Unlock()

	b.idxMu.Lock()
	if onDisk.DepthIndex != nil {
		b.depthIndex = onDisk.DepthIndex
	}
	if onDisk.LevelIndex != nil {
		b.levelIndex = onDisk.LevelIndex
	}
	for level, fps := range b.levelIndex {
		remaining := 0
		for _, fp := range fps {
			if e, ok := b.directory[fp]; ok && !e.Solved {
				remaining++
			}
		}
		b.unsolvedRemaining[level] = remaining
	}
	b.idxMu.Unlock()
	return nil
}

func (b *BlockStore) persistDirectory() error {
	b.dirMu.RLock()
	entries := make(map[uint64]*dirEntry, len(b.directory))
	for k, v := range b.directory {
		cp := *v
		entries[k] = &cp
	}
	b.dirMu.RUnlock()

	b.idxMu.Lock()
	depthIndex := make(map[int16][]uint64, len(b.depthIndex))
	for k, v := range b.depthIndex {
		depthIndex[k] = append([]uint64(nil), v...)
	}
	levelIndex := make(map[int16][]uint64, len(b.levelIndex))
	for k, v := range b.levelIndex {
		levelIndex[k] = append([]uint64(nil), v...)
	}
	b.idxMu.Unlock()

	var buf bytes.Buffer
	onDisk := directoryOnDisk{Entries: entries, DepthIndex: depthIndex, LevelIndex: levelIndex}
	if err := gob.NewEncoder(&buf).Encode(&onDisk); err != nil {
		return errors.Wrap(err, "encode directory")
	}
	path := b.directoryPath()
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create directory file")
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return errors.Wrap(err, "write directory file")
	}
	if !b.fastMode {
		if err := f.Sync(); err != nil {
			f.Close()
			return errors.Wrap(err, "fsync directory file")
		}
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close directory file")
	}
	return os.Rename(tmp, path)
}
