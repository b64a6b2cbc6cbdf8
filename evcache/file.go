package evcache

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const fileSuffix = ".data"

// FileStore keeps one file per key, named <key>.data, in a directory that
// must already exist.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+fileSuffix)
}

func (f *FileStore) Get(key string) (float64, bool) {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("key", key).Msg("ev-cache-read-failed")
		}
		return 0, false
	}
	ev, err := DecodeEV(b)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("ev-cache-corrupt-entry")
		return 0, false
	}
	return ev, true
}

// Put writes to a temporary file and renames it into place, so a reader
// never sees a partially written payload.
func (f *FileStore) Put(key string, ev float64) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(EncodeEV(ev)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileStore) Close() error {
	return nil
}
