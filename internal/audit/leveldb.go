package audit

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBLog persists the audit trail across restarts. Entries are stored
// under big-endian sequence keys so iteration order equals insertion order.
type LevelDBLog struct {
	mu  sync.Mutex
	db  *leveldb.DB
	seq uint64
}

func OpenLevelDBLog(path string) (*LevelDBLog, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	l := &LevelDBLog{db: db}

	// Resume the sequence from the last key present.
	iter := db.NewIterator(nil, nil)
	if iter.Last() {
		l.seq = binary.BigEndian.Uint64(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *LevelDBLog) Append(_ context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, l.seq)
	return l.db.Put(key, raw, nil)
}

func (l *LevelDBLog) List(_ context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	iter := l.db.NewIterator(nil, nil)
	for iter.Next() {
		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			iter.Release()
			return nil, err
		}
		out = append(out, entry)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *LevelDBLog) Close() error { return l.db.Close() }
