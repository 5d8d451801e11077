package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	bolt "go.etcd.io/bbolt"
)

// ErrBatchWritten is returned when a batch is reused after Write.
var ErrBatchWritten = errors.New("storage: batch already written")

// Batch collects puts and deletes and applies them in one atomic write.
// Either every staged operation lands or none does.
type Batch interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	// Len reports the number of staged operations.
	Len() int
	Write() error
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// opList is the staging area shared by the MemDB and bbolt batches.
type opList struct {
	ops     []batchOp
	written bool
}

func (l *opList) Put(key []byte, value []byte) error {
	if l.written {
		return ErrBatchWritten
	}
	l.ops = append(l.ops, batchOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (l *opList) Delete(key []byte) error {
	if l.written {
		return ErrBatchWritten
	}
	l.ops = append(l.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (l *opList) Len() int { return len(l.ops) }

type memBatch struct {
	opList
	db *MemDB
}

// NewBatch stages writes that are applied under a single lock.
func (db *MemDB) NewBatch() Batch {
	return &memBatch{db: db}
}

func (b *memBatch) Write() error {
	if b.written {
		return ErrBatchWritten
	}
	b.written = true
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.data, string(op.key))
			continue
		}
		b.db.data[string(op.key)] = op.value
	}
	return nil
}

type levelBatch struct {
	batch   leveldb.Batch
	db      *leveldb.DB
	written bool
}

// NewBatch wraps a leveldb.Batch; Write hands it to the journal in one record.
func (ldb *LevelDB) NewBatch() Batch {
	return &levelBatch{db: ldb.db}
}

func (b *levelBatch) Put(key []byte, value []byte) error {
	if b.written {
		return ErrBatchWritten
	}
	b.batch.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	if b.written {
		return ErrBatchWritten
	}
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Len() int { return b.batch.Len() }

func (b *levelBatch) Write() error {
	if b.written {
		return ErrBatchWritten
	}
	b.written = true
	return b.db.Write(&b.batch, nil)
}

type boltBatch struct {
	opList
	db *bolt.DB
}

// NewBatch stages writes that are applied inside one bbolt transaction.
func (b *BoltDB) NewBatch() Batch {
	return &boltBatch{db: b.db}
}

func (b *boltBatch) Write() error {
	if b.written {
		return ErrBatchWritten
	}
	b.written = true
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, op := range b.ops {
			var err error
			if op.delete {
				err = bucket.Delete(op.key)
			} else {
				err = bucket.Put(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
