package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/types"
)

const (
	historyBucket    = "history"
	defaultKeepItems = 500
	keySize          = 8 + 16 // big-endian unix nanos + uuid
)

// HistoryStore is the persistence surface used by the CLI
type HistoryStore interface {
	SaveResults(display string, results []*types.SelectionResult) ([]*types.HistoryRecord, error)
	GetHistory(options HistoryOptions) ([]*types.HistoryRecord, error)
	Count() (int, error)
	Clear() error
	Close() error
}

// HistoryOptions filters history retrieval
type HistoryOptions struct {
	Limit     int
	Selection string
	Since     time.Time
}

// BoltStorage keeps selection query results in a BoltDB file
type BoltStorage struct {
	db        *bbolt.DB
	keepItems int
	logger    *zap.Logger
	now       func() time.Time
}

var _ HistoryStore = (*BoltStorage)(nil)

// StorageConfig holds configuration for BoltStorage initialization
type StorageConfig struct {
	DBPath    string
	KeepItems int
	Logger    *zap.Logger
}

// NewBoltStorage opens (creating if needed) the history database
func NewBoltStorage(config StorageConfig) (*BoltStorage, error) {
	keepItems := config.KeepItems
	if keepItems <= 0 {
		keepItems = defaultKeepItems
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(config.DBPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(historyBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	logger.Debug("BoltStorage initialized",
		zap.String("db_path", config.DBPath),
		zap.Int("keep_items", keepItems))

	return &BoltStorage{
		db:        db,
		keepItems: keepItems,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// SaveResults stores one record per result and trims the oldest records
// beyond the configured limit
func (s *BoltStorage) SaveResults(display string, results []*types.SelectionResult) ([]*types.HistoryRecord, error) {
	recorded := s.now()
	records := make([]*types.HistoryRecord, 0, len(results))

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(historyBucket))
		for i, result := range results {
			id := uuid.New()
			record := &types.HistoryRecord{
				ID:       id.String(),
				Display:  display,
				Recorded: recorded,
				Result:   result,
			}

			encoded, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			// results of one run share a timestamp; i keeps them ordered
			if err := b.Put(recordKey(recorded.Add(time.Duration(i)), id), encoded); err != nil {
				return err
			}
			records = append(records, record)
		}
		return s.trim(b)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	s.logger.Debug("History saved", zap.Int("records", len(records)))
	return records, nil
}

// trim deletes the oldest records past keepItems
func (s *BoltStorage) trim(b *bbolt.Bucket) error {
	excess := countKeys(b) - s.keepItems
	if excess <= 0 {
		return nil
	}

	var stale [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}

	s.logger.Debug("History trimmed", zap.Int("deleted", len(stale)))
	return nil
}

// GetHistory returns records newest first
func (s *BoltStorage) GetHistory(options HistoryOptions) ([]*types.HistoryRecord, error) {
	var records []*types.HistoryRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(historyBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if !options.Since.IsZero() && keyTime(k).Before(options.Since) {
				break
			}

			var record types.HistoryRecord
			if err := json.Unmarshal(v, &record); err != nil {
				s.logger.Warn("Skipping unreadable history record", zap.Error(err))
				continue
			}
			if options.Selection != "" && (record.Result == nil || record.Result.Query.Name != options.Selection) {
				continue
			}

			records = append(records, &record)
			if options.Limit > 0 && len(records) >= options.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records
func (s *BoltStorage) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = countKeys(tx.Bucket([]byte(historyBucket)))
		return nil
	})
	return n, err
}

// Clear removes every record
func (s *BoltStorage) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(historyBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(historyBucket))
		return err
	})
}

// Close closes the database
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// countKeys walks the bucket; Stats would miss writes not yet committed
func countKeys(b *bbolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

func recordKey(t time.Time, id uuid.UUID) []byte {
	key := make([]byte, keySize)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	copy(key[8:], id[:])
	return key
}

func keyTime(key []byte) time.Time {
	if len(key) < 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(key)))
}
