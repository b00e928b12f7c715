package badgerdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"

	solsimdb "github.com/solsim/solsim/db"
	"github.com/solsim/solsim/log"
)

const (
	badgerDbDiscardRatio   = 0.5 // run gc when 50% of samples can be collected
	badgerDbGcInterval     = 10 * time.Minute
	badgerDbGcSize         = 1 << 20 // 1 MB
	badgerValueLogFileSize = 1<<26 - 1
)

var logger *extendedLog

// Enforce database implements the interface
var _ solsimdb.DB = (*DB)(nil)

// DB is a badger-backed store, selectable through config when a fork larger
// than memory is wanted.
type DB struct {
	db         *badger.DB
	ctx        context.Context
	cancelFunc context.CancelFunc
	name       string
}

// NewDB creates a new database or loads an existing database in the directory.
func NewDB(dir string) (*DB, error) {
	logger = &extendedLog{Logger: log.NewLogger("db")}
	return newBadgerDB(dir)
}

func newBadgerDB(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir)

	// keep memory usage moderate: small values go to the lsm tree, value log
	// files stay small enough to GC quickly
	opts.ValueLogLoadingMode = options.FileIO
	opts.TableLoadingMode = options.FileIO
	opts.ValueThreshold = 1024
	opts.ValueLogFileSize = badgerValueLogFileSize

	opts.Logger = logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	database := &DB{
		db:         db,
		ctx:        ctx,
		cancelFunc: cancelFunc,
		name:       dir,
	}

	go database.runBadgerGC()

	return database, nil
}

func (db *DB) runBadgerGC() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	lastGcT := time.Now()
	_, lastDbVlogSize := db.db.Size()
	for {
		select {
		case <-ticker.C:
			currentDbLsmSize, currentDbVlogSize := db.db.Size()

			// gc when enough time passed or vlog grows slowly (resource is free)
			if time.Since(lastGcT) > badgerDbGcInterval || lastDbVlogSize+badgerDbGcSize > currentDbVlogSize {
				startGcT := time.Now()
				logger.Debug().Str("name", db.name).Int64("lsmSize", currentDbLsmSize).Int64("vlogSize", currentDbVlogSize).Msg("Start to GC at badger")
				err := db.db.RunValueLogGC(badgerDbDiscardRatio)
				if err != nil {
					if err == badger.ErrNoRewrite {
						logger.Debug().Str("name", db.name).Str("msg", err.Error()).Msg("Nothing to GC at badger")
					} else {
						logger.Error().Str("name", db.name).Err(err).Msg("Fail to GC at badger")
					}
					lastDbVlogSize = currentDbVlogSize
				} else {
					afterGcDbLsmSize, afterGcDbVlogSize := db.db.Size()
					logger.Debug().Str("name", db.name).Int64("lsmSize", afterGcDbLsmSize).Int64("vlogSize", afterGcDbVlogSize).
						Dur("takenTime", time.Since(startGcT)).Msg("Finish to GC at badger")
					lastDbVlogSize = afterGcDbVlogSize
				}
				lastGcT = time.Now()
			}

		case <-db.ctx.Done():
			return
		}
	}
}

func (db *DB) Type() string {
	return "badgerdb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	key = solsimdb.PrependNamespace(namespace, key)
	key = solsimdb.ConvNilToBytes(key)
	value = solsimdb.ConvNilToBytes(value)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	key = solsimdb.PrependNamespace(namespace, key)
	key = solsimdb.ConvNilToBytes(key)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	key = solsimdb.PrependNamespace(namespace, key)
	key = solsimdb.ConvNilToBytes(key)

	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		getVal, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		val = getVal
		return nil
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	return val, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	key = solsimdb.PrependNamespace(namespace, key)
	key = solsimdb.ConvNilToBytes(key)

	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (db *DB) Close() error {
	db.cancelFunc() // stop the gc goroutine
	return db.db.Close()
}

// extendedLog adapts the repo logger to badger's Logger interface.
type extendedLog struct {
	*log.Logger
}

func (l *extendedLog) Errorf(f string, v ...interface{}) {
	l.Error().Msg(strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}

func (l *extendedLog) Warningf(f string, v ...interface{}) {
	l.Warn().Msg(strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}

func (l *extendedLog) Infof(f string, v ...interface{}) {
	l.Info().Msg(strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}

func (l *extendedLog) Debugf(f string, v ...interface{}) {
	l.Debug().Msg(strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}
