package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	receiptBucket = "receipts"
	tripBucket    = "trips"
)

// ErrNotFound is returned when a receipt or trip does not exist.
var ErrNotFound = errors.New("not found")

// DB defines the interface for database operations
type DB interface {
	// SaveReceipt creates or replaces a receipt
	SaveReceipt(receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID
	GetReceipt(id string) (*Receipt, error)

	// ListReceipts returns all receipts, newest first
	ListReceipts() ([]*Receipt, error)

	// DeleteReceipt removes a receipt
	DeleteReceipt(id string) error

	// SaveTrip creates or replaces a trip
	SaveTrip(trip *Trip) error

	// GetTrip retrieves a trip by ID
	GetTrip(id string) (*Trip, error)

	// ListTrips returns all trips, newest first
	ListTrips() ([]*Trip, error)

	// AssignTrip saves a trip together with its updated receipts; either
	// every record is written or none is
	AssignTrip(trip *Trip, receipts []*Receipt) error

	// Close closes the database
	Close() error
}

// BoltDB implements DB on a single bbolt file with one bucket per record
// type, storing records as JSON.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the database at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptBucket, tripBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) put(bucket, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", bucket, err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(id), data)
	})
}

func (b *BoltDB) get(bucket, id string, v any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s %s: %w", bucket, id, ErrNotFound)
		}
		return json.Unmarshal(data, v)
	})
}

// SaveReceipt creates or replaces a receipt.
func (b *BoltDB) SaveReceipt(receipt *Receipt) error {
	return b.put(receiptBucket, receipt.ID, receipt)
}

// GetReceipt retrieves a receipt by ID.
func (b *BoltDB) GetReceipt(id string) (*Receipt, error) {
	var receipt Receipt
	if err := b.get(receiptBucket, id, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceipts returns all receipts, newest first.
func (b *BoltDB) ListReceipts() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(receiptBucket)).ForEach(func(_, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt.
func (b *BoltDB) DeleteReceipt(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%s %s: %w", receiptBucket, id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// SaveTrip creates or replaces a trip.
func (b *BoltDB) SaveTrip(trip *Trip) error {
	return b.put(tripBucket, trip.ID, trip)
}

// GetTrip retrieves a trip by ID.
func (b *BoltDB) GetTrip(id string) (*Trip, error) {
	var trip Trip
	if err := b.get(tripBucket, id, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// ListTrips returns all trips, newest first.
func (b *BoltDB) ListTrips() ([]*Trip, error) {
	trips := make([]*Trip, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tripBucket)).ForEach(func(_, v []byte) error {
			var trip Trip
			if err := json.Unmarshal(v, &trip); err != nil {
				return fmt.Errorf("unmarshaling trip: %w", err)
			}
			trips = append(trips, &trip)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

// AssignTrip writes trip and receipts in a single transaction. A receipt
// deleted since it was read fails the whole assignment with ErrNotFound.
func (b *BoltDB) AssignTrip(trip *Trip, receipts []*Receipt) error {
	tripData, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("marshaling trip: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptBucket))
		for _, receipt := range receipts {
			if bucket.Get([]byte(receipt.ID)) == nil {
				return fmt.Errorf("%s %s: %w", receiptBucket, receipt.ID, ErrNotFound)
			}
			data, err := json.Marshal(receipt)
			if err != nil {
				return fmt.Errorf("marshaling receipt: %w", err)
			}
			if err := bucket.Put([]byte(receipt.ID), data); err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(tripBucket)).Put([]byte(trip.ID), tripData)
	})
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
