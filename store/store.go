// Package store keeps environment trees in a sqlite database, keyed by label.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mbe-go/mbe"
	"mbe-go/model"
	"mbe-go/name"
)

var ErrNotFound = errors.New("snapshot not found")

type Store struct {
	db *gorm.DB
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&model.SnapshotEntry{})
	if err != nil {
		return err
	}
	err = db.AutoMigrate(&model.NameEntry{})
	if err != nil {
		return err
	}
	return nil
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

func (this *Store) Close() error {
	sqlDB, err := this.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores e under label, replacing whatever was saved there before
// (including a forgotten snapshot).
func (this *Store) Save(label string, e mbe.Env[string]) (*model.SnapshotEntry, error) {
	body, err := json.Marshal(e.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", label, err)
	}
	now := time.Now().Unix()

	var entry model.SnapshotEntry
	err = this.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("`label` = ?", label).First(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = model.SnapshotEntry{Label: label, CreatedAt: now}
		case err != nil:
			return err
		default:
			if err := tx.Unscoped().Where("`pid` = ?", entry.ID).Delete(&model.NameEntry{}).Error; err != nil {
				return err
			}
		}

		entry.Fingerprint = mbe.FingerprintHex(e)
		entry.Body = string(body)
		entry.LastAccess = now
		entry.Deleted = 0
		entry.Names = nil
		if err := tx.Unscoped().Save(&entry).Error; err != nil {
			return err
		}

		names := make([]*model.NameEntry, 0)
		for _, n := range e.Names() {
			_, repeated := e.Location(n)
			if _, ok := e.Leaf(n); ok {
				repeated = false
			}
			names = append(names, &model.NameEntry{Name: n.String(), Repeated: repeated, PID: entry.ID})
		}
		if len(names) == 0 {
			return nil
		}
		return tx.Create(&names).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", label, err)
	}
	return &entry, nil
}

func (this *Store) find(label string) (*model.SnapshotEntry, error) {
	var entry model.SnapshotEntry
	err := this.db.Where("`label` = ?", label).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", label, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", label, err)
	}
	return &entry, nil
}

// Load restores the tree saved under label, interning its names in in.
func (this *Store) Load(label string, in *name.Interner) (mbe.Env[string], error) {
	entry, err := this.find(label)
	if err != nil {
		return mbe.Env[string]{}, err
	}
	if err := this.db.Model(entry).Update("last_access", time.Now().Unix()).Error; err != nil {
		return mbe.Env[string]{}, fmt.Errorf("touch %s: %w", label, err)
	}

	var snap mbe.Snapshot[string]
	if err := json.Unmarshal([]byte(entry.Body), &snap); err != nil {
		return mbe.Env[string]{}, fmt.Errorf("decode %s: %w", label, err)
	}
	e, err := mbe.Restore(snap, in)
	if err != nil {
		return mbe.Env[string]{}, fmt.Errorf("restore %s: %w", label, err)
	}
	return e, nil
}

// Entry returns the stored row for label without decoding it.
func (this *Store) Entry(label string) (*model.SnapshotEntry, error) {
	return this.find(label)
}

// Forget soft-deletes the snapshot saved under label.
func (this *Store) Forget(label string) error {
	res := this.db.Where("`label` = ?", label).Delete(&model.SnapshotEntry{})
	if res.Error != nil {
		return fmt.Errorf("forget %s: %w", label, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", label, ErrNotFound)
	}
	return nil
}

// List returns the labels of all live snapshots, sorted.
func (this *Store) List() ([]string, error) {
	var labels []string
	if err := this.db.Model(&model.SnapshotEntry{}).Order("label").Pluck("label", &labels).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return labels, nil
}

// FindByName returns the labels of live snapshots mentioning n at their top
// level, sorted.
func (this *Store) FindByName(n string) ([]string, error) {
	var labels []string
	err := this.db.Model(&model.SnapshotEntry{}).
		Joins("JOIN name_entry ON name_entry.pid = snapshot_entry.id").
		Where("name_entry.name = ?", n).
		Order("snapshot_entry.label").
		Distinct().
		Pluck("snapshot_entry.label", &labels).Error
	if err != nil {
		return nil, fmt.Errorf("find name %s: %w", n, err)
	}
	return labels, nil
}

// Prune forgets at most limit snapshots not loaded or saved within maxAge,
// returning how many it forgot.
func (this *Store) Prune(maxAge time.Duration, limit int) (int, error) {
	var expired []*model.SnapshotEntry
	cutoff := time.Now().Add(-maxAge).Unix()
	if err := this.db.Model(&model.SnapshotEntry{}).Where("`last_access` < ?", cutoff).
		Limit(limit).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}
	ids := make([]int64, 0, len(expired))
	for _, entry := range expired {
		ids = append(ids, entry.ID)
	}
	res := this.db.Delete(&model.SnapshotEntry{}, ids)
	if res.Error != nil {
		return 0, fmt.Errorf("prune: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
