package model

import "gorm.io/plugin/soft_delete"

// SnapshotEntry is one saved environment tree.
type SnapshotEntry struct {
	ID int64 `json:"id" gorm:"primarykey"`
	// Name the tree was saved under
	Label string `json:"label" gorm:"column:label;index:idx_label,unique"`
	// Structural fingerprint of the tree, 32 hex digits
	Fingerprint string `json:"fingerprint" gorm:"column:fingerprint;index:idx_fingerprint"`
	// JSON encoded mbe.Snapshot
	Body string `json:"body"`
	// Names visible at the top level of the tree
	Names []*NameEntry `json:"names" gorm:"foreignKey:PID"`

	CreatedAt  int64
	LastAccess int64 `gorm:"column:last_access"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (SnapshotEntry) TableName() string {
	return "snapshot_entry"
}

// NameEntry records that a snapshot mentions a name at its top level.
type NameEntry struct {
	ID int64 `gorm:"primarykey"`
	// Spelling of the name
	Name string `gorm:"column:name;index:idx_name"`
	// Whether the name only occurs under a repetition
	Repeated bool `gorm:"column:repeated"`
	// ID of the owning snapshot
	PID int64 `json:"pid" gorm:"column:pid;index:idx_pid"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (NameEntry) TableName() string {
	return "name_entry"
}
