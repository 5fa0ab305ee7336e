// Package models defines the GORM persistence models for Roundtable.
package models

import "time"

// Document is one versioned text artifact produced during a discussion:
// a design doc, a math validation report, meeting notes. Tags and Metadata
// are stored as JSON strings.
type Document struct {
	ID             string `gorm:"primaryKey;size:36"`
	Title          string `gorm:"size:255;not null;index"`
	Content        string `gorm:"type:text;not null"`
	Format         string `gorm:"size:16;not null"` // markdown, json, yaml, text
	Tags           string `gorm:"type:text"`        // JSON array
	Metadata       string `gorm:"type:text"`        // JSON object
	CreatedBy      string `gorm:"size:64;index"`
	LastModifiedBy string `gorm:"size:64"`
	Version        int    `gorm:"not null;default:1"`
	Archived       bool   `gorm:"not null;default:false;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Versions []DocumentVersion `gorm:"foreignKey:DocumentID"`
}

// DocumentVersion is an append-only snapshot of a document at one version
// number. Every create and update appends exactly one row; restores append
// a fresh row rather than rewriting history.
type DocumentVersion struct {
	VersionID         string `gorm:"primaryKey;size:36"`
	DocumentID        string `gorm:"size:36;not null;index:idx_doc_version"`
	Version           int    `gorm:"not null;index:idx_doc_version"`
	Content           string `gorm:"type:text;not null"`
	Metadata          string `gorm:"type:text"`
	ChangeDescription string `gorm:"size:512"`
	CreatedBy         string `gorm:"size:64"`
	CreatedAt         time.Time
}
