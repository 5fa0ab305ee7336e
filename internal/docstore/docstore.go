// Package docstore implements the versioned document store backing
// discussion deliverables: design documents, review reports, meeting notes.
//
// Every create and update appends one immutable version row. Restoring an
// old version applies it as a new update and therefore produces a new
// version number; history is never rewritten.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/roundtable/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a document or version does not exist.
var ErrNotFound = errors.New("docstore: not found")

// validFormats is the closed set of accepted document formats.
var validFormats = map[string]bool{
	"markdown": true,
	"json":     true,
	"yaml":     true,
	"text":     true,
}

// Document is the caller-facing view of a stored document, with tags and
// metadata decoded from their JSON column representation.
type Document struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Format         string         `json:"format"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	CreatedBy      string         `json:"createdBy"`
	LastModifiedBy string         `json:"lastModifiedBy"`
	Version        int            `json:"version"`
	Archived       bool           `json:"archived"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Version is one history entry for a document, newest-first in listings.
type Version struct {
	VersionID         string         `json:"versionId"`
	DocumentID        string         `json:"documentId"`
	Version           int            `json:"version"`
	Content           string         `json:"content"`
	Metadata          map[string]any `json:"metadata"`
	ChangeDescription string         `json:"changeDescription,omitempty"`
	CreatedBy         string         `json:"createdBy"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// CreateRequest holds the fields for creating a document.
type CreateRequest struct {
	Title     string
	Content   string
	Format    string
	Tags      []string
	Metadata  map[string]any
	CreatedBy string
}

// UpdateRequest holds a partial update. Nil pointer fields are left
// untouched; Metadata entries are merged into the existing metadata.
type UpdateRequest struct {
	Title             *string
	Content           *string
	Tags              []string // nil keeps existing tags
	Metadata          map[string]any
	LastModifiedBy    string
	ChangeDescription string
}

// Filter selects documents for Search. Zero values mean "no constraint".
type Filter struct {
	Query         string // free text over title, content, and tags
	Tags          []string
	Format        string
	CreatedBy     string
	Archived      *bool
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// Stats summarizes store contents.
type Stats struct {
	TotalDocuments    int64     `json:"totalDocuments"`
	ArchivedDocuments int64     `json:"archivedDocuments"`
	TotalVersions     int64     `json:"totalVersions"`
	LastModified      time.Time `json:"lastModified"`
}

// Store is the GORM-backed document store.
type Store struct {
	db *gorm.DB
}

// New creates a Store on the given database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create stores a new document at version 1 and appends its initial
// version record.
func (s *Store) Create(req CreateRequest) (*Document, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("docstore: title is required")
	}
	if req.Content == "" {
		return nil, fmt.Errorf("docstore: content is required")
	}
	if !validFormats[req.Format] {
		return nil, fmt.Errorf("docstore: invalid format %q", req.Format)
	}

	now := time.Now()
	doc := models.Document{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Content:        req.Content,
		Format:         req.Format,
		Tags:           marshalTags(req.Tags),
		Metadata:       marshalMeta(req.Metadata),
		CreatedBy:      req.CreatedBy,
		LastModifiedBy: req.CreatedBy,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		return appendVersion(tx, &doc, "Initial creation")
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: create: %w", err)
	}
	return toView(&doc), nil
}

// Get returns a document by id, or ErrNotFound.
func (s *Store) Get(id string) (*Document, error) {
	var doc models.Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get %s: %w", id, err)
	}
	return toView(&doc), nil
}

// Update applies a partial update, bumps the version number, and appends a
// version record snapshotting the new state.
func (s *Store) Update(id string, req UpdateRequest) (*Document, error) {
	var doc models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doc, "id = ?", id).Error; err != nil {
			return err
		}

		if req.Title != nil {
			doc.Title = *req.Title
		}
		if req.Content != nil {
			doc.Content = *req.Content
		}
		if req.Tags != nil {
			doc.Tags = marshalTags(req.Tags)
		}
		if req.Metadata != nil {
			merged := unmarshalMeta(doc.Metadata)
			if merged == nil {
				merged = make(map[string]any)
			}
			for k, v := range req.Metadata {
				merged[k] = v
			}
			doc.Metadata = marshalMeta(merged)
		}
		doc.LastModifiedBy = req.LastModifiedBy
		doc.Version++
		doc.UpdatedAt = time.Now()

		if err := tx.Save(&doc).Error; err != nil {
			return err
		}
		return appendVersion(tx, &doc, req.ChangeDescription)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: update %s: %w", id, err)
	}
	return toView(&doc), nil
}

// List returns documents ordered by most recent update. Archived documents
// are omitted unless includeArchived is set.
func (s *Store) List(includeArchived bool) ([]Document, error) {
	q := s.db.Order("updated_at DESC")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var docs []models.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("docstore: list: %w", err)
	}
	return toViews(docs), nil
}

// Search returns documents matching the filter, ordered by most recent
// update. The free-text query matches title, content, and tags; the tag
// filter matches documents carrying any of the given tags.
func (s *Store) Search(f Filter) ([]Document, error) {
	q := s.db.Order("updated_at DESC")

	if f.Archived != nil {
		q = q.Where("archived = ?", *f.Archived)
	}
	if f.Query != "" {
		pat := "%" + f.Query + "%"
		q = q.Where("title LIKE ? OR content LIKE ? OR tags LIKE ?", pat, pat, pat)
	}
	if len(f.Tags) > 0 {
		var conds []string
		var args []any
		for _, tag := range f.Tags {
			conds = append(conds, "tags LIKE ?")
			args = append(args, "%"+quoteTag(tag)+"%")
		}
		q = q.Where(strings.Join(conds, " OR "), args...)
	}
	if f.Format != "" {
		q = q.Where("format = ?", f.Format)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if !f.CreatedAfter.IsZero() {
		q = q.Where("created_at >= ?", f.CreatedAfter)
	}
	if !f.CreatedBefore.IsZero() {
		q = q.Where("created_at <= ?", f.CreatedBefore)
	}

	var docs []models.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("docstore: search: %w", err)
	}
	return toViews(docs), nil
}

// Versions returns a document's full history, newest first.
func (s *Store) Versions(id string) ([]Version, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	var rows []models.DocumentVersion
	if err := s.db.Where("document_id = ?", id).
		Order("version DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: versions %s: %w", id, err)
	}
	out := make([]Version, len(rows))
	for i, row := range rows {
		out[i] = toVersionView(&row)
	}
	return out, nil
}

// GetVersion returns one specific history entry.
func (s *Store) GetVersion(id string, version int) (*Version, error) {
	var row models.DocumentVersion
	if err := s.db.Where("document_id = ? AND version = ?", id, version).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: version %s@%d: %w", id, version, err)
	}
	v := toVersionView(&row)
	return &v, nil
}

// RestoreVersion applies a historical version's content and metadata as a
// new update. The result carries a fresh version number; the old version
// row is untouched.
func (s *Store) RestoreVersion(id string, version int, restoredBy string) (*Document, error) {
	target, err := s.GetVersion(id, version)
	if err != nil {
		return nil, err
	}
	return s.Update(id, UpdateRequest{
		Content:           &target.Content,
		Metadata:          target.Metadata,
		LastModifiedBy:    restoredBy,
		ChangeDescription: fmt.Sprintf("Restored to version %d", version),
	})
}

// Archive soft-deletes a document. It stays in the store and its history
// is preserved.
func (s *Store) Archive(id string) error {
	return s.setArchived(id, true)
}

// Unarchive reverses a soft delete.
func (s *Store) Unarchive(id string) error {
	return s.setArchived(id, false)
}

func (s *Store) setArchived(id string, archived bool) error {
	res := s.db.Model(&models.Document{}).Where("id = ?", id).
		Updates(map[string]any{"archived": archived, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("docstore: archive %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge irreversibly deletes a document and its entire version history.
func (s *Store) Purge(id string) error {
	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Delete(&models.DocumentVersion{}, "document_id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("docstore: purge %s: %w", id, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats summarizes the store.
func (s *Store) GetStats() (*Stats, error) {
	var st Stats
	if err := s.db.Model(&models.Document{}).Count(&st.TotalDocuments).Error; err != nil {
		return nil, fmt.Errorf("docstore: stats: %w", err)
	}
	if err := s.db.Model(&models.Document{}).Where("archived = ?", true).
		Count(&st.ArchivedDocuments).Error; err != nil {
		return nil, fmt.Errorf("docstore: stats: %w", err)
	}
	if err := s.db.Model(&models.DocumentVersion{}).Count(&st.TotalVersions).Error; err != nil {
		return nil, fmt.Errorf("docstore: stats: %w", err)
	}
	var latest models.Document
	if err := s.db.Order("updated_at DESC").First(&latest).Error; err == nil {
		st.LastModified = latest.UpdatedAt
	}
	return &st, nil
}

// appendVersion writes the version row snapshotting doc's current state.
func appendVersion(tx *gorm.DB, doc *models.Document, changeDescription string) error {
	return tx.Create(&models.DocumentVersion{
		VersionID:         uuid.NewString(),
		DocumentID:        doc.ID,
		Version:           doc.Version,
		Content:           doc.Content,
		Metadata:          doc.Metadata,
		ChangeDescription: changeDescription,
		CreatedBy:         doc.LastModifiedBy,
		CreatedAt:         doc.UpdatedAt,
	}).Error
}

// quoteTag builds the JSON-encoded form of a tag for LIKE matching against
// the tags column.
func quoteTag(tag string) string {
	data, _ := json.Marshal(tag)
	return string(data)
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func marshalMeta(meta map[string]any) string {
	if meta == nil {
		meta = map[string]any{}
	}
	data, _ := json.Marshal(meta)
	return string(data)
}

func unmarshalTags(s string) []string {
	var tags []string
	if s != "" {
		json.Unmarshal([]byte(s), &tags)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func unmarshalMeta(s string) map[string]any {
	var meta map[string]any
	if s != "" {
		json.Unmarshal([]byte(s), &meta)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta
}

func toView(doc *models.Document) *Document {
	return &Document{
		ID:             doc.ID,
		Title:          doc.Title,
		Content:        doc.Content,
		Format:         doc.Format,
		Tags:           unmarshalTags(doc.Tags),
		Metadata:       unmarshalMeta(doc.Metadata),
		CreatedBy:      doc.CreatedBy,
		LastModifiedBy: doc.LastModifiedBy,
		Version:        doc.Version,
		Archived:       doc.Archived,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func toViews(docs []models.Document) []Document {
	out := make([]Document, len(docs))
	for i := range docs {
		out[i] = *toView(&docs[i])
	}
	return out
}

func toVersionView(row *models.DocumentVersion) Version {
	return Version{
		VersionID:         row.VersionID,
		DocumentID:        row.DocumentID,
		Version:           row.Version,
		Content:           row.Content,
		Metadata:          unmarshalMeta(row.Metadata),
		ChangeDescription: row.ChangeDescription,
		CreatedBy:         row.CreatedBy,
		CreatedAt:         row.CreatedAt,
	}
}
