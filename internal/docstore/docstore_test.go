package docstore

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/roundtable/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := db.ConnectMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(gdb)
}

func mustCreate(t *testing.T, s *Store, title, content string) *Document {
	t.Helper()
	doc, err := s.Create(CreateRequest{
		Title:     title,
		Content:   content,
		Format:    "markdown",
		Tags:      []string{"design"},
		CreatedBy: "tom",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return doc
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Create(CreateRequest{
		Title:     "Dragon Gold design",
		Content:   "# Mechanics\ncascading reels",
		Format:    "markdown",
		Tags:      []string{"design", "mechanics"},
		Metadata:  map[string]any{"stage": "draft"},
		CreatedBy: "tom",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ID == "" {
		t.Error("ID is empty")
	}
	if doc.Version != 1 {
		t.Errorf("Version = %d, want 1", doc.Version)
	}
	if doc.LastModifiedBy != "tom" {
		t.Errorf("LastModifiedBy = %q, want tom", doc.LastModifiedBy)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("len(Tags) = %d, want 2", len(doc.Tags))
	}
	if doc.Metadata["stage"] != "draft" {
		t.Errorf("Metadata[stage] = %v, want draft", doc.Metadata["stage"])
	}

	versions, err := s.Versions(doc.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1", len(versions))
	}
	if versions[0].ChangeDescription != "Initial creation" {
		t.Errorf("ChangeDescription = %q, want Initial creation", versions[0].ChangeDescription)
	}
}

func TestCreate_Validation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(CreateRequest{Content: "c", Format: "markdown"}); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := s.Create(CreateRequest{Title: "t", Format: "markdown"}); err == nil {
		t.Error("expected error for missing content")
	}
	if _, err := s.Create(CreateRequest{Title: "t", Content: "c", Format: "docx"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_VersionHistory(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "original content")

	content2 := "revised content"
	if _, err := s.Update(doc.ID, UpdateRequest{
		Content:           &content2,
		LastModifiedBy:    "ash",
		ChangeDescription: "math pass",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	content3 := "final content"
	updated, err := s.Update(doc.ID, UpdateRequest{
		Content:        &content3,
		LastModifiedBy: "tom",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 3 {
		t.Errorf("Version = %d, want 3", updated.Version)
	}

	// Exactly 1 initial + 2 update records, strictly increasing from 1.
	versions, err := s.Versions(doc.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("len(versions) = %d, want 3", len(versions))
	}
	// Newest first.
	for i, want := range []int{3, 2, 1} {
		if versions[i].Version != want {
			t.Errorf("versions[%d].Version = %d, want %d", i, versions[i].Version, want)
		}
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "content")

	title := "Renamed"
	updated, err := s.Update(doc.ID, UpdateRequest{
		Title:          &title,
		Metadata:       map[string]any{"stage": "review"},
		LastModifiedBy: "jarvis",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", updated.Title)
	}
	if updated.Content != "content" {
		t.Errorf("Content = %q, want untouched original", updated.Content)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "design" {
		t.Errorf("Tags = %v, want untouched [design]", updated.Tags)
	}
	if updated.Metadata["stage"] != "review" {
		t.Errorf("Metadata[stage] = %v, want merged review", updated.Metadata["stage"])
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestStore(t)
	content := "x"
	if _, err := s.Update("missing", UpdateRequest{Content: &content}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestRestoreVersion(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "original content")

	for _, c := range []string{"second", "third"} {
		content := c
		if _, err := s.Update(doc.ID, UpdateRequest{Content: &content, LastModifiedBy: "tom"}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	restored, err := s.RestoreVersion(doc.ID, 1, "jarvis")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	// Restore is a new version, not a rollback to version number 1.
	if restored.Version != 4 {
		t.Errorf("Version = %d, want 4", restored.Version)
	}
	if restored.Content != "original content" {
		t.Errorf("Content = %q, want original content", restored.Content)
	}

	versions, _ := s.Versions(doc.ID)
	if len(versions) != 4 {
		t.Errorf("len(versions) = %d, want 4", len(versions))
	}
	if versions[0].ChangeDescription != "Restored to version 1" {
		t.Errorf("ChangeDescription = %q, want Restored to version 1", versions[0].ChangeDescription)
	}
}

func TestRestoreVersion_UnknownVersion(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "content")

	if _, err := s.RestoreVersion(doc.ID, 9, "jarvis"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RestoreVersion error = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	s.Create(CreateRequest{
		Title: "Dragon Gold design", Content: "cascading reels", Format: "markdown",
		Tags: []string{"design", "mechanics"}, CreatedBy: "tom",
	})
	s.Create(CreateRequest{
		Title: "RTP analysis", Content: "96.2% base game", Format: "json",
		Tags: []string{"math"}, CreatedBy: "ash",
	})
	s.Create(CreateRequest{
		Title: "Meeting notes", Content: "agreed on dragon theme", Format: "text",
		Tags: []string{"notes"}, CreatedBy: "jarvis",
	})

	// Free text hits title and content.
	got, err := s.Search(Filter{Query: "dragon"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("query dragon: %d results, want 2", len(got))
	}

	got, _ = s.Search(Filter{Tags: []string{"math", "notes"}})
	if len(got) != 2 {
		t.Errorf("tag filter: %d results, want 2", len(got))
	}

	got, _ = s.Search(Filter{Format: "json"})
	if len(got) != 1 || got[0].Title != "RTP analysis" {
		t.Errorf("format filter: got %d results, want the RTP analysis", len(got))
	}

	got, _ = s.Search(Filter{CreatedBy: "ash"})
	if len(got) != 1 {
		t.Errorf("creator filter: %d results, want 1", len(got))
	}

	got, _ = s.Search(Filter{CreatedBefore: time.Now().Add(-time.Hour)})
	if len(got) != 0 {
		t.Errorf("date filter: %d results, want 0", len(got))
	}
}

func TestListAndArchive(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "content")
	mustCreate(t, s, "Notes", "other")

	if err := s.Archive(doc.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	visible, _ := s.List(false)
	if len(visible) != 1 {
		t.Errorf("List(false): %d docs, want 1", len(visible))
	}
	all, _ := s.List(true)
	if len(all) != 2 {
		t.Errorf("List(true): %d docs, want 2", len(all))
	}

	archived := true
	got, _ := s.Search(Filter{Archived: &archived})
	if len(got) != 1 || !got[0].Archived {
		t.Errorf("archived search: got %v, want 1 archived doc", got)
	}

	if err := s.Unarchive(doc.ID); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	visible, _ = s.List(false)
	if len(visible) != 2 {
		t.Errorf("List(false) after unarchive: %d docs, want 2", len(visible))
	}

	if err := s.Archive("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Archive(missing) = %v, want ErrNotFound", err)
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "content")

	if err := s.Purge(doc.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := s.Get(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after purge = %v, want ErrNotFound", err)
	}
	if _, err := s.Versions(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Versions after purge = %v, want ErrNotFound", err)
	}
	if err := s.Purge(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Purge = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	doc := mustCreate(t, s, "Design", "content")
	content := "v2"
	s.Update(doc.ID, UpdateRequest{Content: &content, LastModifiedBy: "tom"})
	other := mustCreate(t, s, "Notes", "n")
	s.Archive(other.ID)

	st, err := s.GetStats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", st.TotalDocuments)
	}
	if st.ArchivedDocuments != 1 {
		t.Errorf("ArchivedDocuments = %d, want 1", st.ArchivedDocuments)
	}
	if st.TotalVersions != 3 {
		t.Errorf("TotalVersions = %d, want 3", st.TotalVersions)
	}
	if st.LastModified.IsZero() {
		t.Error("LastModified is zero")
	}
}
