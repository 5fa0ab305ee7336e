package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/roundtable/internal/docstore"
)

// docError maps store errors to HTTP responses.
func docError(c *gin.Context, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) handleDocumentList(c *gin.Context) {
	// With any search parameter present this is a filtered search,
	// otherwise a plain listing.
	f := docstore.Filter{
		Query:     c.Query("q"),
		Format:    c.Query("format"),
		CreatedBy: c.Query("createdBy"),
	}
	if tags := c.Query("tags"); tags != "" {
		f.Tags = strings.Split(tags, ",")
	}
	if v := c.Query("archived"); v != "" {
		archived := v == "true"
		f.Archived = &archived
	}
	if v := c.Query("createdAfter"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "createdAfter must be RFC 3339"})
			return
		}
		f.CreatedAfter = t
	}
	if v := c.Query("createdBefore"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "createdBefore must be RFC 3339"})
			return
		}
		f.CreatedBefore = t
	}

	filtered := f.Query != "" || len(f.Tags) > 0 || f.Format != "" || f.CreatedBy != "" ||
		f.Archived != nil || !f.CreatedAfter.IsZero() || !f.CreatedBefore.IsZero()

	var (
		docs []docstore.Document
		err  error
	)
	if filtered {
		docs, err = s.docs.Search(f)
	} else {
		docs, err = s.docs.List(c.Query("includeArchived") == "true")
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

type documentCreateRequest struct {
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Format    string         `json:"format"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
	CreatedBy string         `json:"createdBy"`
}

func (s *Server) handleDocumentCreate(c *gin.Context) {
	var req documentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "user"
	}
	doc, err := s.docs.Create(docstore.CreateRequest{
		Title:     req.Title,
		Content:   req.Content,
		Format:    req.Format,
		Tags:      req.Tags,
		Metadata:  req.Metadata,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleDocumentGet(c *gin.Context) {
	doc, err := s.docs.Get(c.Param("id"))
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

type documentUpdateRequest struct {
	Title             *string        `json:"title"`
	Content           *string        `json:"content"`
	Tags              []string       `json:"tags"`
	Metadata          map[string]any `json:"metadata"`
	LastModifiedBy    string         `json:"lastModifiedBy"`
	ChangeDescription string         `json:"changeDescription"`
}

func (s *Server) handleDocumentUpdate(c *gin.Context) {
	var req documentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.LastModifiedBy == "" {
		req.LastModifiedBy = "user"
	}
	doc, err := s.docs.Update(c.Param("id"), docstore.UpdateRequest{
		Title:             req.Title,
		Content:           req.Content,
		Tags:              req.Tags,
		Metadata:          req.Metadata,
		LastModifiedBy:    req.LastModifiedBy,
		ChangeDescription: req.ChangeDescription,
	})
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDocumentPurge(c *gin.Context) {
	if err := s.docs.Purge(c.Param("id")); err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) handleDocumentVersions(c *gin.Context) {
	versions, err := s.docs.Versions(c.Param("id"))
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

func (s *Server) handleDocumentVersion(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be an integer"})
		return
	}
	version, err := s.docs.GetVersion(c.Param("id"), n)
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

type documentRestoreRequest struct {
	Version    int    `json:"version"`
	RestoredBy string `json:"restoredBy"`
}

func (s *Server) handleDocumentRestore(c *gin.Context) {
	var req documentRestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Version <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}
	if req.RestoredBy == "" {
		req.RestoredBy = "user"
	}
	doc, err := s.docs.RestoreVersion(c.Param("id"), req.Version, req.RestoredBy)
	if err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDocumentArchive(c *gin.Context) {
	if err := s.docs.Archive(c.Param("id")); err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": c.Param("id")})
}

func (s *Server) handleDocumentUnarchive(c *gin.Context) {
	if err := s.docs.Unarchive(c.Param("id")); err != nil {
		docError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unarchived": c.Param("id")})
}
