package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/roundtable/internal/meeting"
)

func (s *Server) handleMeetingGet(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	session, err := s.meetings.Get(sessionID)
	if err != nil {
		if errors.Is(err, meeting.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats, _ := s.meetings.SpeakingStats(sessionID)
	active, _ := s.meetings.ActiveParticipants(sessionID)

	resp := gin.H{
		"session":            session,
		"speakingStats":      stats,
		"activeParticipants": active,
	}
	if suggested, ok := s.meetings.SuggestNextSpeaker(sessionID, nil); ok {
		resp["suggestedNextSpeaker"] = suggested
	}
	c.JSON(http.StatusOK, resp)
}

type meetingCreateRequest struct {
	SessionID     string   `json:"sessionId"`
	SelectedRoles []string `json:"selectedRoles"`
}

func (s *Server) handleMeetingCreate(c *gin.Context) {
	var req meetingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	if err := s.ensureSession(req.SessionID, req.SelectedRoles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session, err := s.meetings.Get(req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (s *Server) handleMeetingDelete(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	if !s.meetings.Delete(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": sessionID})
}
