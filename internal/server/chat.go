package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/roundtable/internal/herald"
	"github.com/zulandar/roundtable/internal/meeting"
	"github.com/zulandar/roundtable/internal/turn"
)

type chatRequest struct {
	SessionID     string       `json:"sessionId"`
	RoleID        string       `json:"roleId"`
	Messages      []turn.Entry `json:"messages"`
	SelectedRoles []string     `json:"selectedRoles"`
}

type messageEvent struct {
	Content string `json:"content"`
	RoleID  string `json:"roleId"`
}

type doneEvent struct {
	Content     string `json:"content"`
	RoleID      string `json:"roleId"`
	NextSpeaker string `json:"nextSpeaker,omitempty"`
	Handover    bool   `json:"handover"`
}

// handleChat produces one persona reply and streams it as SSE. The session
// is created on first use with the request's selected roles.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	if req.RoleID == "" {
		req.RoleID = s.cfg.Moderator
	}

	if err := s.ensureSession(req.SessionID, req.SelectedRoles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(req.SelectedRoles) == 0 {
		if session, err := s.meetings.Get(req.SessionID); err == nil {
			for _, p := range session.Participants {
				req.SelectedRoles = append(req.SelectedRoles, p.RoleID)
			}
		}
	}

	// Experts must be active participants to take the floor. The moderator
	// speaks outside the participant roster.
	if req.RoleID != s.cfg.Moderator {
		if err := s.meetings.SetCurrentSpeaker(req.SessionID, req.RoleID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	out, err := s.turns.ProduceReply(c.Request.Context(), turn.Request{
		SessionID:     req.SessionID,
		RoleID:        req.RoleID,
		History:       req.Messages,
		SelectedRoles: req.SelectedRoles,
	}, func(fragment string) error {
		writeSSE(c.Writer, "message", messageEvent{Content: fragment, RoleID: req.RoleID})
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		log.Printf("server: chat turn failed for session %s role %s: %v", req.SessionID, req.RoleID, err)
		writeSSE(c.Writer, "error", gin.H{"error": err.Error()})
		c.Writer.Flush()
		return
	}

	next := out.NextSpeaker
	if v, ok := s.meetings.ConsumeNextSpeaker(req.SessionID); ok {
		next = v
	}

	writeSSE(c.Writer, "done", doneEvent{
		Content:     out.Content,
		RoleID:      out.RoleID,
		NextSpeaker: next,
		Handover:    out.HandoverToUser,
	})
	c.Writer.Flush()

	if out.HandoverToUser && s.herald.Enabled() {
		go s.announceHandover(req.SessionID, out)
	}
}

// ensureSession creates the session on first use. Selected roles default to
// every non-moderator persona.
func (s *Server) ensureSession(sessionID string, selected []string) error {
	if _, err := s.meetings.Get(sessionID); err == nil {
		return nil
	} else if !errors.Is(err, meeting.ErrSessionNotFound) {
		return err
	}

	if len(selected) == 0 {
		for _, id := range s.roles.IDs() {
			if id != s.cfg.Moderator {
				selected = append(selected, id)
			}
		}
	}
	if _, err := s.meetings.Create(sessionID, selected); err != nil && !errors.Is(err, meeting.ErrSessionExists) {
		return err
	}
	return nil
}

// announceHandover forwards the moderator's handover payload to the
// configured notifiers. Runs detached from the request.
func (s *Server) announceHandover(sessionID string, out *turn.Outcome) {
	a := herald.Announcement{SessionID: sessionID}
	for _, res := range out.Directives {
		if res.Name != "handover_to_user" || !res.Success {
			continue
		}
		if payload, ok := res.Result.(map[string]any); ok {
			a.Summary, _ = payload["summary"].(string)
			a.FinalProposal, _ = payload["final_proposal"].(string)
			a.Options, _ = payload["options"].([]string)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.herald.Announce(ctx, a)
}
