// Package turn produces a single persona reply: it assembles the prompt for
// the requested role, streams the model output to the caller, and runs the
// moderator's directive pass over the finished text.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/roundtable/internal/directive"
	"github.com/zulandar/roundtable/internal/gemini"
	"github.com/zulandar/roundtable/internal/meeting"
	"github.com/zulandar/roundtable/internal/roles"
)

// ErrNoUserMessage is returned when the conversation history carries no
// user-authored entry. The model is never called in that case.
var ErrNoUserMessage = errors.New("turn: no user message in history")

// Entry is one conversation message as supplied by the caller. Role is
// "user" or "assistant"; RoleID names the persona for assistant entries.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	RoleID  string `json:"roleId,omitempty"`
}

// Request asks for one reply from one persona within a session.
type Request struct {
	SessionID     string
	RoleID        string
	History       []Entry
	SelectedRoles []string
}

// Outcome is the completion metadata for a finished turn. Content is the
// reply with directive blocks stripped.
type Outcome struct {
	RoleID         string
	Content        string
	NextSpeaker    string
	HandoverToUser bool
	Directives     []directive.Result
}

// Opts configures an Orchestrator.
type Opts struct {
	Roles         *roles.Registry
	Meetings      *meeting.Registry
	Generator     gemini.Generator
	Executor      *directive.Executor
	ModeratorID   string
	HistoryWindow int
}

// Orchestrator runs turns. Safe for concurrent use across sessions.
type Orchestrator struct {
	roles       *roles.Registry
	meetings    *meeting.Registry
	gen         gemini.Generator
	exec        *directive.Executor
	moderatorID string
	window      int
}

func New(o Opts) (*Orchestrator, error) {
	if o.Roles == nil {
		return nil, fmt.Errorf("turn: Roles is required")
	}
	if o.Meetings == nil {
		return nil, fmt.Errorf("turn: Meetings is required")
	}
	if o.Generator == nil {
		return nil, fmt.Errorf("turn: Generator is required")
	}
	if o.Executor == nil {
		return nil, fmt.Errorf("turn: Executor is required")
	}
	if o.ModeratorID == "" {
		return nil, fmt.Errorf("turn: ModeratorID is required")
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 10
	}
	return &Orchestrator{
		roles:       o.Roles,
		meetings:    o.Meetings,
		gen:         o.Generator,
		exec:        o.Executor,
		moderatorID: o.ModeratorID,
		window:      o.HistoryWindow,
	}, nil
}

// ProduceReply generates one reply from req.RoleID and relays each fragment
// through emit as it arrives. The returned Outcome carries the cleaned text
// and any speaker change resolved by the moderator's directives.
//
// A gateway or emit error aborts the turn; fragments already relayed stand.
// If ctx is cancelled the directive pass is skipped and the message is not
// recorded against the session.
func (o *Orchestrator) ProduceReply(ctx context.Context, req Request, emit func(fragment string) error) (*Outcome, error) {
	persona, ok := o.roles.Get(req.RoleID)
	if !ok {
		return nil, fmt.Errorf("turn: unknown role %q", req.RoleID)
	}

	userContent, ok := lastUserContent(req.History)
	if !ok {
		return nil, ErrNoUserMessage
	}

	system, err := o.composePrompt(persona, req)
	if err != nil {
		return nil, err
	}

	var acc strings.Builder
	err = o.gen.StreamGenerate(ctx, persona.Model, userContent, system, func(fragment string) error {
		acc.WriteString(fragment)
		return emit(fragment)
	})
	if err != nil {
		return nil, fmt.Errorf("turn: generate for %s: %w", req.RoleID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{RoleID: req.RoleID, Content: acc.String()}

	if req.RoleID == o.moderatorID {
		calls := directive.Parse(out.Content)
		if len(calls) > 0 {
			out.Directives = o.exec.ExecuteAll(req.SessionID, calls, req.RoleID)
			for _, res := range out.Directives {
				if !res.Success {
					continue
				}
				if res.NextSpeaker != "" {
					out.NextSpeaker = res.NextSpeaker
				}
				if res.HandoverToUser {
					out.HandoverToUser = true
				}
			}
		}
		out.Content = directive.CleanContent(out.Content)
	}

	o.meetings.RecordMessage(req.SessionID, req.RoleID)
	log.Printf("turn: session %s role %s replied (%d bytes, next=%q)",
		req.SessionID, req.RoleID, len(out.Content), out.NextSpeaker)
	return out, nil
}

// composePrompt builds the system instructions: the persona's base prompt,
// the moderator appendix when applicable, the rendered conversation window,
// and a closing instruction.
func (o *Orchestrator) composePrompt(persona roles.Persona, req Request) (string, error) {
	var b strings.Builder
	b.WriteString(persona.Prompt)

	if persona.ID == o.moderatorID {
		appendix, err := o.moderatorAppendix(req)
		if err != nil {
			return "", err
		}
		b.WriteString(appendix)
	}

	b.WriteString("\n\n## Conversation so far\n\n")
	b.WriteString(o.renderWindow(req.History))
	fmt.Fprintf(&b, "\n\nContinue the discussion as %s. Stay in character and respond to the latest message.", persona.Name)
	return b.String(), nil
}

// moderatorAppendix lists the other selected personas, the function-call
// instructions, and current speaking stats for fairness framing.
func (o *Orchestrator) moderatorAppendix(req Request) (string, error) {
	var b strings.Builder

	b.WriteString("\n\n## Experts in this discussion\n\n")
	for _, id := range req.SelectedRoles {
		if id == o.moderatorID {
			continue
		}
		p, ok := o.roles.Get(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.ID, p.Name, p.Description)
	}

	catalog, err := directive.CatalogPrompt()
	if err != nil {
		return "", fmt.Errorf("turn: render catalog: %w", err)
	}
	b.WriteString("\n")
	b.WriteString(catalog)

	if stats, err := o.meetings.SpeakingStats(req.SessionID); err == nil && len(stats) > 0 {
		b.WriteString("\n## Speaking counts this session\n\n")
		for _, id := range req.SelectedRoles {
			if id == o.moderatorID {
				continue
			}
			if n, ok := stats[id]; ok {
				fmt.Fprintf(&b, "- %s: %d\n", id, n)
			}
		}
		b.WriteString("\nPrefer inviting experts who have spoken less.\n")
	}

	return b.String(), nil
}

// renderWindow renders the last window entries, oldest first, each as
// "Label: content" joined by blank lines.
func (o *Orchestrator) renderWindow(history []Entry) string {
	if len(history) > o.window {
		history = history[len(history)-o.window:]
	}
	lines := make([]string, 0, len(history))
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", o.label(e), e.Content))
	}
	return strings.Join(lines, "\n\n")
}

func (o *Orchestrator) label(e Entry) string {
	if e.Role == "user" {
		return "User"
	}
	if p, ok := o.roles.Get(e.RoleID); ok {
		return p.Name
	}
	if e.RoleID != "" {
		return e.RoleID
	}
	return "Assistant"
}

// lastUserContent scans history from the end for the most recent
// user-authored entry.
func lastUserContent(history []Entry) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content, true
		}
	}
	return "", false
}
