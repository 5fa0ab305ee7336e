package directive

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/roundtable/internal/docstore"
	"github.com/zulandar/roundtable/internal/meeting"
	"github.com/zulandar/roundtable/internal/roles"
)

// Result reports the outcome of executing one directive. Execution
// failures are captured here per-directive; they never abort the turn or
// the remaining directives in the same reply.
type Result struct {
	Name           string `json:"name"`
	Success        bool   `json:"success"`
	Result         any    `json:"result,omitempty"`
	Error          string `json:"error,omitempty"`
	NextSpeaker    string `json:"nextSpeaker,omitempty"`
	HandoverToUser bool   `json:"handoverToUser,omitempty"`
}

// Executor dispatches parsed directives against the session registry, role
// registry, and document store.
type Executor struct {
	meetings *meeting.Registry
	roles    *roles.Registry
	docs     *docstore.Store
}

// NewExecutor creates an Executor. The document store may be nil, in which
// case document directives fail cleanly.
func NewExecutor(meetings *meeting.Registry, r *roles.Registry, docs *docstore.Store) *Executor {
	return &Executor{meetings: meetings, roles: r, docs: docs}
}

// ExecuteAll runs every call in order. Each call executes to completion,
// side effects included, even when an earlier call failed; there is no
// rollback across a batch.
func (e *Executor) ExecuteAll(sessionID string, calls []Call, actingRoleID string) []Result {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		res := e.Execute(sessionID, call, actingRoleID)
		if !res.Success {
			log.Printf("directive: %s failed in session %s: %s", call.Name, sessionID, res.Error)
		}
		results = append(results, res)
	}
	return results
}

// Execute runs one directive and reports its outcome. Unknown names fail
// with an unrecognized-function error and no side effect.
func (e *Executor) Execute(sessionID string, call Call, actingRoleID string) Result {
	res := Result{Name: call.Name}

	switch call.Name {
	case "invite_expert":
		e.inviteExpert(sessionID, call, &res)
	case "request_iteration":
		e.requestIteration(sessionID, call, &res)
	case "check_consensus":
		e.checkConsensus(sessionID, call, &res)
	case "get_expert_info":
		e.expertInfo(call, &res)
	case "pause_expert":
		e.pauseExpert(sessionID, call, &res)
	case "resume_expert":
		e.resumeExpert(sessionID, call, &res)
	case "get_discussion_summary":
		e.discussionSummary(sessionID, &res)
	case "handover_to_user":
		res.Success = true
		res.HandoverToUser = true
		res.Result = map[string]any{
			"summary":        call.str("summary"),
			"final_proposal": call.str("final_proposal"),
			"options":        call.strings("options"),
		}
	case "create_document":
		e.createDocument(call, actingRoleID, &res)
	case "read_document":
		e.readDocument(call, &res)
	case "update_document":
		e.updateDocument(call, actingRoleID, &res)
	case "search_documents":
		e.searchDocuments(call, &res)
	case "list_documents":
		e.listDocuments(call, &res)
	case "get_document_versions":
		e.documentVersions(call, &res)
	case "restore_document_version":
		e.restoreDocumentVersion(call, actingRoleID, &res)
	default:
		res.Error = fmt.Sprintf("unrecognized function: %s", call.Name)
	}
	return res
}

func (e *Executor) inviteExpert(sessionID string, call Call, res *Result) {
	roleID := call.str("roleId")
	if err := e.meetings.SetNextSpeaker(sessionID, roleID); err != nil {
		res.Error = fmt.Sprintf("cannot invite %s: %v", roleID, err)
		return
	}
	res.Success = true
	res.NextSpeaker = roleID
	res.Result = fmt.Sprintf("Invited %s to speak next. Reason: %s", roleID, call.str("reason"))
}

func (e *Executor) requestIteration(sessionID string, call Call, res *Result) {
	roleID := call.str("roleId")
	if err := e.meetings.SetNextSpeaker(sessionID, roleID); err != nil {
		res.Error = fmt.Sprintf("cannot request iteration from %s: %v", roleID, err)
		return
	}
	res.Success = true
	res.NextSpeaker = roleID
	res.Result = map[string]any{
		"message":          fmt.Sprintf("Requested another iteration from %s", roleID),
		"feedback_summary": call.str("feedback_summary"),
		"iteration_focus":  call.str("iteration_focus"),
	}
}

func (e *Executor) checkConsensus(sessionID string, call Call, res *Result) {
	active, err := e.meetings.ActiveParticipants(sessionID)
	if err != nil {
		res.Error = err.Error()
		return
	}
	activeSet := make(map[string]bool, len(active))
	for _, p := range active {
		activeSet[p.RoleID] = true
	}

	named := call.strings("participants")
	var present []string
	for _, id := range named {
		if activeSet[id] {
			present = append(present, id)
		}
	}

	res.Success = true
	res.Result = map[string]any{
		"topic":              call.str("topic"),
		"named_participants": len(named),
		"active":             len(present),
		"active_roles":       present,
		"all_active":         len(present) == len(named),
	}
}

func (e *Executor) expertInfo(call Call, res *Result) {
	type info struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if roleID := call.str("roleId"); roleID != "" {
		p, ok := e.roles.Get(roleID)
		if !ok {
			res.Error = fmt.Sprintf("unknown expert: %s", roleID)
			return
		}
		res.Success = true
		res.Result = info{ID: p.ID, Name: p.Name, Description: p.Description}
		return
	}

	var all []info
	for _, p := range e.roles.All() {
		all = append(all, info{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	res.Success = true
	res.Result = all
}

func (e *Executor) pauseExpert(sessionID string, call Call, res *Result) {
	roleID := call.str("roleId")
	if err := e.meetings.Pause(sessionID, roleID); err != nil {
		res.Error = fmt.Sprintf("cannot pause %s: %v", roleID, err)
		return
	}
	res.Success = true
	res.Result = fmt.Sprintf("Paused %s. Reason: %s", roleID, call.str("reason"))
}

func (e *Executor) resumeExpert(sessionID string, call Call, res *Result) {
	roleID := call.str("roleId")
	if err := e.meetings.Resume(sessionID, roleID); err != nil {
		res.Error = fmt.Sprintf("cannot resume %s: %v", roleID, err)
		return
	}
	res.Success = true
	res.Result = fmt.Sprintf("Resumed %s", roleID)
}

func (e *Executor) discussionSummary(sessionID string, res *Result) {
	session, err := e.meetings.Get(sessionID)
	if err != nil {
		res.Error = err.Error()
		return
	}
	stats, _ := e.meetings.SpeakingStats(sessionID)
	res.Success = true
	res.Result = map[string]any{
		"status":         session.Status,
		"speaking_stats": stats,
		"participants":   session.Participants,
	}
}

func (e *Executor) createDocument(call Call, actingRoleID string, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	doc, err := e.docs.Create(docstore.CreateRequest{
		Title:     call.str("title"),
		Content:   call.str("content"),
		Format:    call.str("format"),
		Tags:      call.strings("tags"),
		Metadata:  call.object("metadata"),
		CreatedBy: actingRoleID,
	})
	if err != nil {
		res.Error = err.Error()
		return
	}
	res.Success = true
	res.Result = doc
}

func (e *Executor) readDocument(call Call, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	doc, err := e.docs.Get(call.str("documentId"))
	if err != nil {
		res.Error = docErr(call.str("documentId"), err)
		return
	}
	res.Success = true
	res.Result = doc
}

func (e *Executor) updateDocument(call Call, actingRoleID string, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	req := docstore.UpdateRequest{
		LastModifiedBy:    actingRoleID,
		ChangeDescription: call.str("changeDescription"),
	}
	if v, ok := call.Parameters["title"].(string); ok {
		req.Title = &v
	}
	if v, ok := call.Parameters["content"].(string); ok {
		req.Content = &v
	}
	if _, ok := call.Parameters["tags"]; ok {
		tags := call.strings("tags")
		if tags == nil {
			tags = []string{}
		}
		req.Tags = tags
	}
	if meta := call.object("metadata"); meta != nil {
		req.Metadata = meta
	}

	doc, err := e.docs.Update(call.str("documentId"), req)
	if err != nil {
		res.Error = docErr(call.str("documentId"), err)
		return
	}
	res.Success = true
	res.Result = doc
}

func (e *Executor) searchDocuments(call Call, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	docs, err := e.docs.Search(docstore.Filter{
		Query:     call.str("query"),
		Tags:      call.strings("tags"),
		Format:    call.str("format"),
		CreatedBy: call.str("createdBy"),
	})
	if err != nil {
		res.Error = err.Error()
		return
	}
	res.Success = true
	res.Result = docs
}

func (e *Executor) listDocuments(call Call, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	docs, err := e.docs.List(call.boolean("includeArchived"))
	if err != nil {
		res.Error = err.Error()
		return
	}
	res.Success = true
	res.Result = docs
}

func (e *Executor) documentVersions(call Call, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	versions, err := e.docs.Versions(call.str("documentId"))
	if err != nil {
		res.Error = docErr(call.str("documentId"), err)
		return
	}
	res.Success = true
	res.Result = versions
}

func (e *Executor) restoreDocumentVersion(call Call, actingRoleID string, res *Result) {
	if e.docs == nil {
		res.Error = "document store is not configured"
		return
	}
	version, ok := call.number("version")
	if !ok {
		res.Error = "version is required"
		return
	}
	doc, err := e.docs.RestoreVersion(call.str("documentId"), int(version), actingRoleID)
	if err != nil {
		res.Error = docErr(call.str("documentId"), err)
		return
	}
	res.Success = true
	res.Result = doc
}

func docErr(id string, err error) string {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Sprintf("document not found: %s", id)
	}
	return err.Error()
}
