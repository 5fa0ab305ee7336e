package directive

import (
	"bytes"
	"fmt"
	"text/template"
)

// FunctionSpec describes one catalog entry for prompt rendering.
type FunctionSpec struct {
	Name        string
	Description string
}

// MeetingFunctions is the turn-taking half of the closed directive catalog.
var MeetingFunctions = []FunctionSpec{
	{"invite_expert", "Invite the most relevant expert to speak next. Params: roleId, reason, context, stage. Supports iterative collaboration: proposer -> reviewer -> revise -> re-review until consensus."},
	{"request_iteration", "Send an expert back for another design pass based on feedback. Params: roleId, feedback_summary, iteration_focus."},
	{"check_consensus", "Check whether the named experts are still active and the stage can advance. Params: topic, participants (array of role ids)."},
	{"get_expert_info", "Get descriptive metadata for one expert (param roleId) or all experts (no params)."},
	{"pause_expert", "Temporarily remove an expert from the discussion when their specialty is no longer relevant. Params: roleId, reason."},
	{"resume_expert", "Bring a previously paused expert back into the discussion. Params: roleId, reason."},
	{"get_discussion_summary", "Get current speaking statistics and session status. No params."},
	{"handover_to_user", "After consensus is reached, hand the final design back to the user. Params: summary, final_proposal, options (optional array)."},
}

// DocumentFunctions is the document-management half of the catalog.
var DocumentFunctions = []FunctionSpec{
	{"create_document", "Create a project document (design spec, meeting notes, validation report). Params: title, content, format (markdown|json|yaml|text), tags (array), metadata (object)."},
	{"read_document", "Read a project document. Params: documentId."},
	{"update_document", "Update an existing document; version history is kept automatically. Params: documentId, plus any of title, content, tags, changeDescription."},
	{"search_documents", "Search project documents. Params (all optional): query, tags, format, createdBy."},
	{"list_documents", "List project documents. Params: includeArchived (optional bool)."},
	{"get_document_versions", "Get a document's version history. Params: documentId."},
	{"restore_document_version", "Restore a document to a historical version, as a new version. Params: documentId, version (number)."},
}

const catalogTemplate = `As the discussion moderator you manage the iterative collaboration flow and
the project document library, making sure the experts converge on the best
design through repeated rounds:

Collaboration flow:
1. Gameplay loop: the designer proposes a mechanic (stage "initial_proposal"),
   the math reviewer evaluates it (stage "review_feedback"). If problems are
   found, use request_iteration to send the designer back; after the revision
   invite the reviewer again (stage "iterate_design"). Repeat until the
   reviewer confirms (stage "final_approval").
2. Art loop: same pattern between the designer and the art director.
3. Once a design is locked, invite the illustrator to produce image prompts.

Document management:
- Record every significant decision, proposal, and spec in project documents.
- Use create_document for new documents and update_document for revisions;
  the system keeps version history automatically.
- Use search_documents / list_documents to find prior work, read_document to
  review it, and get_document_versions for the history.

Available functions (meeting management):
{{ range .Meeting }}- {{ .Name }}: {{ .Description }}
{{ end }}
Available functions (document management):
{{ range .Document }}- {{ .Name }}: {{ .Description }}
{{ end }}
Key principles:
1. Recognize when iteration is needed: an expert raised a concrete problem.
2. Use request_iteration to ask for the improvement explicitly.
3. Use check_consensus to confirm a stage is settled.
4. Record important outcomes in project documents.
5. Have experts consult existing documents instead of redoing work.
6. Only advance a stage when every relevant expert is satisfied.
7. Finish with handover_to_user carrying the complete design.

Call format — emit blocks exactly like this inside your reply:
<function_call>
{
  "name": "function_name",
  "parameters": {
    "param1": "value1"
  }
}
</function_call>
`

// CatalogPrompt renders the moderator instruction block describing the
// directive catalog and the collaboration workflow. Appended to the
// moderator persona's system prompt on every one of its turns.
func CatalogPrompt() (string, error) {
	tmpl, err := template.New("catalog").Parse(catalogTemplate)
	if err != nil {
		return "", fmt.Errorf("directive: parse catalog template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Meeting  []FunctionSpec
		Document []FunctionSpec
	}{MeetingFunctions, DocumentFunctions})
	if err != nil {
		return "", fmt.Errorf("directive: execute catalog template: %w", err)
	}
	return buf.String(), nil
}
