package agent

// State is the accumulator threaded through one workflow run. Each step
// fills in only the fields it owns; RetrievedContext and DraftReply stay nil
// on routes that skip retrieval and drafting, so consumers can tell
// "skipped" apart from "empty result".
type State struct {
	EmailContent string
	Sender       string

	Classification Category
	Reason         string

	RetrievedContext *string
	DraftReply       *string
}
