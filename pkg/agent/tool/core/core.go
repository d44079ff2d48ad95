package core

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
)

// New builds the tools for the stack extraction agent. Transcript search is
// bound to one namespace and one opportunity so the agent can only see
// evidence of the account it analyzes.
func New(retriever interfaces.TranscriptRetriever, namespace, opportunityID string) []gollem.Tool {
	return []gollem.Tool{
		&searchTranscriptsTool{retriever: retriever, namespace: namespace, opportunityID: opportunityID},
		&listStackOptionsTool{},
	}
}
