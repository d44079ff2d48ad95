package usecase

import "github.com/secmon-lab/stackscout/pkg/domain/interfaces"

// ParseExtractionResult is exported for testing
var ParseExtractionResult = parseExtractionResult

// BuildExtractSystemPrompt is exported for testing
var BuildExtractSystemPrompt = (*ExtractUseCase).buildSystemPrompt

// RetrieverFor is exported for testing
func (uc *ExtractUseCase) RetrieverFor(input ExtractInput) interfaces.TranscriptRetriever {
	return uc.retrieverFor(input)
}

// EmptyRetriever is exported for testing
type EmptyRetriever = emptyRetriever
