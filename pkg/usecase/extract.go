package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/agent/tool"
	"github.com/secmon-lab/stackscout/pkg/agent/tool/core"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
	"github.com/secmon-lab/stackscout/pkg/service/notify"
	"github.com/secmon-lab/stackscout/pkg/utils/async"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed prompt/extract_system.md
var extractSystemPromptTmpl string

var extractSystemPrompt = template.Must(template.New("extract_system").Parse(extractSystemPromptTmpl))

// DefaultExtractPrompt is the instruction given to the agent when none is set
const DefaultExtractPrompt = "Analyze the customer's data stack and identify their orchestration tools and cloud providers."

// ExtractInput selects the opportunity whose stack is extracted
type ExtractInput struct {
	Namespace     string `json:"namespace"`
	OpportunityID string `json:"opportunity_id"`
	Prompt        string `json:"prompt,omitempty"`

	// WithoutEvidence hides every transcript from the agent
	WithoutEvidence bool `json:"without_evidence,omitempty"`
}

// ExtractEvent is published after each successful extraction
type ExtractEvent struct {
	Namespace       string                  `json:"namespace"`
	OpportunityID   string                  `json:"opportunity_id"`
	WithoutEvidence bool                    `json:"without_evidence"`
	Result          *model.ExtractionResult `json:"result"`
}

// ExtractUseCase runs the stack extraction agent
type ExtractUseCase struct {
	llmClient         gollem.LLMClient
	retriever         interfaces.TranscriptRetriever
	publisher         interfaces.EventPublisher
	confidenceCeiling float64
}

func NewExtractUseCase(llmClient gollem.LLMClient, retriever interfaces.TranscriptRetriever, publisher interfaces.EventPublisher, confidenceCeiling float64) *ExtractUseCase {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &ExtractUseCase{
		llmClient:         llmClient,
		retriever:         retriever,
		publisher:         publisher,
		confidenceCeiling: confidenceCeiling,
	}
}

func (uc *ExtractUseCase) retrieverFor(input ExtractInput) interfaces.TranscriptRetriever {
	if input.WithoutEvidence {
		return emptyRetriever{}
	}
	return uc.retriever
}

// Extract asks the agent to investigate the opportunity's transcripts and
// returns its answer as a validated ExtractionResult.
func (uc *ExtractUseCase) Extract(ctx context.Context, input ExtractInput) (*model.ExtractionResult, error) {
	if input.OpportunityID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "opportunity id is required")
	}
	if input.Namespace == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}

	logger := logging.From(ctx).With(model.OpportunityIDKey, input.OpportunityID)
	ctx = logging.With(ctx, logger)

	systemPrompt, err := uc.buildSystemPrompt(input.OpportunityID)
	if err != nil {
		return nil, err
	}

	ctx = tool.WithProgress(ctx, func(ctx context.Context, message string) {
		logging.From(ctx).Info("tool progress", "message", message)
	})

	agent := gollem.New(uc.llmClient,
		gollem.WithSystemPrompt(systemPrompt),
		gollem.WithTools(core.New(uc.retrieverFor(input), input.Namespace, input.OpportunityID)...),
		gollem.WithToolMiddleware(
			func(next gollem.ToolHandler) gollem.ToolHandler {
				return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
					logging.From(ctx).Debug("agent tool call", "tool", req.Tool.Name)
					resp, err := next(ctx, req)
					if resp != nil && resp.Error != nil {
						logging.From(ctx).Warn("agent tool failed", "tool", req.Tool.Name, "error", resp.Error.Error())
					}
					return resp, err
				}
			},
		),
	)

	prompt := input.Prompt
	if prompt == "" {
		prompt = DefaultExtractPrompt
	}

	resp, err := agent.Execute(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to execute extraction agent")
	}
	analysis := strings.Join(resp.Texts, "\n")
	logger.Debug("agent analysis", "text", analysis)

	result, err := uc.structure(ctx, analysis)
	if err != nil {
		return nil, err
	}

	logger.Info("extracted tech stack",
		"primary", result.TechStack.PrimaryPreviousSolution,
		"cloud_provider", result.TechStack.CloudProvider,
		"confidence", result.ConfidenceScore,
		"without_evidence", input.WithoutEvidence)

	event := ExtractEvent{
		Namespace:       input.Namespace,
		OpportunityID:   input.OpportunityID,
		WithoutEvidence: input.WithoutEvidence,
		Result:          result,
	}
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.publisher.Publish(ctx, notify.SubjectExtractCompleted, event)
	})

	return result, nil
}

// structure converts the free text analysis into the result schema with a
// JSON constrained session.
func (uc *ExtractUseCase) structure(ctx context.Context, analysis string) (*model.ExtractionResult, error) {
	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(extractionResultParameter()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session for extraction result")
	}

	prompt := fmt.Sprintf(`Convert the following analysis of a customer's data stack into JSON.
Use null for anything the analysis does not support. Keep snippets verbatim and use null when no transcript was quoted.

Analysis:
%s`, analysis)

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate extraction result")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrInvalidExtraction, "extraction result generation returned empty result")
	}

	return parseExtractionResult(strings.Join(resp.Texts, ""))
}

func (uc *ExtractUseCase) buildSystemPrompt(opportunityID string) (string, error) {
	quote := func(values []string) string {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return strings.Join(quoted, ", ")
	}

	data := struct {
		OpportunityID      string
		SearchTool         string
		OptionsTool        string
		ConfidenceCeiling  float64
		OrchestrationTools string
		CloudProviders     string
	}{
		OpportunityID:      opportunityID,
		SearchTool:         core.SearchTranscriptsToolName,
		OptionsTool:        core.ListStackOptionsToolName,
		ConfidenceCeiling:  uc.confidenceCeiling,
		OrchestrationTools: quote(orchestrationToolValues()),
		CloudProviders:     quote(cloudProviderValues()),
	}

	var buf bytes.Buffer
	if err := extractSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute extract system prompt template")
	}
	return buf.String(), nil
}

// parseExtractionResult validates text against the result JSON schema and
// decodes it. Markdown code fences around the JSON are ignored.
func parseExtractionResult(text string) (*model.ExtractionResult, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, goerr.Wrap(ErrInvalidExtraction, "no JSON object in response", goerr.V("response", text))
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(extractionResultSchema()),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidExtraction, "failed to validate extraction result",
			goerr.V("response", raw),
			goerr.V("error", err.Error()))
	}
	if !validation.Valid() {
		details := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			details = append(details, desc.String())
		}
		return nil, goerr.Wrap(ErrInvalidExtraction, "extraction result does not match schema",
			goerr.V("response", raw),
			goerr.V("errors", strings.Join(details, "; ")))
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, goerr.Wrap(ErrInvalidExtraction, "failed to decode extraction result",
			goerr.V("response", raw),
			goerr.V("error", err.Error()))
	}
	if err := result.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidExtraction, err.Error(), goerr.V("response", raw))
	}

	return &result, nil
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

func orchestrationToolValues() []string {
	tools := types.AllOrchestrationTools()
	values := make([]string, len(tools))
	for i, v := range tools {
		values[i] = v.String()
	}
	return values
}

func cloudProviderValues() []string {
	providers := types.AllCloudProviders()
	values := make([]string, len(providers))
	for i, v := range providers {
		values[i] = v.String()
	}
	return values
}

// extractionResultSchema is the JSON Schema every extraction answer must satisfy
func extractionResultSchema() map[string]any {
	enum := func(values []string) []any {
		out := make([]any, 0, len(values)+2)
		for _, v := range values {
			out = append(out, v)
		}
		return out
	}
	nullable := func(values []string) []any {
		return append(enum(values), "", nil)
	}

	return map[string]any{
		"type":     "object",
		"required": []any{"tech_stack", "confidence_score"},
		"properties": map[string]any{
			"tech_stack": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"primary_previous_solution": map[string]any{
						"enum": nullable(orchestrationToolValues()),
					},
					"secondary_previous_solutions": map[string]any{
						"type": []any{"array", "null"},
						"items": map[string]any{
							"type": "string",
							"enum": enum(orchestrationToolValues()),
						},
					},
					"cloud_provider": map[string]any{
						"enum": nullable(cloudProviderValues()),
					},
				},
			},
			"confidence_score": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"previous_solution_snippet": map[string]any{"type": []any{"string", "null"}},
			"cloud_provider_snippet":    map[string]any{"type": []any{"string", "null"}},
		},
	}
}

// extractionResultParameter describes the same structure for the LLM session
func extractionResultParameter() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "TechStackResult",
		Description: "Tech stack extraction result with confidence score and supporting snippets",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"tech_stack": {
				Type:     gollem.TypeObject,
				Required: true,
				Properties: map[string]*gollem.Parameter{
					"primary_previous_solution": {
						Type:        gollem.TypeString,
						Description: "The account's main orchestration solution they rely on",
						Enum:        orchestrationToolValues(),
					},
					"secondary_previous_solutions": {
						Type:        gollem.TypeArray,
						Description: "Additional or legacy orchestration solutions mentioned in the transcripts",
						Items: &gollem.Parameter{
							Type: gollem.TypeString,
							Enum: orchestrationToolValues(),
						},
					},
					"cloud_provider": {
						Type:        gollem.TypeString,
						Description: "The account's cloud provider",
						Enum:        cloudProviderValues(),
					},
				},
			},
			"confidence_score": {
				Type:        gollem.TypeNumber,
				Description: "Confidence score of the extraction between 0 and 1",
				Required:    true,
			},
			"previous_solution_snippet": {
				Type:        gollem.TypeString,
				Description: "Relevant transcript snippet for the previous solution",
			},
			"cloud_provider_snippet": {
				Type:        gollem.TypeString,
				Description: "Relevant transcript snippet for the cloud provider",
			},
		},
	}
}
