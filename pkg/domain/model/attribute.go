package model

// Warehouse field names used by the pipeline
const (
	AttrSalesforceRecordID       = "salesforce_record_id"
	AttrName                     = "name"
	AttrCallDurationSec          = "gong_call_duration_sec_c"
	AttrCallID                   = "gong_call_id_c"
	AttrCallStart                = "gong_call_start_c"
	AttrParticipantsEmails       = "gong_participants_emails_c"
	AttrRelatedParticipantsJSON  = "gong_related_participants_json_c"
	AttrPrimaryAccount           = "gong_primary_account_c"
	AttrPrimaryOpportunity       = "gong_primary_opportunity_c"
	AttrRelatedContactsJSON      = "gong_related_contacts_json_c"
	AttrRelatedLeadsJSON         = "gong_related_leads_json_c"
	AttrRelatedOpportunitiesJSON = "gong_related_opportunities_json_c"
	AttrOppCloseDateTimeOfCall   = "gong_opp_close_date_time_of_call_c"
	AttrOppProbabilityTimeOfCall = "gong_opp_probability_time_of_call_c"
	AttrOppStageTimeOfCall       = "gong_opp_stage_time_of_call_c"
	AttrTitle                    = "gong_title_c"
	AttrScheduled                = "gong_scheduled_c"
	AttrIsPrivate                = "gong_is_private_c"
	AttrCallBrief                = "gong_call_brief_c"
	AttrCallHighlightsNextSteps  = "gong_call_highlights_next_steps_c"
	AttrCallKeyPoints            = "gong_call_key_points_c"
	AttrScope                    = "gong_scope_c"
	AttrCombinedTranscript       = "combined_transcript"

	// Attributes added per chunk
	AttrChunkIndex     = "chunk_index"
	AttrTranscriptText = "transcript_text"
)

// DefaultAttributeKeys returns the call metadata copied onto every indexed chunk.
func DefaultAttributeKeys() []string {
	return []string{
		AttrSalesforceRecordID,
		AttrName,
		AttrCallDurationSec,
		AttrCallID,
		AttrCallStart,
		AttrParticipantsEmails,
		AttrRelatedParticipantsJSON,
		AttrPrimaryAccount,
		AttrPrimaryOpportunity,
		AttrRelatedContactsJSON,
		AttrRelatedLeadsJSON,
		AttrRelatedOpportunitiesJSON,
		AttrOppCloseDateTimeOfCall,
		AttrOppProbabilityTimeOfCall,
		AttrOppStageTimeOfCall,
		AttrTitle,
		AttrScheduled,
		AttrIsPrivate,
		AttrCallBrief,
		AttrCallHighlightsNextSteps,
		AttrCallKeyPoints,
		AttrScope,
	}
}

// DefaultIncludeAttributes returns the attributes returned by opportunity retrieval.
func DefaultIncludeAttributes() []string {
	return []string{
		AttrTranscriptText,
		AttrName,
		AttrCallID,
		AttrParticipantsEmails,
		AttrPrimaryOpportunity,
		AttrTitle,
		AttrCallBrief,
		AttrCallStart,
	}
}
