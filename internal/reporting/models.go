package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call log metrics. Calls are
// placed in the range by the provider time of their last update.
type CallsSummaryRequest struct {
	Range     TimeRange `json:"range"`
	Direction string    `json:"direction,omitempty"`
}

type CallsSummary struct {
	Range     TimeRange `json:"range"`
	Direction string    `json:"direction,omitempty"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	CanceledCalls   int `json:"canceled_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls   int `json:"recorded_calls"`
	ConferenceCalls int `json:"conference_calls"`
}

// CallActionsRequest requests agent call-control activity from the audit log.
type CallActionsRequest struct {
	Range         TimeRange `json:"range"`
	ActorUsername string    `json:"actor_username,omitempty"`
}

// ActionCount tallies one call-control action.
type ActionCount struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type CallActionsSummary struct {
	Range         TimeRange `json:"range"`
	ActorUsername string    `json:"actor_username,omitempty"`

	Total   int                    `json:"total"`
	Actions map[string]ActionCount `json:"actions"`

	// TransferSuccessRate is succeeded/attempted attended transfers, 0 when
	// none were attempted.
	TransferSuccessRate float64 `json:"transfer_success_rate"`
}
