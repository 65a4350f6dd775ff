package model

// SubmissionJob is the queue payload for an asynchronous "create problem" command.
type SubmissionJob struct {
	ID    string       `json:"id"`
	Slug  string       `json:"slug"`
	Draft ProblemDraft `json:"draft"`
}

// SubmissionResult is published by the worker once a job has been handled.
type SubmissionResult struct {
	JobID   string   `json:"job_id"`
	Problem *Problem `json:"problem,omitempty"`
	Error   string   `json:"error,omitempty"`
}
