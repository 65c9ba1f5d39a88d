package model

import "time"

// Run accumulates the state of a single scrape invocation.
// Each pipeline step reads what earlier steps produced and records its own
// output here.
type Run struct {
	// SourceURL is the page the run scrapes.
	SourceURL string `json:"source_url"`

	// TableName is the store table the rows are written to.
	TableName string `json:"table_name"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// Document is the fetched page. Nil until the fetch step succeeds.
	Document *Document `json:"document,omitempty"`

	// Rows is the extracted and, after the store step, enriched ResultSet.
	Rows ResultSet `json:"rows"`

	// Deleted is the number of prior records removed from the store.
	Deleted int `json:"deleted"`

	// Written is the number of records inserted into the store.
	Written int `json:"written"`

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Err is the error that aborted the run, if any.
	Err error `json:"-"`

	// ErrorMessage is Err rendered as text for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRun creates a Run for the given source and table.
func NewRun(sourceURL, tableName string, startedAt time.Time) *Run {
	return &Run{
		SourceURL:      sourceURL,
		TableName:      tableName,
		StartedAt:      startedAt,
		Rows:           make(ResultSet, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Finish records the end time of the run.
func (r *Run) Finish(at time.Time) {
	r.FinishedAt = at
}

// Duration returns how long the run took. Zero until Finish is called.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed without error.
func (r *Run) Succeeded() bool {
	return r.Err == nil && !r.FinishedAt.IsZero()
}
