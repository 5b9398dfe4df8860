package ingest

// ValidationError rejects an upload before anything is persisted. Its message
// is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProcessingError wraps an unexpected failure while reading the CSV content.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return "Error processing CSV: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
