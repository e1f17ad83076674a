package services

import "fmt"

// BulkError is a per-record soft failure. The batch continues past it; the
// offending input is echoed back so callers can fix and resubmit.
type BulkError struct {
	Message string      `json:"message"`
	Record  interface{} `json:"record,omitempty"`
}

// BulkResult aggregates the outcome of one bulk upsert batch.
type BulkResult struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []BulkError `json:"errors"`
}

func (r *BulkResult) addError(record interface{}, format string, args ...interface{}) {
	r.Errors = append(r.Errors, BulkError{
		Message: fmt.Sprintf(format, args...),
		Record:  record,
	})
}

// AllFailed reports whether every record in the batch was rejected.
func (r *BulkResult) AllFailed() bool {
	return r.Created+r.Updated == 0 && len(r.Errors) > 0
}
