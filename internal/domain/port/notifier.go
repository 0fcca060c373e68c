package port

import "context"

// FailureNotice describes a job that failed permanently.
type FailureNotice struct {
	UserEmail string
	JobID     string
	VideoKey  string
	Reason    string
}

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, notice FailureNotice) error
}
