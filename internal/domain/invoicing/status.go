package invoicing

// Status is the tax-authority submission state of a document
type Status string

const (
	StatusStandby            Status = "standby"
	StatusPassed             Status = "passed"
	StatusPassedWithWarnings Status = "passed_with_warnings"
	StatusRejected           Status = "rejected"
	StatusError              Status = "error"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusStandby, StatusPassed, StatusPassedWithWarnings, StatusRejected, StatusError:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsAccepted reports whether the tax authority cleared the document
func (s Status) IsAccepted() bool {
	return s == StatusPassed || s == StatusPassedWithWarnings
}

// IsSubmissionResult reports whether s can be the outcome of a submission
func (s Status) IsSubmissionResult() bool {
	return s.IsValid() && s != StatusStandby
}

// CanTransitionTo checks whether a submission may move the document from s
// to target. Standby, rejected and error documents may be (re)submitted;
// accepted documents are final.
func (s Status) CanTransitionTo(target Status) bool {
	if !target.IsSubmissionResult() {
		return false
	}
	switch s {
	case StatusStandby, StatusRejected, StatusError:
		return true
	}
	return false
}
