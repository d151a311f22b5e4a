package ingest

// State labels one step of the per-company pipeline. A company advances
// strictly Pending -> LocatingFavicon -> Fetching -> Hashing ->
// {ReusingExisting | Uploading} -> RecordingReference -> Done; Failed is
// reachable from every non-terminal state.
type State string

// Pipeline states.
const (
	StatePending            State = "pending"
	StateLocatingFavicon    State = "locating-favicon"
	StateFetching           State = "fetching"
	StateHashing            State = "hashing"
	StateReusingExisting    State = "reusing-existing"
	StateUploading          State = "uploading"
	StateRecordingReference State = "recording-reference"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// FailureReason classifies a terminal failure.
type FailureReason string

// Terminal failure reasons. Each maps to the step that failed; a duplicate
// digest on ledger insert is not a failure and has no reason here.
const (
	ReasonNoFavicon     FailureReason = "no-favicon"
	ReasonFetchOrDecode FailureReason = "fetch-or-decode-error"
	ReasonUpload        FailureReason = "upload-error"
	ReasonRecord        FailureReason = "record-error"
)

// Outcome is the terminal result of one company's pipeline run.
type Outcome struct {
	CompanyID int64
	Website   string
	State     State
	Reason    FailureReason

	// StoredImageID and Digest are set only when State is StateDone.
	StoredImageID int64
	Digest        string
	// Reused is true when the company ended up referencing a pre-existing
	// stored image instead of triggering an upload.
	Reused bool
}

// Done reports whether the company finished with a valid image reference.
func (o Outcome) Done() bool {
	return o.State == StateDone
}

// Summary aggregates the batch-level result of an ingestion run.
type Summary struct {
	Total  int
	Done   int
	Reused int
	Failed map[FailureReason]int
}

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{Failed: make(map[FailureReason]int)}
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Total++
	if o.Done() {
		s.Done++
		if o.Reused {
			s.Reused++
		}
		return
	}
	s.Failed[o.Reason]++
}
