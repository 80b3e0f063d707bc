package constants

// JobStatus is the canonical status for rows in the processing journal.
type JobStatus string

// Stable values (store these exact strings).
const (
	JobStatusQueued   JobStatus = "QUEUED"   // accepted, waiting for a worker
	JobStatusRunning  JobStatus = "RUNNING"  // in progress
	JobStatusTextOK   JobStatus = "TEXT_OK"  // stage 1 completed (text recovered)
	JobStatusItemsOK  JobStatus = "ITEMS_OK" // stage 2 completed (items extracted)
	JobStatusDone     JobStatus = "DONE"     // pipeline finished, report produced
	JobStatusRejected JobStatus = "REJECTED" // service judged the document non-business
	JobStatusFailed   JobStatus = "FAILED"   // terminal failure
)
