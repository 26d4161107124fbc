package constants

// Tier identifies one extraction method in the cascade.
type Tier string

// Stable values (store these exact strings in DB).
const (
	TierVision          Tier = "vision"           // Tier 2: page images → vision oracle
	TierTextLLM         Tier = "text_llm"         // Tier 1: raw text → text oracle
	TierPattern         Tier = "pattern"          // Tier 0: local pattern extractor
	TierVisionValidated Tier = "vision_validated" // Tier 2 + cross-validation
	TierTextValidated   Tier = "text_validated"   // Tier 1 + cross-validation
)

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusTextOK    JobStatus = "TEXT_OK"   // stage 1 completed (text extracted)
	JobStatusExtracted JobStatus = "EXTRACTED" // stage 2 completed (fields extracted)
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// ReviewThreshold is the confidence below which a document is flagged
// for manual review.
const ReviewThreshold = 0.7
