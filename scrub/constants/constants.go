package constants

// This is set during compilation.
var Version = "latest"

const SourceApp = "scrub"

// Path constants
const V1Path = "/api/v1/"
const ValidatePath = "claims/$validate"
const ValidateBatchPath = "claims/$validate-batch"

// Job type names registered with que.
const ValidateBatchJob = "ValidateBatch"

// Async batch statuses stored in the batches table.
const BatchPending = "Pending"
const BatchInProgress = "In Progress"
const BatchCompleted = "Completed"
const BatchFailed = "Failed"

// Message constants
const RequestStructErr = "bad request structure"
const CatalogLoadErr = "failed to load rule catalog"
const NoBatchRecord = "no batch record found for "
