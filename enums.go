package tinybird

// JobKind identifies what a job does.
type JobKind string

const (
	JobKindImport       JobKind = "import"
	JobKindPopulateView JobKind = "populateview"
	JobKindCopy         JobKind = "copy"
	JobKindDeleteData   JobKind = "delete_data"
	JobKindQuery        JobKind = "query"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusWaiting    JobStatus = "waiting"
	JobStatusWorking    JobStatus = "working"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further status change is expected.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusDone, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// PipeFormat is the output format of a pipe endpoint, used as the file
// extension of the request path.
type PipeFormat string

const (
	PipeFormatJSON         PipeFormat = "json"
	PipeFormatCSV          PipeFormat = "csv"
	PipeFormatCSVWithNames PipeFormat = "csvwithnames"
	PipeFormatNDJSON       PipeFormat = "ndjson"
	PipeFormatParquet      PipeFormat = "parquet"
	PipeFormatPrometheus   PipeFormat = "prometheus"
)

// QueryFormat is a ClickHouse output format for the Query API.
type QueryFormat string

const (
	QueryFormatCSV           QueryFormat = "CSV"
	QueryFormatCSVWithNames  QueryFormat = "CSVWithNames"
	QueryFormatJSON          QueryFormat = "JSON"
	QueryFormatTSV           QueryFormat = "TSV"
	QueryFormatTSVWithNames  QueryFormat = "TSVWithNames"
	QueryFormatPrettyCompact QueryFormat = "PrettyCompact"
	QueryFormatJSONEachRow   QueryFormat = "JSONEachRow"
	QueryFormatParquet       QueryFormat = "Parquet"
	QueryFormatPrometheus    QueryFormat = "Prometheus"
)

// Compression is a compression codec for sinks and event ingestion.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionGz   Compression = "gz"
	CompressionZstd Compression = "zstd"
)

// SinkWriteStrategy controls how a sink treats existing files.
type SinkWriteStrategy string

const (
	SinkWriteStrategyNew      SinkWriteStrategy = "new"
	SinkWriteStrategyTruncate SinkWriteStrategy = "truncate"
)

// VariableType is the kind of an environment variable.
type VariableType string

const (
	VariableTypeSecret VariableType = "secret"
)

// Content types accepted by the API.
const (
	ContentTypeCSV            = "text/csv"
	ContentTypeJSON           = "application/json"
	ContentTypeNDJSON         = "application/x-ndjson"
	ContentTypeParquet        = "application/vnd.apache.parquet"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeOctetStream    = "application/octet-stream"
)

const (
	kib = 1 << 10
	mib = 1 << 20
)

// Documented API limits.
const (
	LimitEventsRequestBytes        = 10 * mib
	LimitEventsRequestsPerSecond   = 100
	LimitDataSourceMaxColumns      = 500
	LimitFullBodyUploadBytes       = 8 * mib
	LimitMultipartCSVNDJSONBytes   = 500 * mib
	LimitMultipartParquetBytes     = 50 * mib
	LimitSQLLengthBytes            = 8 * kib
	LimitResultLengthBytes         = 100 * mib
	LimitQueryExecutionTimeSeconds = 10
	LimitResponseSizeBytes         = 100 * mib
)
