package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	CreateLogFileError

	// Database errors
	DBConnectionError
	DBTableCheckError
	DBEmptyDatabaseError
	DBNotConnectedError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError
	SchemaExtensionError
	SchemaViewError

	// Field catalog errors
	SchemaError

	// Listing errors
	SourceUnavailableError

	// Archive errors
	RetrievalError
	ArchiveFormatError
	ArchiveConsumedError

	// Parsing errors
	MalformedXMLError

	// Store errors
	StoreOpenError
	WriteError
	ConstraintError
	CommitConflictError
	SnapshotReadError

	// Crawl errors
	CancelledError
	IllegalTransitionError
	AllArchivesFailedError

	// Export errors
	ExportError

	// Optimize errors
	OptimizeOrphanError
	OptimizeRecountError
	OptimizeVacuumError
	CacheCleanupError
)

// Retryable reports if a failure with the given code can succeed on
// another attempt.
func Retryable(code gn.ErrorCode) bool {
	switch code {
	case SourceUnavailableError, RetrievalError, ArchiveFormatError,
		WriteError, SnapshotReadError:
		return true
	default:
		return false
	}
}

// Kind returns a short label of an error code for run summaries.
func Kind(code gn.ErrorCode) string {
	switch code {
	case SchemaError:
		return "SchemaError"
	case SourceUnavailableError:
		return "SourceUnavailable"
	case RetrievalError:
		return "RetrievalError"
	case ArchiveFormatError, ArchiveConsumedError:
		return "ArchiveFormatError"
	case MalformedXMLError:
		return "MalformedXmlError"
	case WriteError, ConstraintError, SnapshotReadError:
		return "WriteError"
	case CommitConflictError:
		return "CommitConflict"
	case CancelledError:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}
