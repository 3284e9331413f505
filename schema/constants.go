package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All persistence backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // in-memory, lost on exit
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid persistence backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ProcessingStatus tracks how far a ClassRecord or VersionSnapshot has progressed
// through the pipeline.
type ProcessingStatus int

// Processing stages in pipeline order.
const (
	Unprocessed ProcessingStatus = iota
	BaseExtracted
	DependenciesExtracted
	PostProcessed
	Finalized
)

// String returns the stage name.
func (s ProcessingStatus) String() string {
	switch s {
	case BaseExtracted:
		return "base-extracted"
	case DependenciesExtracted:
		return "dependencies-extracted"
	case PostProcessed:
		return "post-processed"
	case Finalized:
		return "finalized"
	default:
		return "unprocessed"
	}
}

// EvolutionStatus values stored under EvolutionStatusMetric and NextVersionStatusMetric.
// Zero means the class has not been evaluated yet.
const (
	StatusUnchanged = 1
	StatusModified  = 2
	StatusDeleted   = 3
	StatusAdded     = 4
)

// EvolutionStatusName returns a label for an evolution status value.
func EvolutionStatusName(v int) string {
	switch v {
	case StatusUnchanged:
		return "Unchanged"
	case StatusModified:
		return "Modified"
	case StatusDeleted:
		return "Deleted"
	case StatusAdded:
		return "Added"
	default:
		return "-"
	}
}

// Layer values stored under the Layer metric. Zero means unclassified.
const (
	LayerFoundation = 1
	LayerMid        = 2
	LayerTop        = 3
	LayerFree       = 4
)

// LayerName returns a label for a layer value.
func LayerName(v int) string {
	switch v {
	case LayerFoundation:
		return "Foundation"
	case LayerMid:
		return "Mid"
	case LayerTop:
		return "Top"
	case LayerFree:
		return "Free"
	default:
		return "-"
	}
}

// Birth status values stored under BirthStatusMetric.
const (
	BirthNewBorn            = 1
	BirthNeverModified      = 2
	BirthModifiedAfterBirth = 3
)

// BirthStatusName returns a label for a birth status value.
func BirthStatusName(v int) string {
	switch v {
	case BirthNewBorn:
		return "new-born"
	case BirthNeverModified:
		return "never-modified"
	case BirthModifiedAfterBirth:
		return "modified-after-birth"
	default:
		return "-"
	}
}

// Well-known type names.
const (
	RootObjectType    = "java.lang.Object"
	RootThrowableType = "java.lang.Throwable"
	NestedSeparator   = "$"
	ConstructorName   = "<init>"
	StaticInitName    = "<clinit>"
)
