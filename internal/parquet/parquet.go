// Package parquet exports stored snapshots and run tracking data to Parquet
// files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/classdrift/schema"
	"github.com/parquet-go/parquet-go"
)

// Run maps to the classdrift_runs table.
type Run struct {
	RunID         int64      `parquet:"run_id,snappy"`
	System        string     `parquet:"system_key,snappy,dict"`
	Kind          string     `parquet:"run_kind,snappy,dict"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalReleases int32      `parquet:"total_releases,snappy"`
	TotalClasses  int32      `parquet:"total_classes,snappy"`
	ConfigParams  *string    `parquet:"config_params,optional,snappy"`
}

// ClassRelease is one class in one release of a system.
type ClassRelease struct {
	System       string    `parquet:"system_key,snappy,dict"`
	RSN          int32     `parquet:"rsn,snappy"`
	ReleaseID    string    `parquet:"release_id,snappy,dict"`
	LastModified time.Time `parquet:"last_modified,snappy"`
	Class        string    `parquet:"class_name,snappy"`
	Package      string    `parquet:"package_name,snappy,dict"`
	SuperClass   string    `parquet:"super_class_name,snappy"`

	Layer         string `parquet:"layer,snappy,dict"`
	InDegree      int32  `parquet:"in_degree,snappy"`
	OutDegree     int32  `parquet:"out_degree,snappy"`
	Instability   int32  `parquet:"instability,snappy"`
	Clustering    int32  `parquet:"clustering_coefficient,snappy"`
	DIT           int32  `parquet:"depth_in_inheritance_tree,snappy"`
	NOC           int32  `parquet:"number_of_children,snappy"`
	MethodCount   int32  `parquet:"method_count,snappy"`
	FieldCount    int32  `parquet:"field_count,snappy"`
	BranchCount   int32  `parquet:"branch_count,snappy"`
	IsIOClass     bool   `parquet:"is_io_class,snappy"`
	IsGUIClass    bool   `parquet:"is_gui_class,snappy"`
	IsInterface   bool   `parquet:"is_interface,snappy"`
	DistanceMoved int32  `parquet:"distance_moved,snappy"`

	EvolutionStatus         string  `parquet:"evolution_status,snappy,dict"`
	BornRSN                 int32   `parquet:"born_rsn,snappy"`
	Age                     int32   `parquet:"age,snappy"`
	ModificationFrequency   int32   `parquet:"modification_frequency,snappy"`
	EvolutionDistance       int32   `parquet:"evolution_distance,snappy"`
	DistanceMovedSinceBirth int32   `parquet:"distance_moved_since_birth,snappy"`
	RenamedFrom             *string `parquet:"renamed_from,optional,snappy"`
}

// write writes rows to a Parquet file whose schema is inferred from T.
func write[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes run records to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return write(data, outputPath)
}

// WriteClassReleasesParquet writes class rows to a Parquet file.
func WriteClassReleasesParquet(data []ClassRelease, outputPath string) error {
	return write(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			System:        record.System,
			Kind:          string(record.Kind),
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalReleases: record.TotalReleases,
			TotalClasses:  record.TotalClasses,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSnapshot flattens a snapshot into one row per class, in name order.
func ConvertSnapshot(system string, snap *schema.VersionSnapshot) []ClassRelease {
	names := snap.ClassNames()
	result := make([]ClassRelease, 0, len(names))
	for _, name := range names {
		result = append(result, convertClass(system, snap.RSN, snap.ReleaseID, snap.LastModified, snap.Classes[name]))
	}
	return result
}

// ConvertClassListing converts the rows of a classes report, keeping their order.
func ConvertClassListing(listing *schema.ClassListing) []ClassRelease {
	result := make([]ClassRelease, 0, len(listing.Classes))
	for _, c := range listing.Classes {
		result = append(result, convertClass(listing.System, listing.RSN, listing.ReleaseID, listing.LastModified, c))
	}
	return result
}

func convertClass(system string, rsn int, releaseID string, lastModified time.Time, c *schema.ClassRecord) ClassRelease {
	metric := func(m schema.Metric) int32 { return int32(c.Get(m)) }
	row := ClassRelease{
		System:       system,
		RSN:          int32(rsn),
		ReleaseID:    releaseID,
		LastModified: lastModified,
		Class:        c.Name,
		Package:      c.PackageName,
		SuperClass:   c.SuperClassName,

		Layer:         schema.LayerName(c.Get(schema.Layer)),
		InDegree:      metric(schema.InDegree),
		OutDegree:     metric(schema.OutDegree),
		Instability:   metric(schema.Instability),
		Clustering:    metric(schema.ClusteringCoefficient),
		DIT:           metric(schema.DepthInInheritance),
		NOC:           metric(schema.NumberOfChildren),
		MethodCount:   metric(schema.MethodCount),
		FieldCount:    metric(schema.FieldCount),
		BranchCount:   metric(schema.BranchCount),
		IsIOClass:     c.Flag(schema.IsIOClass),
		IsGUIClass:    c.Flag(schema.IsGUIClass),
		IsInterface:   c.Flag(schema.IsInterface),
		DistanceMoved: metric(schema.DistanceMoved),

		EvolutionStatus:         schema.EvolutionStatusName(c.Get(schema.EvolutionStatusMetric)),
		BornRSN:                 metric(schema.BornRSN),
		Age:                     metric(schema.Age),
		ModificationFrequency:   metric(schema.ModificationFrequency),
		EvolutionDistance:       metric(schema.EvolutionDistance),
		DistanceMovedSinceBirth: metric(schema.DistanceMovedSinceBirth),
	}
	if c.RenamedFrom != "" {
		from := c.RenamedFrom
		row.RenamedFrom = &from
	}
	return row
}
