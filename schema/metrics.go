package schema

// Metric is the stable symbolic name of a class-level metric.
type Metric string

// MetricKind decides how a metric behaves when nested classes are merged into
// their enclosing class.
type MetricKind int

// Metric kinds.
const (
	// Additive metrics are summed on merge.
	Additive MetricKind = iota
	// Flag metrics are 0/1 and keep the enclosing class value on merge.
	Flag
	// Taint metrics are 0/1 and are OR-ed on merge.
	Taint
	// Derived metrics are recomputed by later passes and are left alone on merge.
	Derived
)

func (k MetricKind) String() string {
	switch k {
	case Additive:
		return "additive"
	case Flag:
		return "flag"
	case Taint:
		return "taint"
	case Derived:
		return "derived"
	default:
		return "unknown"
	}
}

// Class shape flags.
const (
	IsPublic      Metric = "isPublic"
	IsPrivate     Metric = "isPrivate"
	IsProtected   Metric = "isProtected"
	IsAbstract    Metric = "isAbstract"
	IsInterface   Metric = "isInterface"
	IsFinal       Metric = "isFinal"
	IsException   Metric = "isException"
	IsInnerClass  Metric = "isInnerClass"
	IsIOClass     Metric = "isIOClass"
	IsGUIClass    Metric = "isGUIClass"
	InterfaceCnt  Metric = "interfaceCount"
	InnerClassCnt Metric = "innerClassCount"
)

// Size metrics.
const (
	RawSize               Metric = "rawSize"
	NormalizedBranchCount Metric = "normalizedBranchCount"
	InstructionCount      Metric = "instructionCount"
	LocalVarCount         Metric = "localVarCount"
)

// Instruction bucket metrics.
const (
	ILoadCount         Metric = "iLoadCount"
	IStoreCount        Metric = "iStoreCount"
	RLoadCount         Metric = "rLoadCount"
	RStoreCount        Metric = "rStoreCount"
	LoadFieldCount     Metric = "loadFieldCount"
	StoreFieldCount    Metric = "storeFieldCount"
	BranchCount        Metric = "branchCount"
	ConstantLoadCount  Metric = "constantLoadCount"
	IncrementOpCount   Metric = "incrementOpCount"
	TypeInsnCount      Metric = "typeInsnCount"
	CheckCastCount     Metric = "checkCastCount"
	NewCount           Metric = "newCount"
	NewArrayCount      Metric = "newArrayCount"
	MethodCallCount    Metric = "methodCallCount"
	InitCallCount      Metric = "initCallCount"
	ThrowCount         Metric = "throwCount"
	TryCatchBlockCount Metric = "tryCatchBlockCount"
)

// Field metrics.
const (
	FieldCount              Metric = "fieldCount"
	PublicFieldCount        Metric = "publicFieldCount"
	PrivateFieldCount       Metric = "privateFieldCount"
	ProtectedFieldCount     Metric = "protectedFieldCount"
	StaticFieldCount        Metric = "staticFieldCount"
	FinalFieldCount         Metric = "finalFieldCount"
	InitializedFieldCount   Metric = "initializedFieldCount"
	UninitializedFieldCount Metric = "uninitializedFieldCount"
)

// Method metrics.
const (
	MethodCount             Metric = "methodCount"
	PublicMethodCount       Metric = "publicMethodCount"
	PrivateMethodCount      Metric = "privateMethodCount"
	ProtectedMethodCount    Metric = "protectedMethodCount"
	StaticMethodCount       Metric = "staticMethodCount"
	FinalMethodCount        Metric = "finalMethodCount"
	SynchronizedMethodCount Metric = "synchronizedMethodCount"
	AbstractMethodCount     Metric = "abstractMethodCount"
	ConstructorCount        Metric = "constructorCount"
)

// Structural graph metrics.
const (
	LoadCount             Metric = "loadCount"
	StoreCount            Metric = "storeCount"
	LoadRatio             Metric = "loadRatio"
	InDegree              Metric = "inDegree"
	OutDegree             Metric = "outDegree"
	InternalOutDegree     Metric = "internalOutDegree"
	ExternalOutDegree     Metric = "externalOutDegree"
	Instability           Metric = "instability"
	Layer                 Metric = "layer"
	ClusteringCoefficient Metric = "clusteringCoefficient"
	DepthInInheritance    Metric = "depthInInheritanceTree"
	NumberOfChildren      Metric = "numberOfChildren"
	NumberOfDescendants   Metric = "numberOfDescendants"
	ExternalLibCallCount  Metric = "externalLibCallCount"
	InternalLibCallCount  Metric = "internalLibCallCount"
	InternalLibUsageCount Metric = "internalLibUsageCount"
	DistanceMoved         Metric = "distanceMoved"
)

// Evolution metrics, set only by the evolution engine.
const (
	EvolutionStatusMetric         Metric = "evolutionStatus"
	NextVersionStatusMetric       Metric = "nextVersionStatus"
	BornRSN                       Metric = "bornRSN"
	Age                           Metric = "age"
	ModificationFrequency         Metric = "modificationFrequency"
	EvolutionDistance             Metric = "evolutionDistance"
	DistanceMovedSinceBirth       Metric = "distanceMovedSinceBirth"
	ModifiedMetricCount           Metric = "modifiedMetricCount"
	ModifiedMetricCountSinceBirth Metric = "modifiedMetricCountSinceBirth"
	BirthStatusMetric             Metric = "birthStatus"
	Renamed                       Metric = "renamed"
)

// MetricInfo describes one metric for report headers and merge behaviour.
type MetricInfo struct {
	Name    Metric     `json:"name"`
	Acronym string     `json:"acronym"`
	Label   string     `json:"label"`
	Kind    MetricKind `json:"kind"`
}

// MetricCatalog is the ordered alias table of every known metric.
var MetricCatalog = []MetricInfo{
	{IsPublic, "PUB", "Public Class", Flag},
	{IsPrivate, "PRI", "Private Class", Flag},
	{IsProtected, "PRO", "Protected Class", Flag},
	{IsAbstract, "ABS", "Abstract Class", Flag},
	{IsInterface, "INT", "Interface", Flag},
	{IsFinal, "FIN", "Final Class", Flag},
	{IsException, "EXC", "Exception Class", Flag},
	{IsInnerClass, "INR", "Inner Class", Flag},
	{IsIOClass, "IO", "IO Class", Taint},
	{IsGUIClass, "GUI", "GUI Class", Taint},
	{InterfaceCnt, "NOI", "Interface Count", Derived},
	{InnerClassCnt, "NIC", "Inner Class Count", Additive},

	{RawSize, "SZ", "Raw Size", Additive},
	{NormalizedBranchCount, "NBC", "Normalized Branch Count", Derived},
	{InstructionCount, "IC", "Instruction Count", Additive},
	{LocalVarCount, "LVC", "Local Var Count", Additive},

	{ILoadCount, "ILC", "I Load Count", Additive},
	{IStoreCount, "ISC", "I Store Count", Additive},
	{RLoadCount, "RLC", "R Load Count", Additive},
	{RStoreCount, "RSC", "R Store Count", Additive},
	{LoadFieldCount, "LFC", "Load Field Count", Additive},
	{StoreFieldCount, "SFC", "Store Field Count", Additive},
	{BranchCount, "BC", "Branch Count", Additive},
	{ConstantLoadCount, "CLC", "Constant Load Count", Additive},
	{IncrementOpCount, "IOC", "Increment Op Count", Additive},
	{TypeInsnCount, "TIC", "Type Insn Count", Additive},
	{CheckCastCount, "CCC", "Check Cast Count", Additive},
	{NewCount, "NC", "New Count", Additive},
	{NewArrayCount, "NAC", "New Array Count", Additive},
	{MethodCallCount, "MCC", "Method Call Count", Additive},
	{InitCallCount, "ICC", "Init Call Count", Additive},
	{ThrowCount, "TC", "Throw Count", Additive},
	{TryCatchBlockCount, "TCB", "Try Catch Block Count", Additive},

	{FieldCount, "NOF", "Field Count", Additive},
	{PublicFieldCount, "PFC", "Public Field Count", Additive},
	{PrivateFieldCount, "PRFC", "Private Field Count", Additive},
	{ProtectedFieldCount, "PTFC", "Protected Field Count", Additive},
	{StaticFieldCount, "SFDC", "Static Field Count", Additive},
	{FinalFieldCount, "FFC", "Final Field Count", Additive},
	{InitializedFieldCount, "IFC", "Initialized Field Count", Additive},
	{UninitializedFieldCount, "UFC", "Uninitialized Field Count", Additive},

	{MethodCount, "NOM", "Method Count", Additive},
	{PublicMethodCount, "PMC", "Public Method Count", Additive},
	{PrivateMethodCount, "PRMC", "Private Method Count", Additive},
	{ProtectedMethodCount, "PTMC", "Protected Method Count", Additive},
	{StaticMethodCount, "SMC", "Static Method Count", Additive},
	{FinalMethodCount, "FMC", "Final Method Count", Additive},
	{SynchronizedMethodCount, "SYMC", "Synchronized Method Count", Additive},
	{AbstractMethodCount, "AMC", "Abstract Method Count", Additive},
	{ConstructorCount, "CC", "Constructor Count", Additive},

	{LoadCount, "LC", "Load Count", Derived},
	{StoreCount, "SC", "Store Count", Derived},
	{LoadRatio, "LR", "Load Ratio", Derived},
	{InDegree, "FI", "In Degree", Derived},
	{OutDegree, "FO", "Out Degree", Derived},
	{InternalOutDegree, "IFO", "Internal Out Degree", Derived},
	{ExternalOutDegree, "EFO", "External Out Degree", Derived},
	{Instability, "IS", "Instability", Derived},
	{Layer, "LY", "Layer", Derived},
	{ClusteringCoefficient, "CCF", "Clustering Coefficient", Derived},
	{DepthInInheritance, "DIT", "Depth In Inheritance Tree", Derived},
	{NumberOfChildren, "NOC", "Number Of Children", Derived},
	{NumberOfDescendants, "NOD", "Number Of Descendants", Derived},
	{ExternalLibCallCount, "ELC", "External Lib Call Count", Additive},
	{InternalLibCallCount, "ILBC", "Internal Lib Call Count", Additive},
	{InternalLibUsageCount, "ILU", "Internal Lib Usage Count", Derived},
	{DistanceMoved, "DM", "Distance Moved", Derived},

	{EvolutionStatusMetric, "ES", "Evolution Status", Derived},
	{NextVersionStatusMetric, "NVS", "Next Version Status", Derived},
	{BornRSN, "BRN", "Born RSN", Derived},
	{Age, "AGE", "Age", Derived},
	{ModificationFrequency, "MF", "Modification Frequency", Derived},
	{EvolutionDistance, "ED", "Evolution Distance", Derived},
	{DistanceMovedSinceBirth, "DSB", "Distance Moved Since Birth", Derived},
	{ModifiedMetricCount, "MMC", "Modified Metric Count", Derived},
	{ModifiedMetricCountSinceBirth, "MMSB", "Modified Metric Count Since Birth", Derived},
	{BirthStatusMetric, "BS", "Birth Status", Derived},
	{Renamed, "RN", "Renamed", Derived},
}

var metricIndex = func() map[Metric]MetricInfo {
	idx := make(map[Metric]MetricInfo, len(MetricCatalog))
	for _, info := range MetricCatalog {
		idx[info.Name] = info
	}
	return idx
}()

// AllMetrics returns every known metric name in catalog order.
func AllMetrics() []Metric {
	out := make([]Metric, len(MetricCatalog))
	for i, info := range MetricCatalog {
		out[i] = info.Name
	}
	return out
}

// LookupMetric returns the catalog entry for a metric name or acronym
// (acronyms are matched case-sensitively).
func LookupMetric(nameOrAcronym string) (MetricInfo, bool) {
	if info, ok := metricIndex[Metric(nameOrAcronym)]; ok {
		return info, true
	}
	for _, info := range MetricCatalog {
		if info.Acronym == nameOrAcronym {
			return info, true
		}
	}
	return MetricInfo{}, false
}

// KindOf returns the merge kind of a metric. Unknown metrics are Derived.
func KindOf(m Metric) MetricKind {
	if info, ok := metricIndex[m]; ok {
		return info.Kind
	}
	return Derived
}

// ComparisonMetrics is the fixed subset used for equality and modification testing.
var ComparisonMetrics = []Metric{
	IsPublic, IsPrivate, IsProtected, IsAbstract, IsInterface, IsFinal, IsException,
	InterfaceCnt, InnerClassCnt,
	ILoadCount, IStoreCount, RLoadCount, RStoreCount,
	LoadFieldCount, StoreFieldCount, BranchCount, ConstantLoadCount, IncrementOpCount,
	TypeInsnCount, CheckCastCount, NewCount, NewArrayCount,
	MethodCallCount, InitCallCount, ThrowCount, TryCatchBlockCount,
	FieldCount, PublicFieldCount, PrivateFieldCount, ProtectedFieldCount,
	StaticFieldCount, FinalFieldCount, InitializedFieldCount,
	MethodCount, PublicMethodCount, PrivateMethodCount, ProtectedMethodCount,
	StaticMethodCount, FinalMethodCount, SynchronizedMethodCount, AbstractMethodCount,
	ConstructorCount, OutDegree, ExternalOutDegree,
}

// DistanceMetrics is the fixed subset used for distance computations between revisions.
var DistanceMetrics = []Metric{
	BranchCount, ConstantLoadCount, ILoadCount, IStoreCount, RLoadCount, RStoreCount,
	LoadFieldCount, StoreFieldCount, MethodCallCount, NewCount, TypeInsnCount,
	CheckCastCount, ThrowCount, TryCatchBlockCount, IncrementOpCount,
	MethodCount, FieldCount, OutDegree, InDegree,
}

// DistanceScale multiplies a Euclidean distance before it is truncated into a metric value.
const DistanceScale = 100
