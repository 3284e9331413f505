package bytecode

import (
	"errors"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// Extractor turns the bytes of one compiled class into a ClassRecord.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	settings contract.AnalysisSettings
}

// NewExtractor returns an extractor using the given namespace settings.
func NewExtractor(settings contract.AnalysisSettings) *Extractor {
	return &Extractor{settings: settings}
}

// Extract decodes one class. The entry name is only used in error reports.
// Malformed input yields a *contract.DecodeError and never a panic.
func (e *Extractor) Extract(entry string, data []byte) (*schema.ClassRecord, error) {
	cf, err := parseClassFile(data)
	if err != nil {
		return nil, withEntry(err, entry)
	}

	c := schema.NewClassRecord(dotted(cf.thisName))
	c.Fingerprint = xxhash.Sum64(data)
	e.extractBase(cf, c)
	e.extractFields(cf, c)

	for _, m := range cf.methods {
		mr, err := e.scanMethod(cf, c, m)
		if err != nil {
			return nil, withEntry(&contract.DecodeError{Reason: "method " + m.name + ": " + err.Error()}, entry)
		}
		aggregateMethod(c, mr)
		tallyMethodAccess(c, m)
	}

	c.Set(schema.RawSize, len(data))
	if len(data) > 0 {
		c.Set(schema.NormalizedBranchCount, c.Get(schema.BranchCount)*100/len(data))
	}
	c.Status = schema.BaseExtracted

	e.resolveClassLevel(cf, c)
	flagNamespaces(c, e.settings)
	RemoveRedundantDependencies(c, e.settings)
	c.Status = schema.DependenciesExtracted
	return c, nil
}

func withEntry(err error, entry string) error {
	var de *contract.DecodeError
	if errors.As(err, &de) {
		out := *de
		out.Entry = entry
		return &out
	}
	return &contract.DecodeError{Entry: entry, Reason: err.Error()}
}

// extractBase fills names, inheritance and class access flags.
func (e *Extractor) extractBase(cf *classFile, c *schema.ClassRecord) {
	if cf.superName != "" {
		c.SuperClassName = dotted(cf.superName)
	}
	if c.IsNested() {
		c.OuterClassName = schema.TextualParent(c.Name)
	}
	for _, itf := range cf.interfaces {
		if name, ok := resolveTypeName(itf); ok {
			c.Interfaces.Add(name)
		}
	}

	access := cf.access
	if cf.hasInner {
		// Nested classes carry their declared visibility in InnerClasses only
		access = cf.innerAccess | (cf.access & (accInterface | accAbstract))
	}
	c.SetFlag(schema.IsPublic, access&accPublic != 0)
	c.SetFlag(schema.IsPrivate, access&accPrivate != 0)
	c.SetFlag(schema.IsProtected, access&accProtected != 0)
	c.SetFlag(schema.IsAbstract, access&accAbstract != 0)
	c.SetFlag(schema.IsInterface, access&accInterface != 0)
	c.SetFlag(schema.IsFinal, access&accFinal != 0)
	c.SetFlag(schema.IsInnerClass, c.IsNested())
	c.SetFlag(schema.IsException, strings.Contains(c.SuperClassName, "Exception") ||
		c.SuperClassName == schema.RootThrowableType)
	c.Set(schema.InterfaceCnt, len(c.Interfaces))
}

func (e *Extractor) extractFields(cf *classFile, c *schema.ClassRecord) {
	for _, f := range cf.fields {
		c.Fields.Add(f.name + ":" + f.descriptor)
		c.Inc(schema.FieldCount, 1)
		switch {
		case f.access&accPublic != 0:
			c.Inc(schema.PublicFieldCount, 1)
		case f.access&accPrivate != 0:
			c.Inc(schema.PrivateFieldCount, 1)
		case f.access&accProtected != 0:
			c.Inc(schema.ProtectedFieldCount, 1)
		}
		if f.access&accStatic != 0 {
			c.Inc(schema.StaticFieldCount, 1)
		}
		if f.access&accFinal != 0 {
			c.Inc(schema.FinalFieldCount, 1)
		}
		if f.hasConst {
			c.Inc(schema.InitializedFieldCount, 1)
		} else {
			c.Inc(schema.UninitializedFieldCount, 1)
		}
		for _, t := range referenceTypes(f.descriptor) {
			c.Dependencies.Add(t)
		}
	}
}

// scanMethod classifies every instruction of one method into metric buckets.
func (e *Extractor) scanMethod(cf *classFile, c *schema.ClassRecord, m member) (*schema.MethodRecord, error) {
	mr := schema.NewMethodRecord(m.name, m.descriptor)
	for _, t := range referenceTypes(m.descriptor) {
		mr.Dependencies.Add(t)
	}
	for _, ex := range m.exceptions {
		mr.Dependencies.Add(ex)
	}
	if m.code == nil {
		return mr, nil
	}

	mr.Metrics[schema.LocalVarCount] = m.code.maxLocals
	mr.Metrics[schema.TryCatchBlockCount] = len(m.code.exceptionTable)
	for _, h := range m.code.exceptionTable {
		if name, ok := cf.pool.className(h.catchType); ok {
			mr.Dependencies.Add(name)
		}
	}

	inc := func(metric schema.Metric, n int) { mr.Metrics[metric] += n }
	classRef := func(in instruction) {
		if name, ok := cf.pool.className(in.cpIndex()); ok {
			mr.Dependencies.Add(name)
		}
	}

	err := walkInstructions(m.code.code, func(in instruction) {
		inc(schema.InstructionCount, 1)
		op := in.op
		switch {
		case op >= opAconstNull && op <= opLdc2W:
			inc(schema.ConstantLoadCount, 1)
			e.ldcDependency(cf, mr, in)
		case op >= opIload && op <= opDload, op >= opIload0 && op <= opDload3:
			inc(schema.ILoadCount, 1)
		case op == opAload, op >= opAload0 && op <= opAload3:
			inc(schema.RLoadCount, 1)
		case op >= opIstore && op <= opDstore, op >= opIstore0 && op <= opDstore3:
			inc(schema.IStoreCount, 1)
		case op == opAstore, op >= opAstore0 && op <= opAstore3:
			inc(schema.RStoreCount, 1)
		case op == opIinc:
			inc(schema.IncrementOpCount, 1)
		case op >= opIfeq && op <= opIfAcmpne, op == opIfnull, op == opIfnonnull:
			inc(schema.BranchCount, 1)
		case op == opTableswitch, op == opLookupswitch:
			inc(schema.BranchCount, in.cases)
		case op == opGetfield, op == opGetstatic:
			inc(schema.LoadFieldCount, 1)
			fieldDependencies(cf, mr, in)
		case op == opPutfield, op == opPutstatic:
			inc(schema.StoreFieldCount, 1)
			fieldDependencies(cf, mr, in)
		case op >= opInvokevirtual && op <= opInvokeinterface:
			inc(schema.MethodCallCount, 1)
			e.invocation(cf, c, mr, in)
		case op == opInvokedynamic:
			inc(schema.MethodCallCount, 1)
		case op == opNew:
			inc(schema.NewCount, 1)
			classRef(in)
		case op == opNewarray:
			inc(schema.NewArrayCount, 1)
		case op == opAnewarray, op == opMultianewarray:
			inc(schema.NewArrayCount, 1)
			classRef(in)
		case op == opAthrow:
			inc(schema.ThrowCount, 1)
		case op == opInstanceof:
			inc(schema.TypeInsnCount, 1)
			classRef(in)
		case op == opCheckcast:
			inc(schema.CheckCastCount, 1)
			classRef(in)
		}
	})
	return mr, err
}

// ldcDependency records class literals loaded through ldc or ldc_w.
func (e *Extractor) ldcDependency(cf *classFile, mr *schema.MethodRecord, in instruction) {
	var idx uint16
	switch in.op {
	case 0x12: // ldc
		if len(in.operands) == 1 {
			idx = uint16(in.operands[0])
		}
	case 0x13: // ldc_w
		idx = in.cpIndex()
	default:
		return
	}
	if name, ok := cf.pool.className(idx); ok {
		mr.Dependencies.Add(name)
	}
}

func fieldDependencies(cf *classFile, mr *schema.MethodRecord, in instruction) {
	owner, _, desc, ok := cf.pool.memberRef(in.cpIndex())
	if !ok {
		return
	}
	mr.Dependencies.Add(owner)
	for _, t := range referenceTypes(desc) {
		mr.Dependencies.Add(t)
	}
}

// invocation records the dependencies of a call and attributes external calls to
// the outermost class of the target.
func (e *Extractor) invocation(cf *classFile, c *schema.ClassRecord, mr *schema.MethodRecord, in instruction) {
	owner, name, desc, ok := cf.pool.memberRef(in.cpIndex())
	if !ok {
		return
	}
	if in.op == opInvokespecial && name == schema.ConstructorName {
		mr.Metrics[schema.InitCallCount]++
	}
	mr.Dependencies.Add(owner)
	for _, t := range referenceTypes(desc) {
		mr.Dependencies.Add(t)
	}

	target, ok := resolveTypeName(owner)
	if !ok {
		return // method on a primitive array
	}
	if !IsInternalTarget(c.Name, c.SuperClassName, target) {
		mr.ExternalCalls[schema.OutermostName(target)]++
	}
}

// IsInternalTarget reports whether a call from owner to target stays inside the
// owner's own class family: the owner, its superclass, its textual parent, the root
// object type, an inner class of the owner, or a sibling sharing the same parent.
func IsInternalTarget(owner, super, target string) bool {
	parent := schema.TextualParent(owner)
	switch {
	case target == owner, target == super, target == schema.RootObjectType:
		return true
	case parent != "" && target == parent:
		return true
	case strings.HasPrefix(target, owner+schema.NestedSeparator):
		return true
	case parent != "" && schema.TextualParent(target) == parent:
		return true
	}
	return false
}

// aggregateMethod folds a method accumulator into its class.
func aggregateMethod(c *schema.ClassRecord, mr *schema.MethodRecord) {
	for m, v := range mr.Metrics {
		c.Inc(m, v)
	}
	for target, n := range mr.ExternalCalls {
		c.ExternalCalls[target] += n
	}
	c.Dependencies.AddAll(mr.Dependencies)
	c.Methods.Add(mr.Name)
	c.MethodNames.Add(mr.ShortName)
}

func tallyMethodAccess(c *schema.ClassRecord, m member) {
	c.Inc(schema.MethodCount, 1)
	switch {
	case m.access&accPublic != 0:
		c.Inc(schema.PublicMethodCount, 1)
	case m.access&accPrivate != 0:
		c.Inc(schema.PrivateMethodCount, 1)
	case m.access&accProtected != 0:
		c.Inc(schema.ProtectedMethodCount, 1)
	}
	if m.access&accStatic != 0 {
		c.Inc(schema.StaticMethodCount, 1)
	}
	if m.access&accFinal != 0 {
		c.Inc(schema.FinalMethodCount, 1)
	}
	if m.access&accSynchronized != 0 {
		c.Inc(schema.SynchronizedMethodCount, 1)
	}
	if m.access&accAbstract != 0 {
		c.Inc(schema.AbstractMethodCount, 1)
	}
	if m.name == schema.ConstructorName {
		c.Inc(schema.ConstructorCount, 1)
	}
}

// resolveClassLevel registers the declared types of the class once more so that
// return, argument and exception types are covered even for methods without code.
func (e *Extractor) resolveClassLevel(cf *classFile, c *schema.ClassRecord) {
	if cf.superName != "" {
		c.Dependencies.Add(cf.superName)
	}
	for _, itf := range cf.interfaces {
		c.Dependencies.Add(itf)
	}
	for _, m := range cf.methods {
		for _, t := range referenceTypes(m.descriptor) {
			c.Dependencies.Add(t)
		}
		for _, ex := range m.exceptions {
			c.Dependencies.Add(ex)
		}
	}
}
