package bytecode

import (
	"errors"
	"testing"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// widgetClass builds demo/Widget with code touching every instruction bucket.
func widgetClass() []byte {
	g := newClassGen("demo/Widget", "demo/Base").implements("java/io/Serializable", "demo/Drawable")
	g.access = accPublic | accAbstract
	g.field(accPublic|accStatic|accFinal, "MAX", "J", true)
	g.field(accPrivate, "items", "Ljava/util/List;", false)
	g.field(accProtected, "parts", "[Ldemo/Part;", false)

	ctor := (&codeBuf{}).
		op(0x2a).
		op2(opInvokespecial, g.methodRef("demo/Base", "<init>", "()V")).
		op(0xb1)
	g.method(methodSpec{access: accPublic, name: "<init>", desc: "()V", code: ctor.b, maxLocals: 1})

	run := &codeBuf{}
	run.op(0x1b)                     // iload_1
	run.op(0x04)                     // iconst_1
	run.op(0x60)                     // iadd
	run.op(0x3d)                     // istore_2
	run.op(opIinc, 2, 1)             // iinc
	run.op(0x1c)                     // iload_2
	run.op(opIfeq, 0, 3)             // ifeq
	run.op(0x2a)                     // aload_0
	run.op2(opGetfield, g.fieldRef("demo/Widget", "items", "Ljava/util/List;"))
	run.op2(opInvokeinterface, g.methodRef("java/util/List", "size", "()I")).op(1, 0)
	run.op(0x57)       // pop
	run.op(0x2a)       // aload_0
	run.op(opAconstNull)
	run.op2(opPutfield, g.fieldRef("demo/Widget", "items", "Ljava/util/List;"))
	run.op2(opNew, g.class("demo/Widget$Inner"))
	run.op(0x59)       // dup
	run.op(0x2a)       // aload_0
	run.op2(opInvokespecial, g.methodRef("demo/Widget$Inner", "<init>", "(Ldemo/Widget;)V"))
	run.op(0x4e)       // astore_3
	run.op(0x2d)       // aload_3
	run.op2(opInstanceof, g.class("demo/Part"))
	run.op(0x57)
	run.op(0x2d)
	run.op2(opCheckcast, g.class("demo/Part"))
	run.op(opAstore, 4)
	run.op(0x1b)
	run.tableswitch(0, 2)
	run.op(0x1b)
	run.lookupswitch(1, 5)
	run.op(0xa7, 0, 3) // goto
	run.op2(opLdc2W, g.double(2.5))
	run.op(0x58) // pop2
	run.op2(0x13, g.class("demo/Config")) // ldc_w class literal
	run.op(0x57)
	run.op2(opInvokestatic, g.methodRef("javax/swing/SwingUtilities", "isEventDispatchThread", "()Z"))
	run.op(0x57)
	run.op(0x10, 7)         // bipush
	run.op(opNewarray, 10)  // int[]
	run.op(0x57)
	run.op(0x1b)
	run.op(0xac) // ireturn
	g.method(methodSpec{
		access: accPublic | accSynchronized, name: "run", desc: "(I)I",
		code: run.b, maxLocals: 5, catches: []string{"java/io/IOException", ""},
	})

	g.method(methodSpec{
		access: accPublic | accAbstract, name: "draw", desc: "(Ljava/awt/Graphics;)V",
		exceptions: []string{"demo/RenderException"},
	})
	return g.bytes()
}

func TestExtractWidget(t *testing.T) {
	data := widgetClass()
	c, err := NewExtractor(contract.DefaultAnalysisSettings()).Extract("demo/Widget.class", data)
	require.NoError(t, err)

	assert.Equal(t, "demo.Widget", c.Name)
	assert.Equal(t, "Widget", c.ShortName)
	assert.Equal(t, "demo", c.PackageName)
	assert.Equal(t, "demo.Base", c.SuperClassName)
	assert.Equal(t, schema.DependenciesExtracted, c.Status)

	expected := map[schema.Metric]int{
		schema.IsPublic:                1,
		schema.IsAbstract:              1,
		schema.IsInterface:             0,
		schema.IsInnerClass:            0,
		schema.IsException:             0,
		schema.IsIOClass:               1,
		schema.IsGUIClass:              1,
		schema.InterfaceCnt:            2,
		schema.FieldCount:              3,
		schema.PublicFieldCount:        1,
		schema.PrivateFieldCount:       1,
		schema.ProtectedFieldCount:     1,
		schema.StaticFieldCount:        1,
		schema.FinalFieldCount:         1,
		schema.InitializedFieldCount:   1,
		schema.UninitializedFieldCount: 2,
		schema.MethodCount:             3,
		schema.PublicMethodCount:       3,
		schema.SynchronizedMethodCount: 1,
		schema.AbstractMethodCount:     1,
		schema.ConstructorCount:        1,
		schema.StaticMethodCount:       0,
		schema.InstructionCount:        44,
		schema.ILoadCount:              5,
		schema.IStoreCount:             1,
		schema.RLoadCount:              6,
		schema.RStoreCount:             2,
		schema.LoadFieldCount:          1,
		schema.StoreFieldCount:         1,
		schema.BranchCount:             6,
		schema.ConstantLoadCount:       5,
		schema.IncrementOpCount:        1,
		schema.TypeInsnCount:           1,
		schema.CheckCastCount:          1,
		schema.NewCount:                1,
		schema.NewArrayCount:           1,
		schema.MethodCallCount:         4,
		schema.InitCallCount:           2,
		schema.ThrowCount:              0,
		schema.TryCatchBlockCount:      2,
		schema.LocalVarCount:           6,
		schema.RawSize:                 len(data),
		schema.NormalizedBranchCount:   6 * 100 / len(data),
	}
	for m, want := range expected {
		assert.Equal(t, want, c.Get(m), "metric %s", m)
	}

	assert.ElementsMatch(t, []string{
		"demo.Base", "demo.Config", "demo.Drawable", "demo.Part", "demo.RenderException",
		"java.awt.Graphics", "java.io.IOException", "java.io.Serializable",
		"java.util.List", "javax.swing.SwingUtilities",
	}, c.Dependencies.Sorted())
	assert.ElementsMatch(t, []string{"demo.Drawable", "java.io.Serializable"}, c.Interfaces.Sorted())
	assert.Equal(t, map[string]int{"java.util.List": 1, "javax.swing.SwingUtilities": 1}, c.ExternalCalls)
	assert.ElementsMatch(t, []string{"<init>()V", "run(I)I", "draw(Ljava/awt/Graphics;)V"}, c.Methods.Sorted())
	assert.ElementsMatch(t, []string{"<init>", "run", "draw"}, c.MethodNames.Sorted())
	assert.True(t, c.Fields.Has("items:Ljava/util/List;"))
	assert.NotZero(t, c.Fingerprint)

	for _, info := range schema.MetricCatalog {
		_, ok := c.Metrics[info.Name]
		assert.True(t, ok, "missing metric key %s", info.Name)
	}
}

func TestExtractDeterministic(t *testing.T) {
	data := widgetClass()
	ex := NewExtractor(contract.DefaultAnalysisSettings())
	a, err := ex.Extract("a", data)
	require.NoError(t, err)
	b, err := ex.Extract("b", data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractNestedClass(t *testing.T) {
	g := newClassGen("demo/Widget$Inner", "demo/WidgetException")
	g.access = 0x0020 // ACC_SUPER only, like javac emits for private nested classes
	g.innerClass("demo/Widget$Inner", "demo/Widget", "Inner", accPrivate|accStatic)
	code := (&codeBuf{}).
		op2(opInvokestatic, g.methodRef("demo/Widget$Other", "help", "()V")).
		op2(opInvokestatic, g.methodRef("demo/Widget", "outer", "()V")).
		op2(opInvokevirtual, g.methodRef("java/lang/Object", "hashCode", "()I")).
		op(0x57).
		op2(opInvokevirtual, g.methodRef("[I", "clone", "()Ljava/lang/Object;")).
		op(0x57).
		op2(opInvokestatic, g.methodRef("demo/util/Strings$Helper", "trim", "()V")).
		op2(opNew, g.class("java/lang/IllegalStateException")).
		op(opAthrow)
	g.method(methodSpec{access: accStatic, name: "go", desc: "()V", code: code.b, maxLocals: 0})

	c, err := NewExtractor(contract.DefaultAnalysisSettings()).Extract("", g.bytes())
	require.NoError(t, err)

	assert.Equal(t, "demo.Widget$Inner", c.Name)
	assert.Equal(t, "demo.Widget", c.OuterClassName)
	assert.Equal(t, 1, c.Get(schema.IsInnerClass))
	assert.Equal(t, 1, c.Get(schema.IsPrivate))
	assert.Equal(t, 0, c.Get(schema.IsPublic))
	assert.Equal(t, 1, c.Get(schema.IsException))
	assert.Equal(t, 1, c.Get(schema.ThrowCount))
	assert.Equal(t, 1, c.Get(schema.StaticMethodCount))
	assert.Equal(t, map[string]int{"demo.util.Strings": 1}, c.ExternalCalls)
	// nested references are promoted to their outermost class
	assert.ElementsMatch(t, []string{
		"demo.Widget", "demo.WidgetException", "demo.util.Strings", "java.lang.IllegalStateException",
	}, c.Dependencies.Sorted())
}

func TestExtractInterface(t *testing.T) {
	g := newClassGen("demo/Shape", "java/lang/Object")
	g.access = accPublic | accInterface | accAbstract
	g.method(methodSpec{access: accPublic | accAbstract, name: "area", desc: "()D"})

	c, err := NewExtractor(contract.DefaultAnalysisSettings()).Extract("", g.bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Get(schema.IsInterface))
	assert.Equal(t, 1, c.Get(schema.IsAbstract))
	assert.Equal(t, 0, c.Get(schema.InstructionCount))
	assert.Empty(t, c.Dependencies)
	assert.Empty(t, c.ExternalCalls)
}

func TestExtractRejectsMalformedInput(t *testing.T) {
	ex := NewExtractor(contract.DefaultAnalysisSettings())

	badMagic := widgetClass()
	badMagic[3] = 0xBF

	oldVersion := newClassGen("demo/Old", "java/lang/Object")
	oldVersion.major = 44
	newVersion := newClassGen("demo/New", "java/lang/Object")
	newVersion.major = 99

	badOpcode := newClassGen("demo/Bad", "java/lang/Object")
	badOpcode.method(methodSpec{name: "x", desc: "()V", code: []byte{0xfe}, maxLocals: 0})

	truncatedSwitch := newClassGen("demo/Switch", "java/lang/Object")
	truncatedSwitch.method(methodSpec{name: "x", desc: "()V", code: []byte{opTableswitch, 0, 0, 0}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{0xCA, 0xFE}},
		{"bad magic", badMagic},
		{"major too old", oldVersion.bytes()},
		{"major too new", newVersion.bytes()},
		{"unknown opcode", badOpcode.bytes()},
		{"truncated switch", truncatedSwitch.bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ex.Extract("broken.class", tt.data)
			require.Error(t, err)
			assert.Nil(t, c)
			var de *contract.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "broken.class", de.Entry)
		})
	}
}

func TestExtractEveryTruncation(t *testing.T) {
	data := widgetClass()
	ex := NewExtractor(contract.DefaultAnalysisSettings())
	for n := range len(data) {
		assert.NotPanics(t, func() {
			_, err := ex.Extract("", data[:n])
			assert.Error(t, err, "prefix of %d bytes", n)
		})
	}
}

func TestExtractWideInstructions(t *testing.T) {
	g := newClassGen("demo/Wide", "java/lang/Object")
	code := []byte{
		opWide, 0x15, 0x01, 0x00, // wide iload 256
		opWide, opIinc, 0x01, 0x00, 0x00, 0x05, // wide iinc 256 5
		opWide, opAstore, 0x01, 0x01, // wide astore 257
		0xb1,
	}
	g.method(methodSpec{access: accPublic, name: "w", desc: "()V", code: code, maxLocals: 300})

	c, err := NewExtractor(contract.DefaultAnalysisSettings()).Extract("", g.bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, c.Get(schema.InstructionCount))
	assert.Equal(t, 1, c.Get(schema.ILoadCount))
	assert.Equal(t, 1, c.Get(schema.IncrementOpCount))
	assert.Equal(t, 1, c.Get(schema.RStoreCount))
	assert.Equal(t, 300, c.Get(schema.LocalVarCount))
}

func TestIsInternalTarget(t *testing.T) {
	tests := []struct {
		name, owner, super, target string
		want                       bool
	}{
		{"self", "a.B", "a.Base", "a.B", true},
		{"superclass", "a.B", "a.Base", "a.Base", true},
		{"root object", "a.B", "a.Base", "java.lang.Object", true},
		{"inner of owner", "a.B", "a.Base", "a.B$C", true},
		{"deep inner of owner", "a.B", "a.Base", "a.B$C$D", true},
		{"textual parent", "a.B$C", "java.lang.Object", "a.B", true},
		{"sibling", "a.B$C", "java.lang.Object", "a.B$D", true},
		{"same package", "a.B", "a.Base", "a.Other", false},
		{"prefix without separator", "a.B", "a.Base", "a.BB", false},
		{"other library", "a.B", "a.Base", "java.util.List", false},
		{"top-level has no siblings", "a.B", "a.Base", "a.C", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInternalTarget(tt.owner, tt.super, tt.target))
		})
	}
}

func FuzzExtract(f *testing.F) {
	f.Add(widgetClass())
	f.Add([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 1})
	f.Add([]byte{})
	ex := NewExtractor(contract.DefaultAnalysisSettings())
	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := ex.Extract("fuzz", data)
		if err != nil {
			assert.Nil(t, c)
			return
		}
		assert.NotEmpty(t, c.Name)
		assert.Equal(t, len(data), c.Get(schema.RawSize))
	})
}
