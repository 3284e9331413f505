// Package bytecode decodes compiled class files and extracts class-level metrics.
package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/classdrift/internal/contract"
)

const classMagic = 0xCAFEBABE

// Accepted class file major versions (JDK 1.0.2 through the current generation).
const (
	minMajorVersion = 45
	maxMajorVersion = 80
)

// Access flags shared by classes, fields and methods.
const (
	accPublic       = 0x0001
	accPrivate      = 0x0002
	accProtected    = 0x0004
	accStatic       = 0x0008
	accFinal        = 0x0010
	accSynchronized = 0x0020
	accInterface    = 0x0200
	accAbstract     = 0x0400
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// reader is a bounds-checked big-endian cursor. The first failure sticks and
// every later read returns zero values.
type reader struct {
	buf []byte
	pos int
	err *contract.DecodeError
}

func (r *reader) fail(reason string, args ...any) {
	if r.err == nil {
		r.err = &contract.DecodeError{Offset: r.pos, Reason: fmt.Sprintf(reason, args...)}
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.buf)-r.pos {
		r.fail("truncated: need %d bytes, %d left", n, len(r.buf)-r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// cpEntry is one decoded constant pool slot.
type cpEntry struct {
	tag  uint8
	utf8 string
	a, b uint16 // referenced indexes, meaning depends on tag
}

type constantPool []cpEntry

func (cp constantPool) entry(idx uint16, tags ...uint8) (cpEntry, bool) {
	if int(idx) <= 0 || int(idx) >= len(cp) {
		return cpEntry{}, false
	}
	e := cp[idx]
	for _, t := range tags {
		if e.tag == t {
			return e, true
		}
	}
	return cpEntry{}, false
}

func (cp constantPool) utf8(idx uint16) (string, bool) {
	e, ok := cp.entry(idx, tagUtf8)
	return e.utf8, ok
}

// className returns the internal name of a Class constant, e.g. java/lang/String
// or [Ljava/lang/String; for array classes.
func (cp constantPool) className(idx uint16) (string, bool) {
	e, ok := cp.entry(idx, tagClass)
	if !ok {
		return "", false
	}
	return cp.utf8(e.a)
}

// memberRef resolves a Fieldref, Methodref or InterfaceMethodref.
func (cp constantPool) memberRef(idx uint16) (owner, name, desc string, ok bool) {
	e, ok := cp.entry(idx, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if !ok {
		return "", "", "", false
	}
	owner, ok = cp.className(e.a)
	if !ok {
		return "", "", "", false
	}
	nt, ok := cp.entry(e.b, tagNameAndType)
	if !ok {
		return "", "", "", false
	}
	name, ok1 := cp.utf8(nt.a)
	desc, ok2 := cp.utf8(nt.b)
	return owner, name, desc, ok1 && ok2
}

// codeAttr is the decoded Code attribute of a method.
type codeAttr struct {
	maxLocals      int
	code           []byte
	exceptionTable []exceptionEntry
}

type exceptionEntry struct {
	catchType uint16 // 0 means finally / catch-all
}

// member is a decoded field or method.
type member struct {
	access     uint16
	name       string
	descriptor string
	hasConst   bool     // field ConstantValue attribute
	code       *codeAttr
	exceptions []string // method Exceptions attribute, internal names
}

// classFile is the decoded structure of one class.
type classFile struct {
	access      uint16
	innerAccess uint16 // access flags from the InnerClasses entry describing this class
	hasInner    bool
	thisName    string // internal name
	superName   string // internal name, empty for java/lang/Object
	interfaces  []string
	fields      []member
	methods     []member
	pool        constantPool
}

// parseClassFile frames raw bytes as a class file.
func parseClassFile(data []byte) (*classFile, error) {
	r := &reader{buf: data}
	if magic := r.u4(); r.err == nil && magic != classMagic {
		r.pos = 0
		r.fail("bad magic 0x%08X", magic)
	}
	_ = r.u2() // minor
	major := r.u2()
	if r.err == nil && (major < minMajorVersion || major > maxMajorVersion) {
		r.fail("unsupported major version %d", major)
	}

	cf := &classFile{}
	cf.pool = parseConstantPool(r)

	cf.access = r.u2()
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return nil, r.err
	}

	var ok bool
	if cf.thisName, ok = cf.pool.className(thisIdx); !ok {
		r.fail("this_class index %d is not a class constant", thisIdx)
		return nil, r.err
	}
	if superIdx != 0 {
		if cf.superName, ok = cf.pool.className(superIdx); !ok {
			r.fail("super_class index %d is not a class constant", superIdx)
			return nil, r.err
		}
	}

	count := int(r.u2())
	for range count {
		idx := r.u2()
		if name, ok := cf.pool.className(idx); ok {
			cf.interfaces = append(cf.interfaces, name)
		}
	}

	cf.fields = parseMembers(r, cf.pool)
	cf.methods = parseMembers(r, cf.pool)
	parseClassAttributes(r, cf)

	if r.err != nil {
		return nil, r.err
	}
	return cf, nil
}

func parseConstantPool(r *reader) constantPool {
	count := int(r.u2())
	if r.err != nil {
		return nil
	}
	if count == 0 {
		r.fail("empty constant pool")
		return nil
	}
	cp := make(constantPool, count)
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.utf8 = decodeModifiedUTF8(r.take(n))
		case tagInteger, tagFloat:
			_ = r.u4()
		case tagLong, tagDouble:
			_ = r.take(8)
			cp[i] = e
			i++ // eight-byte constants occupy two slots
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandle:
			_ = r.u1()
			e.a = r.u2()
		default:
			r.pos--
			r.fail("unknown constant pool tag %d at slot %d", tag, i)
		}
		cp[i] = e
	}
	return cp
}

func parseMembers(r *reader, cp constantPool) []member {
	count := int(r.u2())
	if r.err != nil {
		return nil
	}
	members := make([]member, 0, min(count, 1<<12))
	for range count {
		m := member{access: r.u2()}
		m.name, _ = cp.utf8(r.u2())
		m.descriptor, _ = cp.utf8(r.u2())
		attrs := int(r.u2())
		for range attrs {
			nameIdx := r.u2()
			length := r.u4()
			if length > math.MaxInt32 {
				r.fail("attribute length %d too large", length)
			}
			body := r.take(int(length))
			if r.err != nil {
				return members
			}
			attrName, _ := cp.utf8(nameIdx)
			switch attrName {
			case "ConstantValue":
				m.hasConst = true
			case "Code":
				m.code = parseCode(body, r.pos-len(body), r)
			case "Exceptions":
				m.exceptions = parseExceptions(body, cp)
			}
		}
		if r.err != nil {
			return members
		}
		members = append(members, m)
	}
	return members
}

// parseCode decodes a Code attribute body. base is the body offset in the class
// file, used for error positions.
func parseCode(body []byte, base int, outer *reader) *codeAttr {
	r := &reader{buf: body}
	c := &codeAttr{}
	_ = r.u2() // max_stack
	c.maxLocals = int(r.u2())
	codeLen := r.u4()
	if codeLen > math.MaxInt32 {
		r.fail("code length %d too large", codeLen)
	}
	c.code = r.take(int(codeLen))
	n := int(r.u2())
	for range n {
		_ = r.take(6) // start_pc, end_pc, handler_pc
		c.exceptionTable = append(c.exceptionTable, exceptionEntry{catchType: r.u2()})
	}
	if r.err != nil {
		outer.err = &contract.DecodeError{Offset: base + r.err.Offset, Reason: "code attribute: " + r.err.Reason}
		return nil
	}
	return c
}

func parseExceptions(body []byte, cp constantPool) []string {
	r := &reader{buf: body}
	n := int(r.u2())
	var out []string
	for range n {
		if name, ok := cp.className(r.u2()); ok && r.err == nil {
			out = append(out, name)
		}
	}
	return out
}

// parseClassAttributes reads class attributes, keeping only the InnerClasses entry
// that describes this class so nested classes get their declared visibility.
func parseClassAttributes(r *reader, cf *classFile) {
	count := int(r.u2())
	for range count {
		nameIdx := r.u2()
		length := r.u4()
		if length > math.MaxInt32 {
			r.fail("attribute length %d too large", length)
		}
		body := r.take(int(length))
		if r.err != nil {
			return
		}
		if name, _ := cf.pool.utf8(nameIdx); name != "InnerClasses" {
			continue
		}
		ar := &reader{buf: body}
		n := int(ar.u2())
		for range n {
			inner := ar.u2()
			_ = ar.u2() // outer_class_info
			_ = ar.u2() // inner_name
			flags := ar.u2()
			if ar.err != nil {
				break
			}
			if innerName, ok := cf.pool.className(inner); ok && innerName == cf.thisName {
				cf.innerAccess = flags
				cf.hasInner = true
			}
		}
	}
}

// decodeModifiedUTF8 converts the class file string encoding. Unpaired or
// truncated sequences become the replacement character.
func decodeModifiedUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			sb.WriteByte(c)
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			sb.WriteRune(rune(c&0x1F)<<6 | rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			sb.WriteRune(rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F))
			i += 3
		default:
			sb.WriteRune('�')
			i++
		}
	}
	return sb.String()
}

// dotted converts an internal name to its dotted form.
func dotted(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
