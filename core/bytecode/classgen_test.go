package bytecode

import (
	"encoding/binary"
	"math"
	"strconv"
)

// classGen assembles minimal but valid class files for tests.
type classGen struct {
	pool       []byte
	poolCount  uint16
	cache      map[string]uint16
	access     uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attrs      [][]byte
	major      uint16
}

func newClassGen(name, super string) *classGen {
	g := &classGen{poolCount: 1, cache: map[string]uint16{}, access: accPublic, major: 52}
	g.this = g.class(name)
	if super != "" {
		g.super = g.class(super)
	}
	return g
}

func be16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func be32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func (g *classGen) add(key string, entry []byte, slots uint16) uint16 {
	if idx, ok := g.cache[key]; ok {
		return idx
	}
	idx := g.poolCount
	g.pool = append(g.pool, entry...)
	g.poolCount += slots
	g.cache[key] = idx
	return idx
}

func (g *classGen) utf8(s string) uint16 {
	entry := append([]byte{tagUtf8}, be16(uint16(len(s)))...)
	return g.add("u:"+s, append(entry, s...), 1)
}

func (g *classGen) class(name string) uint16 {
	n := g.utf8(name)
	return g.add("c:"+name, append([]byte{tagClass}, be16(n)...), 1)
}

func (g *classGen) nameAndType(name, desc string) uint16 {
	n, d := g.utf8(name), g.utf8(desc)
	entry := append(append([]byte{tagNameAndType}, be16(n)...), be16(d)...)
	return g.add("nt:"+name+desc, entry, 1)
}

func (g *classGen) ref(tag byte, owner, name, desc string) uint16 {
	c, nt := g.class(owner), g.nameAndType(name, desc)
	entry := append(append([]byte{tag}, be16(c)...), be16(nt)...)
	return g.add(strconv.Itoa(int(tag))+":"+owner+"."+name+desc, entry, 1)
}

func (g *classGen) methodRef(owner, name, desc string) uint16 {
	return g.ref(tagMethodref, owner, name, desc)
}

func (g *classGen) fieldRef(owner, name, desc string) uint16 {
	return g.ref(tagFieldref, owner, name, desc)
}

func (g *classGen) long(v int64) uint16 {
	entry := append([]byte{tagLong}, binary.BigEndian.AppendUint64(nil, uint64(v))...)
	return g.add("j:"+strconv.FormatInt(v, 10), entry, 2)
}

func (g *classGen) double(v float64) uint16 {
	entry := append([]byte{tagDouble}, binary.BigEndian.AppendUint64(nil, math.Float64bits(v))...)
	return g.add("d:"+strconv.FormatFloat(v, 'g', -1, 64), entry, 2)
}

func (g *classGen) implements(names ...string) *classGen {
	for _, n := range names {
		g.interfaces = append(g.interfaces, g.class(n))
	}
	return g
}

func attribute(nameIdx uint16, body []byte) []byte {
	out := append(be16(nameIdx), be32(uint32(len(body)))...)
	return append(out, body...)
}

func (g *classGen) field(access uint16, name, desc string, constant bool) *classGen {
	f := append(append(be16(access), be16(g.utf8(name))...), be16(g.utf8(desc))...)
	if constant {
		f = append(f, be16(1)...)
		f = append(f, attribute(g.utf8("ConstantValue"), be16(g.long(42)))...)
	} else {
		f = append(f, be16(0)...)
	}
	g.fields = append(g.fields, f)
	return g
}

// methodSpec describes one method; a nil code means abstract or native.
type methodSpec struct {
	access     uint16
	name, desc string
	code       []byte
	maxLocals  uint16
	catches    []string // "" is a catch-all handler
	exceptions []string
}

func (g *classGen) method(m methodSpec) *classGen {
	out := append(append(be16(m.access), be16(g.utf8(m.name))...), be16(g.utf8(m.desc))...)
	var attrs [][]byte
	if m.code != nil {
		body := append(be16(4), be16(m.maxLocals)...)
		body = append(body, be32(uint32(len(m.code)))...)
		body = append(body, m.code...)
		body = append(body, be16(uint16(len(m.catches)))...)
		for _, c := range m.catches {
			var ct uint16
			if c != "" {
				ct = g.class(c)
			}
			body = append(body, 0, 0, 0, 1, 0, 2)
			body = append(body, be16(ct)...)
		}
		body = append(body, be16(0)...)
		attrs = append(attrs, attribute(g.utf8("Code"), body))
	}
	if len(m.exceptions) > 0 {
		body := be16(uint16(len(m.exceptions)))
		for _, e := range m.exceptions {
			body = append(body, be16(g.class(e))...)
		}
		attrs = append(attrs, attribute(g.utf8("Exceptions"), body))
	}
	out = append(out, be16(uint16(len(attrs)))...)
	for _, a := range attrs {
		out = append(out, a...)
	}
	g.methods = append(g.methods, out)
	return g
}

// innerClass adds an InnerClasses entry for inner with the given access flags.
func (g *classGen) innerClass(inner, outer, simple string, access uint16) *classGen {
	body := be16(1)
	body = append(body, be16(g.class(inner))...)
	body = append(body, be16(g.class(outer))...)
	body = append(body, be16(g.utf8(simple))...)
	body = append(body, be16(access)...)
	g.attrs = append(g.attrs, attribute(g.utf8("InnerClasses"), body))
	return g
}

func (g *classGen) bytes() []byte {
	out := be32(classMagic)
	out = append(out, be16(0)...)
	out = append(out, be16(g.major)...)
	out = append(out, be16(g.poolCount)...)
	out = append(out, g.pool...)
	out = append(out, be16(g.access)...)
	out = append(out, be16(g.this)...)
	out = append(out, be16(g.super)...)
	out = append(out, be16(uint16(len(g.interfaces)))...)
	for _, i := range g.interfaces {
		out = append(out, be16(i)...)
	}
	for _, group := range [][][]byte{g.fields, g.methods} {
		out = append(out, be16(uint16(len(group)))...)
		for _, m := range group {
			out = append(out, m...)
		}
	}
	out = append(out, be16(uint16(len(g.attrs)))...)
	for _, a := range g.attrs {
		out = append(out, a...)
	}
	return out
}

// codeBuf assembles a code array, keeping track of switch padding.
type codeBuf struct{ b []byte }

func (c *codeBuf) op(bs ...byte) *codeBuf {
	c.b = append(c.b, bs...)
	return c
}

func (c *codeBuf) op2(op byte, idx uint16) *codeBuf {
	c.b = append(append(c.b, op), be16(idx)...)
	return c
}

func (c *codeBuf) pad() {
	for len(c.b)%4 != 0 {
		c.b = append(c.b, 0)
	}
}

func (c *codeBuf) tableswitch(low, high int32) *codeBuf {
	c.b = append(c.b, opTableswitch)
	c.pad()
	c.b = append(c.b, be32(0)...)
	c.b = append(c.b, be32(uint32(low))...)
	c.b = append(c.b, be32(uint32(high))...)
	for i := low; i <= high; i++ {
		c.b = append(c.b, be32(0)...)
	}
	return c
}

func (c *codeBuf) lookupswitch(keys ...int32) *codeBuf {
	c.b = append(c.b, opLookupswitch)
	c.pad()
	c.b = append(c.b, be32(0)...)
	c.b = append(c.b, be32(uint32(len(keys)))...)
	for _, k := range keys {
		c.b = append(c.b, be32(uint32(k))...)
		c.b = append(c.b, be32(0)...)
	}
	return c
}
