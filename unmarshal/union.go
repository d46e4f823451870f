package unmarshal

import (
	"math/bits"
	"reflect"
	"strings"
	"unsafe"

	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

type unionPlan struct {
	desc  *shape.Descriptor
	union *shape.UnionDescriptor
	alts  []*typePlan
	// objects holds, per alternative, the plan of the struct read as an object.
	objects []*typePlan
	// deduction maps a member name to the object alternatives declaring it.
	deduction map[string]uint64
	// folded indexes deduction by case-folded name for case-insensitive reads.
	folded     map[uint64][]deductionKey
	mapAlts    uint64
	candidates uint64
	ids        map[string]int
}

type deductionKey struct {
	key  string
	alts uint64
}

// memberSpan is a member seen while resolving an object union.
type memberSpan struct {
	key      string
	offset   int
	afterKey int
}

func (c *compiler) unionDecoder(desc *shape.Descriptor) decodeFunc {
	u := desc.Union
	p := &unionPlan{desc: desc, union: u, deduction: map[string]uint64{}, ids: map[string]int{}}
	for i, alt := range u.Alternatives {
		p.alts = append(p.alts, c.plan(alt))
		p.ids[u.IDs[i]] = i
		objectDesc := alt
		if alt.Shape == shape.Nullable && !alt.Has(shape.TraitOptional) {
			objectDesc = alt.Elem
		}
		var holder *typePlan
		switch objectDesc.Shape {
		case shape.Object:
			holder = c.plan(objectDesc)
			for _, field := range objectDesc.Fields {
				for _, key := range fieldKeys(field, c.compileName) {
					p.deduction[key] |= 1 << i
				}
			}
		case shape.Map:
			p.mapAlts |= 1 << i
		}
		p.objects = append(p.objects, holder)
	}
	for _, i := range u.Objects {
		p.candidates |= 1 << i
	}
	p.folded = make(map[uint64][]deductionKey, len(p.deduction))
	for key, alts := range p.deduction {
		h := foldedHash(key)
		p.folded[h] = append(p.folded[h], deductionKey{key: key, alts: alts})
	}
	return p.decode
}

// declaring returns the object alternatives declaring key, matched the way object members are.
func (p *unionPlan) declaring(d *decoder, key []byte) uint64 {
	if alts, ok := p.deduction[string(key)]; ok || !d.cfg.CaseInsensitiveKeys {
		return alts
	}
	name := bytesToStringNoCopy(key)
	var alts uint64
	for _, candidate := range p.folded[foldedHash(name)] {
		if strings.EqualFold(candidate.key, name) {
			alts |= candidate.alts
		}
	}
	return alts
}

func classOfByte(c byte) shape.Class {
	switch {
	case c == '{':
		return shape.ClassObject
	case c == '[':
		return shape.ClassArray
	case c == '"':
		return shape.ClassString
	case c == 't', c == 'f':
		return shape.ClassBool
	case c == 'n':
		return shape.ClassNull
	case c == '-', c >= '0' && c <= '9':
		return shape.ClassNumber
	}
	return shape.ClassNone
}

func (p *unionPlan) decode(d *decoder, ptr unsafe.Pointer) error {
	if p.union.ArrayWrapped {
		return p.decodeWrapped(d, ptr)
	}
	c, err := d.next()
	if err != nil {
		return err
	}
	if c == 'n' && p.union.ByClass[shape.ClassNull] < 0 {
		if err = d.literal("null", jsonerr.SyntaxError); err != nil {
			return err
		}
		reflect.NewAt(p.desc.Type, ptr).Elem().SetZero()
		return nil
	}
	if !p.union.Deducible {
		return p.decodeHeld(d, ptr)
	}
	class := classOfByte(c)
	if class == shape.ClassObject && len(p.union.Objects) > 1 {
		return p.resolveObject(d, ptr)
	}
	k := -1
	if class != shape.ClassNone {
		k = p.union.Alternative(class)
	}
	if k < 0 {
		return d.fail(jsonerr.NoMatchingVariantType)
	}
	return p.decodeAlt(d, ptr, k)
}

// decodeHeld reads into the alternative the union currently holds.
func (p *unionPlan) decodeHeld(d *decoder, ptr unsafe.Pointer) error {
	iface := reflect.NewAt(p.desc.Type, ptr).Elem()
	k := -1
	if !iface.IsNil() {
		k = p.union.IndexOfType(iface.Elem().Type())
	}
	if k < 0 {
		return d.fail(jsonerr.NoMatchingVariantType)
	}
	return p.decodeAlt(d, ptr, k)
}

// slot returns the interface and a fresh holder for alternative k, seeded with the held
// value when it already is of that alternative.
func (p *unionPlan) slot(ptr unsafe.Pointer, k int) (reflect.Value, reflect.Value) {
	iface := reflect.NewAt(p.desc.Type, ptr).Elem()
	altType := p.union.Alternatives[k].Type
	holder := reflect.New(altType)
	if !p.desc.Has(shape.TraitAny) && !iface.IsNil() && iface.Elem().Type() == altType {
		holder.Elem().Set(iface.Elem())
	}
	return iface, holder
}

// objectPointer returns the struct address within holder, allocating a nil pointer.
func objectPointer(holder reflect.Value) unsafe.Pointer {
	value := holder.Elem()
	if value.Kind() != reflect.Ptr {
		return holder.UnsafePointer()
	}
	if value.IsNil() {
		value.Set(reflect.New(value.Type().Elem()))
	}
	return value.UnsafePointer()
}

func (p *unionPlan) objectPlan(k int) *objectPlan {
	if holder := p.objects[k]; holder != nil {
		return holder.object
	}
	return nil
}

func (p *unionPlan) decodeAlt(d *decoder, ptr unsafe.Pointer, k int) error {
	iface, holder := p.slot(ptr, k)
	var err error
	if op := p.objectPlan(k); op != nil {
		err = op.decodeTagged(d, objectPointer(holder), p.union.Tag)
	} else {
		err = p.alts[k].decode(d, holder.UnsafePointer())
	}
	if err != nil {
		return err
	}
	iface.Set(holder.Elem())
	return nil
}

// resolveObject narrows the object alternatives by member names or the discriminator.
// The alternative is then read either by rewinding to the opening brace or by replaying
// the members scanned so far.
func (p *unionPlan) resolveObject(d *decoder, ptr unsafe.Pointer) error {
	start := d.pos
	buffered := d.cfg.UnionStrategy == UnionBuffered
	var spans []memberSpan
	possible := p.candidates
	if err := d.openObject(); err != nil {
		return err
	}
	resolved := func(k int, pending *memberSpan) error {
		if buffered && p.objectPlan(k) != nil {
			return p.replay(d, ptr, k, spans, pending)
		}
		d.leave()
		d.pos = start
		return p.decodeAlt(d, ptr, k)
	}
	afterComma := false
	for {
		c, err := d.next()
		if err != nil {
			return err
		}
		if c == '}' {
			if afterComma {
				return d.fail(jsonerr.SyntaxError)
			}
			return resolved(bits.TrailingZeros64(possible), nil)
		}
		offset := d.pos
		key, err := d.readString(&d.keyBuf)
		if err != nil {
			return err
		}
		if p.union.Tag != "" && string(key) == p.union.Tag {
			if err = d.expect(':', jsonerr.ExpectedColon); err != nil {
				return err
			}
			d.skipWS()
			idOffset := d.pos
			id, err := d.readString(&d.strBuf)
			if err != nil {
				return err
			}
			k, ok := p.ids[string(id)]
			if !ok {
				return d.failDetail(jsonerr.NoMatchingVariantType, idOffset, string(id))
			}
			return resolved(k, nil)
		}
		possible &= p.declaring(d, key) | p.mapAlts
		switch bits.OnesCount64(possible) {
		case 0:
			return d.failDetail(jsonerr.NoMatchingVariantType, offset, string(key))
		case 1:
			return resolved(bits.TrailingZeros64(possible), &memberSpan{key: string(key), offset: offset, afterKey: d.pos})
		}
		if buffered {
			spans = append(spans, memberSpan{key: string(key), offset: offset, afterKey: d.pos})
		}
		if err = d.expect(':', jsonerr.ExpectedColon); err != nil {
			return err
		}
		if err = d.skipValue(); err != nil {
			return err
		}
		if c, err = d.next(); err != nil {
			return err
		}
		switch c {
		case ',':
			d.pos++
			afterComma = true
		case '}':
			afterComma = false
		default:
			return d.fail(jsonerr.ExpectedBrace)
		}
	}
}

// replay reads the recorded members into alternative k, then the remainder of the object.
func (p *unionPlan) replay(d *decoder, ptr unsafe.Pointer, k int, spans []memberSpan, pending *memberSpan) error {
	op := p.objectPlan(k)
	iface, holder := p.slot(ptr, k)
	structPtr := objectPointer(holder)
	tag := p.union.Tag
	st := op.newState(d)
	resume := d.pos
	for i := range spans {
		d.pos = spans[i].afterKey
		if err := op.member(d, structPtr, []byte(spans[i].key), spans[i].offset, tag, &st); err != nil {
			return err
		}
	}
	d.pos = resume
	if pending != nil {
		if err := op.member(d, structPtr, []byte(pending.key), pending.offset, tag, &st); err != nil {
			return err
		}
	}
	if err := op.rest(d, structPtr, tag, &st); err != nil {
		return err
	}
	d.leave()
	if err := op.finish(d, &st); err != nil {
		return err
	}
	iface.Set(holder.Elem())
	return nil
}

// decodeWrapped reads the ["id", value] form.
func (p *unionPlan) decodeWrapped(d *decoder, ptr unsafe.Pointer) error {
	c, err := d.next()
	if err != nil {
		return err
	}
	if c == 'n' {
		if err = d.literal("null", jsonerr.SyntaxError); err != nil {
			return err
		}
		reflect.NewAt(p.desc.Type, ptr).Elem().SetZero()
		return nil
	}
	if err = d.openArray(); err != nil {
		return err
	}
	d.skipWS()
	idOffset := d.pos
	id, err := d.readString(&d.strBuf)
	if err != nil {
		return err
	}
	k, ok := p.ids[string(id)]
	if !ok {
		return d.failDetail(jsonerr.NoMatchingVariantType, idOffset, string(id))
	}
	if err = d.expect(',', jsonerr.ExpectedBracket); err != nil {
		return err
	}
	if err = p.decodeAlt(d, ptr, k); err != nil {
		return err
	}
	if err = d.expect(']', jsonerr.ExpectedBracket); err != nil {
		return err
	}
	d.leave()
	return nil
}
