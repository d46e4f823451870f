package unmarshal

import (
	"reflect"
	"unsafe"

	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

type fieldPlan struct {
	field  *shape.Field
	index  int
	decode decodeFunc
}

type objectPlan struct {
	desc     *shape.Descriptor
	fields   []*fieldPlan
	byName   map[string]*fieldPlan
	byLen    [][]namedField
	byFold   map[uint64][]namedField
	names    []string
	stats    shape.KeyStats
	scan     keyScan
	required []int
	marker   *shape.Marker
}

// fieldSet is a bitset over field indexes.
type fieldSet struct {
	small uint64
	big   []uint64
}

func newFieldSet(n int) fieldSet {
	if n > 64 {
		return fieldSet{big: make([]uint64, (n+63)/64)}
	}
	return fieldSet{}
}

func (s *fieldSet) set(i int) {
	if s.big != nil {
		s.big[i>>6] |= 1 << (i & 63)
		return
	}
	s.small |= 1 << i
}

func (s *fieldSet) has(i int) bool {
	if s.big != nil {
		return s.big[i>>6]&(1<<(i&63)) != 0
	}
	return s.small&(1<<i) != 0
}

type objectState struct {
	track bool
	seen  fieldSet
}

func (c *compiler) objectPlan(desc *shape.Descriptor) *objectPlan {
	p := &objectPlan{
		desc:   desc,
		byName: map[string]*fieldPlan{},
		byFold: map[uint64][]namedField{},
		marker: desc.Marker,
	}
	for i, field := range desc.Fields {
		fp := &fieldPlan{field: field, index: i}
		p.fields = append(p.fields, fp)
		for _, key := range fieldKeys(field, c.compileName) {
			p.add(key, fp)
		}
		if field.Required {
			p.required = append(p.required, i)
		}
	}
	for _, fp := range p.fields {
		fp.decode = c.fieldDecoder(fp.field)
	}
	p.stats = shape.ComputeKeyStats(p.names)
	p.scan = chooseKeyScan(p.stats, len(p.names))
	return p
}

// fieldDecoder applies member options such as ,string or a time layout on top of the
// type's plan; a pointer member gets the options of its target.
func (c *compiler) fieldDecoder(field *shape.Field) decodeFunc {
	desc := field.Desc
	if decode := optionDecoder(desc, field); decode != nil {
		return decode
	}
	if desc.Shape == shape.Nullable && !desc.Has(shape.TraitOptional) {
		if inner := optionDecoder(desc.Elem, field); inner != nil {
			return pointerDecoder(desc.Type.Elem(), inner)
		}
	}
	plan := c.plan(desc)
	return func(d *decoder, ptr unsafe.Pointer) error {
		return plan.decode(d, ptr)
	}
}

func optionDecoder(desc *shape.Descriptor, field *shape.Field) decodeFunc {
	switch {
	case field.Quoted && desc.Shape == shape.Number && desc.Traits == 0:
		return numberDecoder(desc.Kind, true)
	case field.Quoted && desc.Shape == shape.Bool && desc.Traits == 0:
		return boolDecoder(true)
	case field.Number && desc.Shape == shape.String && desc.Traits == 0 && desc.Kind == reflect.String:
		return stringDecoder(true)
	case field.TimeLayout != "" && desc.Has(shape.TraitTime):
		return timeDecoder(field.TimeLayout)
	}
	return nil
}

func (p *objectPlan) newState(d *decoder) objectState {
	track := d.cfg.MissingFieldPolicy == ErrorOnMissing || d.cfg.DuplicateKeyPolicy == ErrorOnDuplicate
	if !track {
		return objectState{}
	}
	return objectState{track: true, seen: newFieldSet(len(p.fields))}
}

func (p *objectPlan) decode(d *decoder, ptr unsafe.Pointer) error {
	return p.decodeTagged(d, ptr, "")
}

// decodeTagged reads an object; a member named tag is tolerated as the discriminator of
// the union the object belongs to.
func (p *objectPlan) decodeTagged(d *decoder, ptr unsafe.Pointer, tag string) error {
	if handled, err := d.nullInto(); handled || err != nil {
		return err
	}
	if err := d.openObject(); err != nil {
		return err
	}
	st := p.newState(d)
	c, err := d.next()
	if err != nil {
		return err
	}
	if c == '}' {
		d.pos++
	} else if err = p.members(d, ptr, tag, &st); err != nil {
		return err
	}
	d.leave()
	return p.finish(d, &st)
}

// members reads key/value pairs up to and including the closing brace.
func (p *objectPlan) members(d *decoder, ptr unsafe.Pointer, tag string, st *objectState) error {
	for {
		key, offset, err := p.readKey(d)
		if err != nil {
			return err
		}
		if err = p.member(d, ptr, key, offset, tag, st); err != nil {
			return err
		}
		done, err := d.objectSeparator()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// rest continues an object after a member value.
func (p *objectPlan) rest(d *decoder, ptr unsafe.Pointer, tag string, st *objectState) error {
	done, err := d.objectSeparator()
	if err != nil || done {
		return err
	}
	return p.members(d, ptr, tag, st)
}

// member reads ": value" for an already consumed key.
func (p *objectPlan) member(d *decoder, ptr unsafe.Pointer, key []byte, offset int, tag string, st *objectState) error {
	if err := d.expect(':', jsonerr.ExpectedColon); err != nil {
		return err
	}
	fp := p.lookup(d, key)
	if fp == nil {
		if d.cfg.UnknownFieldPolicy == ErrorOnUnknown && (tag == "" || string(key) != tag) {
			return d.failDetail(jsonerr.UnknownKey, offset, string(key))
		}
		return d.skipValue()
	}
	if st.track {
		if st.seen.has(fp.index) && d.cfg.DuplicateKeyPolicy == ErrorOnDuplicate {
			return d.failDetail(jsonerr.DuplicateKey, offset, fp.field.Name)
		}
		st.seen.set(fp.index)
	}
	if err := fp.decode(d, fp.field.Pointer(ptr, true)); err != nil {
		return err
	}
	if p.marker != nil && fp.field.MarkerFlag != nil {
		*(*bool)(fp.field.MarkerFlag.Pointer(p.marker.Ensure(ptr))) = true
	}
	return nil
}

// finish reports the first required field the object did not carry.
func (p *objectPlan) finish(d *decoder, st *objectState) error {
	if d.cfg.MissingFieldPolicy != ErrorOnMissing {
		return nil
	}
	for _, i := range p.required {
		if !st.seen.has(i) {
			return d.failDetail(jsonerr.MissingKey, d.pos, p.fields[i].field.Name)
		}
	}
	return nil
}
