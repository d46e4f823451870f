package unmarshal

import (
	"bytes"
	"strings"

	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/shape"
)

// keyScan selects how the closing quote of a member name is located.
type keyScan uint8

const (
	scanGeneric keyScan = iota
	// scanFixed checks a single position: every name has the same length.
	scanFixed
	// scanShort probes the few positions between the shortest and longest name.
	scanShort
	// scanBounded searches the window between the shortest and longest name.
	scanBounded
)

func chooseKeyScan(stats shape.KeyStats, names int) keyScan {
	if names == 0 || stats.NeedsEscape {
		return scanGeneric
	}
	switch spread := stats.Range(); {
	case spread == 0:
		return scanFixed
	case spread < 4:
		return scanShort
	case spread < 16:
		return scanBounded
	}
	return scanGeneric
}

type namedField struct {
	key string
	fp  *fieldPlan
}

// readKey reads a member name. The result aliases the input or the key buffer.
func (p *objectPlan) readKey(d *decoder) ([]byte, int, error) {
	c, err := d.next()
	if err != nil {
		return nil, d.pos, err
	}
	offset := d.pos
	if c != '"' {
		return nil, offset, d.fail(jsonerr.SyntaxError)
	}
	if p.scan != scanGeneric && d.cfg.UnknownFieldPolicy == ErrorOnUnknown {
		start := offset + 1
		if end, ok := p.fastKeyEnd(d.data, start); ok {
			d.pos = end + 1
			return d.data[start:end], offset, nil
		}
	}
	key, err := d.readString(&d.keyBuf)
	return key, offset, err
}

// fastKeyEnd locates the closing quote using the declared name lengths. It gives up,
// leaving the generic reader to decide, whenever the candidate span is not a plain name.
func (p *objectPlan) fastKeyEnd(data []byte, start int) (int, bool) {
	minEnd, maxEnd := start+p.stats.Min, start+p.stats.Max
	if maxEnd >= len(data) {
		return 0, false
	}
	end := -1
	switch p.scan {
	case scanFixed:
		if data[maxEnd] == '"' {
			end = maxEnd
		}
	case scanShort:
		for i := minEnd; i <= maxEnd; i++ {
			if data[i] == '"' {
				end = i
				break
			}
		}
	case scanBounded:
		if i := bytes.IndexByte(data[minEnd:maxEnd+1], '"'); i >= 0 {
			end = minEnd + i
		}
	}
	if end < 0 {
		return 0, false
	}
	for _, c := range data[start:end] {
		if c == '"' || c == '\\' || c < 0x20 {
			return 0, false
		}
	}
	return end, true
}

func (p *objectPlan) add(name string, fp *fieldPlan) {
	if _, ok := p.byName[name]; ok {
		return
	}
	p.byName[name] = fp
	p.names = append(p.names, name)
	for len(p.byLen) <= len(name) {
		p.byLen = append(p.byLen, nil)
	}
	p.byLen[len(name)] = append(p.byLen[len(name)], namedField{key: name, fp: fp})
	h := foldedHash(name)
	p.byFold[h] = append(p.byFold[h], namedField{key: name, fp: fp})
}

// lookup resolves a member name to its field, nil when unknown.
func (p *objectPlan) lookup(d *decoder, key []byte) *fieldPlan {
	var fp *fieldPlan
	if d.cfg.HashKeys {
		fp = p.byName[string(key)]
	} else if len(key) < len(p.byLen) {
		for _, candidate := range p.byLen[len(key)] {
			if candidate.key == string(key) {
				fp = candidate.fp
				break
			}
		}
	}
	if fp == nil && d.cfg.CaseInsensitiveKeys {
		name := bytesToStringNoCopy(key)
		for _, candidate := range p.byFold[foldedHash(name)] {
			if strings.EqualFold(candidate.key, name) {
				return candidate.fp
			}
		}
	}
	return fp
}

// fieldKeys returns the names a field is accepted under.
func fieldKeys(field *shape.Field, compileName func(string) string) []string {
	keys := []string{field.Name}
	if compileName != nil && !field.Explicit {
		if alias := compileName(field.Name); alias != "" && alias != field.Name {
			keys = append(keys, alias)
		}
	}
	return keys
}

func foldedHash(s string) uint64 {
	const (
		offset64 = 1469598103934665603
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		h ^= uint64(c)
		h *= prime64
	}
	return h
}
