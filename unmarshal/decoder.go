package unmarshal

import (
	"bytes"
	"sync"
	"unsafe"

	"github.com/viant/shapejson/jsonerr"
)

// Context carries per call state shared by every reader: the source label and the
// first error raised. Once an error is latched later failures report it unchanged.
type Context struct {
	Source string
	err    *jsonerr.Error
}

// Err returns the latched error or nil.
func (c *Context) Err() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

func (c *Context) fail(code jsonerr.Code, offset int, detail string, cause error) error {
	if c.err == nil {
		c.err = &jsonerr.Error{Code: code, Offset: offset, Source: c.Source, Detail: detail, Cause: cause}
	}
	return c.err
}

type decoder struct {
	data   []byte
	pos    int
	cfg    *Config
	hooks  ScannerHooks
	ctx    Context
	depth  int
	keyBuf []byte
	strBuf []byte
}

var decoderPool = sync.Pool{New: func() interface{} {
	return &decoder{keyBuf: make([]byte, 0, 64), strBuf: make([]byte, 0, 256)}
}}

func acquireDecoder(cfg *Config, data []byte) *decoder {
	d := decoderPool.Get().(*decoder)
	d.data = data
	d.pos = 0
	d.cfg = cfg
	d.hooks = cfg.Hooks
	d.depth = 0
	d.ctx = Context{Source: cfg.Source}
	return d
}

func releaseDecoder(d *decoder) {
	d.data = nil
	d.cfg = nil
	d.hooks = nil
	d.ctx = Context{}
	if cap(d.strBuf) > 1<<16 {
		d.strBuf = make([]byte, 0, 256)
	}
	if cap(d.keyBuf) > 1<<12 {
		d.keyBuf = make([]byte, 0, 64)
	}
	decoderPool.Put(d)
}

func (d *decoder) fail(code jsonerr.Code) error {
	return d.ctx.fail(code, d.pos, "", nil)
}

func (d *decoder) failAt(code jsonerr.Code, offset int) error {
	return d.ctx.fail(code, offset, "", nil)
}

func (d *decoder) failDetail(code jsonerr.Code, offset int, detail string) error {
	return d.ctx.fail(code, offset, detail, nil)
}

func (d *decoder) failCause(code jsonerr.Code, offset int, cause error) error {
	return d.ctx.fail(code, offset, "", cause)
}

// finish rejects anything but whitespace after the top level value.
func (d *decoder) finish() error {
	d.skipWS()
	if d.pos != len(d.data) {
		return d.failDetail(jsonerr.SyntaxError, d.pos, "trailing data")
	}
	return nil
}

// skipWS skips whitespace and, unless conformance is forced, /* */ and // comments.
func (d *decoder) skipWS() {
	for {
		d.pos = d.hooks.SkipWhitespace(d.data, d.pos)
		if d.cfg.ForceConformance || d.pos+1 >= len(d.data) || d.data[d.pos] != '/' {
			return
		}
		switch d.data[d.pos+1] {
		case '*':
			end := bytes.Index(d.data[d.pos+2:], []byte("*/"))
			if end < 0 {
				d.pos = len(d.data)
				return
			}
			d.pos += end + 4
		case '/':
			end := bytes.IndexByte(d.data[d.pos+2:], '\n')
			if end < 0 {
				d.pos = len(d.data)
				return
			}
			d.pos += end + 3
		default:
			return
		}
	}
}

// next skips whitespace and returns the upcoming byte without consuming it.
func (d *decoder) next() (byte, error) {
	d.skipWS()
	if d.pos >= len(d.data) {
		return 0, d.fail(jsonerr.UnexpectedEnd)
	}
	return d.data[d.pos], nil
}

// expect consumes c or fails with code.
func (d *decoder) expect(c byte, code jsonerr.Code) error {
	got, err := d.next()
	if err != nil {
		return err
	}
	if got != c {
		return d.fail(code)
	}
	d.pos++
	return nil
}

// literal consumes word at the current position.
func (d *decoder) literal(word string, code jsonerr.Code) error {
	rest := d.data[d.pos:]
	if len(rest) < len(word) {
		if string(rest) == word[:len(rest)] {
			return d.failAt(jsonerr.UnexpectedEnd, len(d.data))
		}
		return d.fail(code)
	}
	if string(rest[:len(word)]) != word {
		return d.fail(code)
	}
	d.pos += len(word)
	return nil
}

// null consumes a null literal when one is next.
func (d *decoder) null() (bool, error) {
	c, err := d.next()
	if err != nil {
		return false, err
	}
	if c != 'n' {
		return false, nil
	}
	return true, d.literal("null", jsonerr.SyntaxError)
}

// nullInto handles null for shapes without an empty state: it is ignored unless
// strict nulls are configured.
func (d *decoder) nullInto() (bool, error) {
	handled, err := d.null()
	if !handled || err != nil {
		return handled, err
	}
	if d.cfg.NullPolicy == StrictNulls {
		return true, d.failAt(jsonerr.InvalidNullableRead, d.pos-4)
	}
	return true, nil
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > d.cfg.MaxDepth {
		return d.fail(jsonerr.ExceededMaxRecursiveDepth)
	}
	return nil
}

func (d *decoder) leave() { d.depth-- }

// openArray consumes '[' and enters a nesting level.
func (d *decoder) openArray() error {
	if err := d.expect('[', jsonerr.SyntaxError); err != nil {
		return err
	}
	return d.enter()
}

// openObject consumes '{' and enters a nesting level.
func (d *decoder) openObject() error {
	if err := d.expect('{', jsonerr.SyntaxError); err != nil {
		return err
	}
	return d.enter()
}

// arraySeparator consumes the token after an element; done is set on ']'.
func (d *decoder) arraySeparator() (bool, error) {
	c, err := d.next()
	if err != nil {
		return false, err
	}
	switch c {
	case ',':
		d.pos++
		c, err = d.next()
		if err != nil {
			return false, err
		}
		if c == ']' {
			return false, d.fail(jsonerr.ExpectedBracket)
		}
		return false, nil
	case ']':
		d.pos++
		return true, nil
	}
	return false, d.fail(jsonerr.ExpectedBracket)
}

// objectSeparator consumes the token after a member; done is set on '}'.
func (d *decoder) objectSeparator() (bool, error) {
	c, err := d.next()
	if err != nil {
		return false, err
	}
	switch c {
	case ',':
		d.pos++
		return false, nil
	case '}':
		d.pos++
		return true, nil
	}
	return false, d.fail(jsonerr.ExpectedBrace)
}

func bytesToStringNoCopy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
