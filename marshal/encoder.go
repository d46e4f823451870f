package marshal

import (
	"sync"

	"github.com/viant/shapejson/jsonerr"
)

const maxPooledCap = 64 << 10

// Context carries per call write state: the source label and the first error raised.
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

// encoder is one write session; the indentation level follows the nesting depth.
type encoder struct {
	buf    []byte
	cfg    *Config
	engine *Engine
	ctx    Context
	depth  int
}

var encoderPool = sync.Pool{New: func() interface{} { return &encoder{buf: make([]byte, 0, 256)} }}

func acquireEncoder(engine *Engine) *encoder {
	e := encoderPool.Get().(*encoder)
	e.buf = e.buf[:0]
	e.engine = engine
	e.cfg = &engine.cfg
	e.ctx = Context{Source: engine.cfg.Source}
	e.depth = 0
	return e
}

func releaseEncoder(e *encoder) {
	if cap(e.buf) > maxPooledCap {
		e.buf = make([]byte, 0, 256)
	}
	e.buf = e.buf[:0]
	e.engine = nil
	e.cfg = nil
	e.ctx = Context{}
	encoderPool.Put(e)
}

func ensureSpare(dst []byte, minSpare int) []byte {
	if cap(dst)-len(dst) >= minSpare {
		return dst
	}
	grown := make([]byte, len(dst), len(dst)+minSpare+len(dst)/2)
	copy(grown, dst)
	return grown
}

func (e *encoder) fail(code jsonerr.Code) error {
	return e.ctx.fail(code, len(e.buf), "", nil)
}

func (e *encoder) failDetail(code jsonerr.Code, detail string, cause error) error {
	return e.ctx.fail(code, len(e.buf), detail, cause)
}

func (e *encoder) null() {
	e.buf = append(e.buf, "null"...)
}

// open writes the opening bracket of a non empty container.
func (e *encoder) open(c byte) error {
	e.depth++
	if e.depth > e.cfg.MaxDepth {
		return e.fail(jsonerr.ExceededMaxRecursiveDepth)
	}
	e.buf = append(e.buf, c)
	return nil
}

// close writes the closing bracket, on its own line when prettifying a container that
// received members.
func (e *encoder) close(c byte, empty bool) {
	e.depth--
	if !empty {
		e.newline()
	}
	e.buf = append(e.buf, c)
}

func (e *encoder) newline() {
	if !e.cfg.Prettify {
		return
	}
	e.buf = append(e.buf, '\n')
	for i := e.depth * e.cfg.IndentWidth; i > 0; i-- {
		e.buf = append(e.buf, e.cfg.IndentChar)
	}
}

// separator writes the comma before every element but the first, then the element indent.
func (e *encoder) separator(first *bool) {
	if !*first {
		e.buf = append(e.buf, ',')
	}
	*first = false
	e.newline()
}

func (e *encoder) colon() {
	if e.cfg.Prettify {
		e.buf = append(e.buf, ':', ' ')
		return
	}
	e.buf = append(e.buf, ':')
}
