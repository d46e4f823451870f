package shapejson

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/viant/shapejson/jsonerr"
	"github.com/viant/shapejson/marshal"
	"github.com/viant/shapejson/unmarshal"
)

var defaultMarshalEngine, defaultUnmarshalEngine = newEngines(nil, nil)

func newEngines(ctx context.Context, opts []Option) (*marshal.Engine, *unmarshal.Engine) {
	cfg := resolveOptions(ctx, opts)
	return marshal.New(cfg.marshalConfig()), unmarshal.New(cfg.unmarshalConfig())
}

func marshalEngine(ctx context.Context, opts []Option) (*marshal.Engine, context.Context) {
	if len(opts) == 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		return defaultMarshalEngine, ctx
	}
	cfg := resolveOptions(ctx, opts)
	return marshal.New(cfg.marshalConfig()), cfg.Ctx
}

func unmarshalEngine(ctx context.Context, opts []Option) (*unmarshal.Engine, context.Context) {
	if len(opts) == 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		return defaultUnmarshalEngine, ctx
	}
	cfg := resolveOptions(ctx, opts)
	return unmarshal.New(cfg.unmarshalConfig()), cfg.Ctx
}

// MarshalContext marshals with an explicit context.
func MarshalContext(ctx context.Context, value interface{}, opts ...Option) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return marshalWith(ctx, value, opts)
}

// Marshal marshals using context.Background unless overridden by options.
func Marshal(value interface{}, opts ...Option) ([]byte, error) {
	return marshalWith(nil, value, opts)
}

func marshalWith(ctx context.Context, value interface{}, opts []Option) ([]byte, error) {
	m, ctx := marshalEngine(ctx, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Marshal(value)
}

// MarshalIndent marshals with prettified output.
func MarshalIndent(value interface{}, opts ...Option) ([]byte, error) {
	withIndent := make([]Option, 0, len(opts)+1)
	withIndent = append(withIndent, WithPrettify(true))
	withIndent = append(withIndent, opts...)
	return marshalWith(nil, value, withIndent)
}

// MarshalTo appends the encoded value to dst.
func MarshalTo(dst []byte, value interface{}, opts ...Option) ([]byte, error) {
	m, ctx := marshalEngine(nil, opts)
	if err := ctx.Err(); err != nil {
		return dst, err
	}
	return m.MarshalTo(dst, value)
}

// UnmarshalContext unmarshals with an explicit context.
func UnmarshalContext(ctx context.Context, data []byte, dest interface{}, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return unmarshalWith(ctx, data, dest, opts)
}

// Unmarshal unmarshals using context.Background unless overridden by options.
func Unmarshal(data []byte, dest interface{}, opts ...Option) error {
	return unmarshalWith(nil, data, dest, opts)
}

func unmarshalWith(ctx context.Context, data []byte, dest interface{}, opts []Option) error {
	u, ctx := unmarshalEngine(ctx, opts)
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.Unmarshal(data, dest)
}

// UnmarshalPath reads the value at the gjson path into dest. Error offsets are relative
// to data.
func UnmarshalPath(data []byte, path string, dest interface{}, opts ...Option) error {
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return &jsonerr.Error{Code: jsonerr.KeyNotFound, Offset: -1, Detail: path}
	}
	raw := []byte(result.Raw)
	if result.Index > 0 {
		raw = data[result.Index : result.Index+len(result.Raw)]
	}
	err := unmarshalWith(nil, raw, dest, opts)
	if err == nil || result.Index <= 0 {
		return err
	}
	var jsonErr *jsonerr.Error
	if errors.As(err, &jsonErr) && jsonErr.Offset >= 0 {
		jsonErr.Offset += result.Index
	}
	return err
}

// Valid reports, as an error, whether data is exactly one conforming JSON value.
func Valid(data []byte, opts ...Option) error {
	u, _ := unmarshalEngine(nil, opts)
	return u.Valid(data)
}
