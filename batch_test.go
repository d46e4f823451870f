package shapejson

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestUnmarshalBatch(t *testing.T) {
	docs := make([][]byte, 50)
	for i := range docs {
		docs[i] = []byte(`{"kind":"k` + strconv.Itoa(i) + `","value":"v"}`)
	}
	dests, err := UnmarshalBatch(context.Background(), docs, func(int) interface{} { return &contact{} }, WithBatchWorkers(4))
	require.NoError(t, err)
	require.Len(t, dests, len(docs))
	for i, dest := range dests {
		assert.Equal(t, &contact{Kind: "k" + strconv.Itoa(i), Value: "v"}, dest)
	}

	docs[7] = []byte(`{"kind":1}`)
	docs[3] = []byte(`{"kind":`)
	dests, err = UnmarshalBatch(context.Background(), docs, func(int) interface{} { return &contact{} }, WithLogger(zaptest.NewLogger(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 3")
	assert.Equal(t, UnexpectedEnd, CodeOf(err))
	assert.Equal(t, &contact{Kind: "k49", Value: "v"}, dests[49])

	dests, err = UnmarshalBatch(context.Background(), nil, func(int) interface{} { return &contact{} })
	require.NoError(t, err)
	assert.Empty(t, dests)
}

func TestMarshalBatch(t *testing.T) {
	values := []interface{}{1, "a", []int{1}, contact{Kind: "k"}, make(chan int)}
	out, err := MarshalBatch(context.Background(), values, WithBatchWorkers(2))
	require.Error(t, err)
	assert.Equal(t, UnsupportedType, CodeOf(err))
	assert.Contains(t, err.Error(), "document 4")
	assert.Equal(t, []string{"1", `"a"`, "[1]", `{"kind":"k","value":""}`}, []string{string(out[0]), string(out[1]), string(out[2]), string(out[3])})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = MarshalBatch(ctx, values[:1])
	assert.ErrorIs(t, err, context.Canceled)
}
