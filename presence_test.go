package shapejson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileHas struct {
	ID    bool
	Name  bool
	Email bool
}

type profile struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Has   *profileHas `setMarker:"true"`
}

func TestIsPresent(t *testing.T) {
	var actual profile
	present, err := IsPresent(&actual, "name")
	require.NoError(t, err)
	assert.True(t, present, "nil holder reports every member present")

	require.NoError(t, Unmarshal([]byte(`{"name":"x","email":""}`), &actual))
	testCases := []struct {
		name   string
		expect bool
	}{
		{name: "id", expect: false},
		{name: "name", expect: true},
		{name: "Email", expect: true},
	}
	for _, testCase := range testCases {
		present, err := IsPresent(&actual, testCase.name)
		require.NoError(t, err, testCase.name)
		assert.Equal(t, testCase.expect, present, testCase.name)
	}

	require.NoError(t, ResetPresence(&actual))
	require.NoError(t, Unmarshal([]byte(`{"id":1}`), &actual))
	present, err = IsPresent(&actual, "id")
	require.NoError(t, err)
	assert.True(t, present)
	present, err = IsPresent(&actual, "name")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, "x", actual.Name)

	_, err = IsPresent(&actual, "phone")
	assert.Error(t, err)
	_, err = IsPresent(actual, "id")
	assert.Error(t, err)

	unmarked := contact{}
	present, err = IsPresent(&unmarked, "kind")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Error(t, ResetPresence(&unmarked))
}
