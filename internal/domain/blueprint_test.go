package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprintValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "object", raw: `{"user_meta":{"full_name":"A"}}`},
		{name: "empty", raw: ``, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "empty object", raw: ` {} `, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
		{name: "garbage", raw: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Blueprint(tt.raw).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlueprintEmbedsRawInJSON(t *testing.T) {
	type envelope struct {
		Blueprint Blueprint `json:"blueprint"`
	}
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{"blueprint":{"mbti":"INFJ"}}`), &env))
	assert.JSONEq(t, `{"mbti":"INFJ"}`, env.Blueprint.String())

	out, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blueprint":{"mbti":"INFJ"}}`, string(out))
}

func TestCountWordsAndChars(t *testing.T) {
	assert.Equal(t, 0, CountWords("   "))
	assert.Equal(t, 4, CountWords("one two\nthree\tfour"))
	assert.Equal(t, 5, CountChars("héllo"))
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
}
