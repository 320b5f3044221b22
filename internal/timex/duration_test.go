package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string hours", input: `"24h"`, want: 24 * time.Hour},
		{name: "string mixed", input: `"1m30s"`, want: 90 * time.Second},
		{name: "nanoseconds", input: `1000000000`, want: time.Second},
		{name: "null", input: `null`, want: 0},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_InStruct(t *testing.T) {
	var cfg struct {
		TTL Duration `json:"ttl"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"ttl":"15m"}`), &cfg))
	assert.True(t, cfg.TTL.IsSet())
	assert.Equal(t, 15*time.Minute, cfg.TTL.Duration)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ttl":"15m0s"}`, string(out))
}
