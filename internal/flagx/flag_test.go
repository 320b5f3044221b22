package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-c", "conf.json", "-a", ":5000"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=alt.json", "-a", ":5000"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags and positionals dropped",
			args:         []string{"-x", "1", "-y=2", "register"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"-s"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s"},
		},
		{
			name:         "next flag is not swallowed as value",
			args:         []string{"-d", "-s", "secret"},
			allowedFlags: []string{"-d", "-s"},
			want:         []string{"-d", "-s", "secret"},
		},
		{
			name:         "repeats kept in order",
			args:         []string{"-b", "memory", "-b", "mongo"},
			allowedFlags: []string{"-b"},
			want:         []string{"-b", "memory", "-b", "mongo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	assert.Equal(t, "/etc/short.json", ConfigFile([]string{"-c", "/etc/short.json"}))
	assert.Equal(t, "/etc/long.json", ConfigFile([]string{"-a", ":1", "-config", "/etc/long.json"}))
	assert.Equal(t, "/etc/2.json", ConfigFile([]string{"-c", "/etc/1.json", "-config=/etc/2.json"}))
	assert.Empty(t, ConfigFile([]string{"-x", "1"}))

	t.Setenv(ConfigFileEnv, "/etc/env.json")
	assert.Equal(t, "/etc/env.json", ConfigFile(nil))
	assert.Equal(t, "/etc/flag.json", ConfigFile([]string{"-c", "/etc/flag.json"}))
}
