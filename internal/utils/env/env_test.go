package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/devrig/internal/utils/env"
)

func TestParseSpecs(t *testing.T) {
	tests := map[string]struct {
		specs    []string
		setupEnv map[string]string
		expEnv   map[string]string
		expErr   bool
	}{
		"No specs should return an empty map.": {
			specs:  []string{},
			expEnv: map[string]string{},
		},

		"Key value specs should be parsed.": {
			specs:  []string{"FOO=bar", "BAZ=qux"},
			expEnv: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},

		"A value with an equals sign should keep everything after the first one.": {
			specs:  []string{"OPTS=-a=1 -b=2"},
			expEnv: map[string]string{"OPTS": "-a=1 -b=2"},
		},

		"An empty value should be allowed.": {
			specs:  []string{"EMPTY="},
			expEnv: map[string]string{"EMPTY": ""},
		},

		"A bare key should take its value from the process environment.": {
			specs:    []string{"DEVRIG_TEST_VAR"},
			setupEnv: map[string]string{"DEVRIG_TEST_VAR": "from-process"},
			expEnv:   map[string]string{"DEVRIG_TEST_VAR": "from-process"},
		},

		"A bare key missing from the process environment should fail.": {
			specs:  []string{"DEVRIG_TEST_MISSING_VAR"},
			expErr: true,
		},

		"An empty spec should fail.": {
			specs:  []string{""},
			expErr: true,
		},

		"An invalid key should fail.": {
			specs:  []string{"1NOPE=x"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range test.setupEnv {
				t.Setenv(k, v)
			}

			gotEnv, err := env.ParseSpecs(test.specs)

			if test.expErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expEnv, gotEnv)
		})
	}
}

func TestMergeMaps(t *testing.T) {
	tests := map[string]struct {
		base     map[string]string
		override map[string]string
		expEnv   map[string]string
	}{
		"Two empty maps should merge into an empty map.": {
			expEnv: map[string]string{},
		},

		"Override values should win on conflicting keys.": {
			base:     map[string]string{"A": "1", "B": "2"},
			override: map[string]string{"B": "3", "C": "4"},
			expEnv:   map[string]string{"A": "1", "B": "3", "C": "4"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			gotEnv := env.MergeMaps(test.base, test.override)
			assert.Equal(t, test.expEnv, gotEnv)
		})
	}
}

func TestToOSEnv(t *testing.T) {
	got := env.ToOSEnv(map[string]string{"B": "2", "A": "1", "C": "3"})
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, got)
}
