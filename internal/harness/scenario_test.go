package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: basic
steps:
  - op: insert_rate
    ref: R1
  - op: submit
    rates: [R1]
    reason: first
assertions:
  - rate: R1
    status: SUBMITTED
    draft: []
    revisions:
      - reason: first
        members: []
`))
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, OpSubmit, s.Steps[1].Op)
	assert.Equal(t, []string{"R1"}, s.Steps[1].Rates)

	require.Len(t, s.Assertions, 1)
	a := s.Assertions[0]
	require.NotNil(t, a.Draft)
	assert.Empty(t, *a.Draft)
	require.Len(t, a.Revisions, 1)
	assert.Equal(t, "first", a.Revisions[0].Reason)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc:  "steps:\n  - op: insert_rate\n    ref: R\n",
			want: "name is required",
		},
		{
			name: "no steps",
			doc:  "name: x\n",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			doc:  "name: x\nsteps:\n  - op: delete_rate\n    ref: R\n",
			want: `unknown op "delete_rate"`,
		},
		{
			name: "insert without ref",
			doc:  "name: x\nsteps:\n  - op: insert_contract\n",
			want: "ref is required",
		},
		{
			name: "duplicate ref",
			doc:  "name: x\nsteps:\n  - op: insert_rate\n    ref: R\n  - op: insert_contract\n    ref: R\n",
			want: `ref "R" already used`,
		},
		{
			name: "empty submit",
			doc:  "name: x\nsteps:\n  - op: submit\n",
			want: "submit needs a contract or rates",
		},
		{
			name: "assertion on wrong kind",
			doc:  "name: x\nsteps:\n  - op: insert_rate\n    ref: R\nassertions:\n  - contract: R\n",
			want: `"R" is not a contract ref`,
		},
		{
			name: "assertion on both kinds",
			doc:  "name: x\nsteps:\n  - op: insert_rate\n    ref: R\nassertions:\n  - contract: C\n    rate: R\n",
			want: "exactly one of contract and rate",
		},
		{
			name: "unknown field",
			doc:  "name: x\nsteps:\n  - op: insert_rate\n    ref: R\n    colour: blue\n",
			want: "field colour not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario")
}
