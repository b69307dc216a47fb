package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "current",
			args: []string{"--now", "2024-03-31T10:00:00Z"},
			want: "202403\n",
		},
		{
			name: "last week across months",
			args: []string{"--now", "2024-02-07T10:00:00Z", "--last-weeks", "1"},
			want: "202401\n202402\n",
		},
		{
			name: "last month clamps the day",
			args: []string{"--now", "2024-03-31T10:00:00Z", "--last-months", "1"},
			want: "202402\n",
		},
		{
			name: "tables",
			args: []string{"--month", "2024-07", "--table", "orders"},
			want: "202407\torders_202407\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"months"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestMonthsCommand_JSON(t *testing.T) {
	path := writeConfig(t, "prefix: app_\nseparator: \"\"\nweek_start: sunday\n")
	out, err := execute(t, "months", "--config", path, "--format", "json",
		"--from", "2023-11-20", "--to", "2024-01-02", "--table", "orders")
	require.NoError(t, err)

	var result struct {
		Months []string `json:"months"`
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"202311", "202312", "202401"}, result.Months)
	assert.Equal(t, []string{"app_orders202311", "app_orders202312", "app_orders202401"}, result.Tables)
}

func TestMonthsCommand_Errors(t *testing.T) {
	_, err := execute(t, "months", "--last-weeks", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve period")

	_, err = execute(t, "months", "--now", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")

	_, err = execute(t, "months", "extra")
	require.Error(t, err)
}
