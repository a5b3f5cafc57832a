package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard/internal/account"
	"leaderboard/internal/store"
	"leaderboard/internal/student"
)

func setup(t *testing.T) (*commandLine, *store.Backend, *bytes.Buffer) {
	t.Helper()
	backend := &store.Backend{
		Name:     "memory",
		Students: student.NewMemoryStore(),
		Accounts: account.NewMemoryStore(),
	}
	var out bytes.Buffer
	cli := &commandLine{
		open: func(context.Context) (*store.Backend, error) { return backend, nil },
		out:  &out,
	}
	return cli, backend, &out
}

func execute(cli *commandLine, stdin string, args ...string) error {
	cmd := newRootCmd(cli)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestMigrate(t *testing.T) {
	cli, _, out := setup(t)
	require.NoError(t, execute(cli, "", "migrate"))
	assert.Equal(t, "migrated memory backend\n", out.String())
}

func TestAddUser(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "faculty", args: []string{"--email", "Prof@Uni.edu", "--password", "long-enough", "--role", "faculty"}},
		{name: "student", args: []string{"--email", "s@uni.edu", "--password", "long-enough", "--student-id", "A1"}},
		{name: "student without record", args: []string{"--email", "s@uni.edu", "--password", "long-enough"}, wantErr: "--student-id"},
		{name: "short password", args: []string{"--email", "s@uni.edu", "--password", "short", "--student-id", "A1"}, wantErr: "at least 8"},
		{name: "bad role", args: []string{"--email", "s@uni.edu", "--password", "long-enough", "--role", "dean"}, wantErr: "role"},
		{name: "missing email", args: []string{"--password", "long-enough"}, wantErr: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, backend, _ := setup(t)
			err := execute(cli, "", append([]string{"adduser"}, tt.args...)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			email := account.NormalizeEmail(tt.args[1])
			_, err = account.Authenticate(context.Background(), backend.Accounts, email, "long-enough")
			assert.NoError(t, err)
		})
	}
}

func TestImport(t *testing.T) {
	cli, backend, out := setup(t)
	docs := `[
		{"student-id": "A1", "student-name": "Asha", "student-batch": "2021", "student-department": "CSE", "student-result": "3.72"},
		{"student-id": "B2", "student-name": "Bilal", "student-result": 3.1, "profileLocked": true},
		{"student-id": "C3", "student-result": "n/a"},
		{"student-id": "A1", "student-name": "Duplicate"}
	]`
	require.NoError(t, execute(cli, docs, "import", "-"))
	assert.Contains(t, out.String(), "imported 3 of 4 students")

	recs, err := backend.Students.FetchCollection(context.Background(), student.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.NotNil(t, recs[0].Result)
	assert.InDelta(t, 3.72, *recs[0].Result, 1e-9)
	require.NotNil(t, recs[1].Result)
	assert.True(t, recs[1].ProfileLocked)
	assert.Nil(t, recs[2].Result)
}

func TestImportRejectsMalformedFile(t *testing.T) {
	cli, _, _ := setup(t)
	err := execute(cli, "{not json", "import", "-")
	require.Error(t, err)
}
