package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/service"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type fakeAdmins struct {
	provisioned []service.ProvisionAdminRequest
	active      map[string]bool
}

func (f *fakeAdmins) ProvisionAdmin(_ context.Context, req service.ProvisionAdminRequest) (*models.AdminUser, error) {
	f.provisioned = append(f.provisioned, req)
	return &models.AdminUser{ID: "adm-1", Username: req.Username, IsActive: true}, nil
}

func (f *fakeAdmins) SetAdminActive(_ context.Context, username string, active bool) error {
	if username == "ghost" {
		return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}
	if f.active == nil {
		f.active = map[string]bool{}
	}
	f.active[username] = active
	return nil
}

func setup(password string, readErr error) (*commandLine, *fakeAdmins, *bytes.Buffer) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(password), readErr }
	admins := &fakeAdmins{}
	out := &bytes.Buffer{}
	return &commandLine{admins: admins, out: out}, admins, out
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup("", nil)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "add-admin: no username", args: []string{"add-admin"}, wantErr: errHelp},
		{name: "add-admin: empty password", args: []string{"add-admin", "-username", "asha"}, wantErr: errHelp},
		{name: "disable: no username", args: []string{"disable"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin-tool"}, tt.args...))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli, admins, out := setup("s3cret-pass", nil)

	err := cli.run([]string{"admin-tool", "add-admin", "-username", "asha", "-email", "asha@example.com", "-name", "Asha Menon"})

	require.NoError(t, err)
	require.Len(t, admins.provisioned, 1)
	assert.Equal(t, service.ProvisionAdminRequest{
		Username: "asha",
		Password: "s3cret-pass",
		Email:    "asha@example.com",
		FullName: "Asha Menon",
	}, admins.provisioned[0])
	assert.Contains(t, out.String(), `admin "asha" saved`)
}

func Test_commandLine_addAdminPromptFailure(t *testing.T) {
	cli, admins, _ := setup("", errors.New("not a terminal"))

	err := cli.run([]string{"admin-tool", "add-admin", "-username", "asha"})

	assert.EqualError(t, err, "not a terminal")
	assert.Empty(t, admins.provisioned)
}

func Test_commandLine_toggleActive(t *testing.T) {
	cli, admins, out := setup("", nil)

	require.NoError(t, cli.run([]string{"admin-tool", "disable", "-username", "asha"}))
	assert.False(t, admins.active["asha"])
	assert.Contains(t, out.String(), `admin "asha" disabled`)

	require.NoError(t, cli.run([]string{"admin-tool", "enable", "-username", "asha"}))
	assert.True(t, admins.active["asha"])

	err := cli.run([]string{"admin-tool", "enable", "-username", "ghost"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
