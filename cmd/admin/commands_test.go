package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"civicreport/backend/internal/auth"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCLI() (*CLI, *storagetest.Store, *bytes.Buffer) {
	store := storagetest.New()
	out := &bytes.Buffer{}
	return &CLI{Storage: store, JWTSecret: "cli-secret", Out: out}, store, out
}

func TestRun_AddUserAndSetRole(t *testing.T) {
	// Arrange
	cli, store, out := newCLI()
	ctx := context.Background()

	// Act
	require.NoError(t, cli.Run(ctx, []string{"add-user", "anna", "citizen", "anna@example.org"}))
	users := out.String()
	id := store.AddUser(models.User{Username: "bob", Role: models.RoleCitizen})
	require.NoError(t, cli.Run(ctx, []string{"set-role", uintArg(id), "technical_staff_member"}))

	// Assert
	assert.Contains(t, users, "created with role CITIZEN")
	u, err := store.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTechnicalStaffMember, u.Role)
}

func TestRun_AddCategoryAndList(t *testing.T) {
	cli, store, out := newCLI()
	ctx := context.Background()
	office := store.AddOffice(models.Office{Name: "Public Lighting Office"})

	require.NoError(t, cli.Run(ctx, []string{"add-category", "Street lighting", uintArg(office)}))
	require.NoError(t, cli.Run(ctx, []string{"add-category", "Potholes"}))
	require.NoError(t, cli.Run(ctx, []string{"categories"}))

	assert.Contains(t, out.String(), "Street lighting\tPublic Lighting Office")
	assert.Contains(t, out.String(), "Potholes\t-")
}

func TestRun_TokenResolvesToUser(t *testing.T) {
	cli, store, out := newCLI()
	id := store.AddUser(models.User{Username: "pro", Role: models.RolePublicRelationsOfficer})

	require.NoError(t, cli.Run(context.Background(), []string{"token", uintArg(id), "1h"}))

	actor, err := auth.NewJWTIdentity("cli-secret").Resolve(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, models.Actor{ID: id, Role: models.RolePublicRelationsOfficer}, actor)
}

func TestRun_Reports(t *testing.T) {
	cli, store, out := newCLI()
	ctx := context.Background()
	creator := store.AddUser(models.User{Username: "c"})
	require.NoError(t, store.CreateReport(ctx, &models.Report{Title: "Fallen tree", Status: models.StatusSubmitted, CreatedByID: creator}))

	require.NoError(t, cli.Run(ctx, []string{"reports", "submitted"}))

	assert.Contains(t, out.String(), "Fallen tree")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"ban", "1"}},
		{"bad role", []string{"add-user", "x", "janitor"}},
		{"bad id", []string{"set-role", "abc", "CITIZEN"}},
		{"unknown user", []string{"set-role", "99", "CITIZEN"}},
		{"bad ttl", []string{"token", "1", "soon"}},
		{"bad status", []string{"reports", "closed"}},
		{"empty category", []string{"add-category", "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := newCLI()

			err := cli.Run(context.Background(), tt.args)

			assert.Error(t, err)
		})
	}
}

func uintArg(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
