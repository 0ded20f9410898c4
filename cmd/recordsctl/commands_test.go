package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequiresFlags(t *testing.T) {
	cmd := createUserCmd()
	cmd.SetArgs([]string{"--username", "admin"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestCreateUserDefaultRole(t *testing.T) {
	cmd := createUserCmd()
	flag := cmd.Flags().Lookup("role")
	require.NotNil(t, flag)
	assert.Equal(t, "data_entry", flag.DefValue)
}

func TestMigrateRejectsArgs(t *testing.T) {
	cmd := migrateCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
