package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/utilityops/records-service/internal/domain"
)

func TestWriteConnections(t *testing.T) {
	conns := []domain.Connection{
		{AccountNumber: "ACC-001", OwnerName: "Nimal Perera", Area: "Galle", Purpose: "Domestic", CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{AccountNumber: "ACC-002", OwnerName: "Kamala Silva", Area: "Matara", Purpose: "Industrial"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteConnections(&buf, conns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Account Number", rows[0][0])
	assert.Equal(t, "ACC-001", rows[1][0])
	assert.Equal(t, "Nimal Perera", rows[1][1])
	assert.Equal(t, "2024-05-01 09:30:00", rows[1][9])
	assert.Equal(t, "Industrial", rows[2][8])
}

func TestWriteConnectionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConnections(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
