package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

func TestGenerateReceipt(t *testing.T) {
	approved := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	req := &entity.AssetRequest{
		ID: "0b7e9f3c-1d2a-4c5b-9e8f-112233445566", AssetID: "a1",
		EmployeeEmail: "emp@acme.com", EmployeeName: "Emilio",
		ProductName: "Laptop", ProductType: entity.ProductReturnable,
		CompanyName: "Acme", HREmail: "hr@acme.com",
		RequestDate: approved.Add(-time.Hour), Status: entity.StatusApproved, ActionDate: &approved,
	}

	out, err := NewReceiptGenerator().GenerateReceipt(context.Background(), req, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "—", formatDate(nil))
	d := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "31/01/2026", formatDate(&d))
	assert.Equal(t, "N° abc", shortID("abc"))
	assert.Equal(t, "N° 12345678", shortID("1234567890"))
}
