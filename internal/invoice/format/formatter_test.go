package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issued = time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

func TestFormatNumber_DefaultInvoiceTemplate(t *testing.T) {
	out, err := FormatNumber(DefaultInvoiceNumberTemplate, "F-", issued, 12)
	require.NoError(t, err)
	assert.Equal(t, "F-0012", out)
}

func TestFormatNumber_DefaultProFormaTemplate(t *testing.T) {
	out, err := FormatNumber(DefaultProFormaNumberTemplate, "PF-", issued, 3)
	require.NoError(t, err)
	assert.Equal(t, "PF-2026-0003", out)
}

func TestFormatNumber_DateTokens(t *testing.T) {
	out, err := FormatNumber("{YYYY}{MM}{DD}-{SEQ}", "", issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "20260307-42", out)

	out, err = FormatNumber("{YY}/{SEQ2}", "", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "26/07", out)
}

func TestFormatNumber_PaddingWiderThanSeq(t *testing.T) {
	out, err := FormatNumber("{SEQ6}", "", issued, 123)
	require.NoError(t, err)
	assert.Equal(t, "000123", out)
}

func TestFormatNumber_SeqOverflowsPadding(t *testing.T) {
	out, err := FormatNumber("{SEQ2}", "", issued, 12345)
	require.NoError(t, err)
	assert.Equal(t, "12345", out)
}

func TestFormatNumber_InvalidInputs(t *testing.T) {
	_, err := FormatNumber("", "F-", issued, 1)
	assert.Error(t, err)

	_, err = FormatNumber("{SEQ}", "F-", issued, 0)
	assert.Error(t, err)

	_, err = FormatNumber("{UNKNOWN}{SEQ}", "F-", issued, 1)
	assert.Error(t, err, "unresolved tokens must not leak into numbers")
}

func TestFormatNumber_Deterministic(t *testing.T) {
	a, err := FormatNumber(DefaultInvoiceNumberTemplate, "F-", issued, 99)
	require.NoError(t, err)
	b, err := FormatNumber(DefaultInvoiceNumberTemplate, "F-", issued, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
