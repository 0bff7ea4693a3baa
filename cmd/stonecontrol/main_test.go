package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explosionLink/stone-control/internal/store"
	"github.com/explosionLink/stone-control/pkg/cutsheet"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stonecontrol dev")
}

func TestOrdersShowAndDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stone.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.SaveOrder(context.Background(), "306230147", "VENETA_CUCINE", []cutsheet.Panel{
		{Label: "Pezzo 1", Page: 1, WidthMM: 2155, HeightMM: 638, ThicknessMM: 20, DXFPath: "306230147_1.dxf"},
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "orders", "show", "306230147", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Order 306230147 (VENETA_CUCINE)")
	assert.Contains(t, out, "Pezzo 1")
	assert.Contains(t, out, "2155x638x20")

	_, err = execute(t, "orders", "delete", "306230147", "--db", db)
	require.NoError(t, err)

	_, err = execute(t, "orders", "show", "306230147", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestProcessRequiresOrder(t *testing.T) {
	processOrder = ""
	_, err := execute(t, "process", "missing.pdf")
	assert.Error(t, err)
}

// writeSheetPDF writes a one-page cut sheet: page frame, a 500x150 panel
// and its title block.
func writeSheetPDF(t *testing.T, path string) {
	t.Helper()
	content := "1 1 840 593 re S\n100 345 500 150 re S\n" +
		"BT /F1 10 Tf 120 80 Td (Ordine 3CAD 123) Tj ET\n" +
		"BT /F1 10 Tf 120 66 Td (2155 x 20 x 638) Tj ET\n"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding " +
			"/FirstChar 32 /LastChar 126 /Widths [" + strings.TrimSpace(strings.Repeat("600 ", 95)) + "] >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 842 595] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestProcessTrimsOrderCode(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "order.pdf")
	writeSheetPDF(t, pdfPath)
	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "stone.db")

	_, err := execute(t, "process", pdfPath, "--order", " 123 ", "--out", out, "--db", db, "--no-preview")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "123_1.dxf"))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	order, err := st.GetOrder(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", order.Code)
	_, err = st.GetOrder(context.Background(), " 123 ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
