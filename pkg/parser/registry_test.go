package parser

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explosionLink/stone-control/pkg/cutsheet"
)

type stubParser struct {
	code string
}

func (s stubParser) ClientCode() string { return s.code }

func (s stubParser) Parse(ctx context.Context, pdfPath, orderCode string) ([]cutsheet.Panel, error) {
	return nil, ErrNoDrawings
}

func TestRegistry(t *testing.T) {
	veneta := NewVenetaCucine(DefaultOptions(t.TempDir()), zerolog.Nop())
	reg, err := NewRegistry(veneta, stubParser{code: "acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME", ClientVenetaCucine}, reg.Codes())

	tests := []struct {
		name string
		code string
		want string
	}{
		{"exact", ClientVenetaCucine, ClientVenetaCucine},
		{"lower case", "veneta_cucine", ClientVenetaCucine},
		{"padded", "  ACME ", "acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Get(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ClientCode())
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Empty(t, reg.Codes())

	_, err = reg.Get("NOPE")
	assert.ErrorIs(t, err, ErrUnknownClient)
	assert.Contains(t, err.Error(), "NOPE")

	require.NoError(t, reg.Register(stubParser{code: "A"}))
	assert.Error(t, reg.Register(stubParser{code: "a"}), "codes are case-insensitive")
	assert.Error(t, reg.Register(stubParser{code: " "}))
	assert.Error(t, reg.Register(nil))

	_, err = NewRegistry(stubParser{code: "A"}, stubParser{code: "A"})
	assert.Error(t, err)
}
