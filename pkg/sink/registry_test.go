package sink

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

type stubSink struct{ logger *slog.Logger }

func (s *stubSink) Name() string { return "stub" }
func (s *stubSink) Open(context.Context, core.SinkConfig) error { return nil }
func (s *stubSink) Write(context.Context, core.Dataset) error { return nil }
func (s *stubSink) Close() error { return nil }

func TestUnknownSinkError(t *testing.T) {
	err := &UnknownSinkError{Type: "parquet", Available: []string{"csv", "xlsx"}}

	assert.Contains(t, err.Error(), "parquet")
	assert.Contains(t, err.Error(), "csv")
	assert.Contains(t, err.Error(), "tablemerge.yaml")
	assert.ErrorIs(t, err, core.ErrUnknownSink)
}

func TestRegisterAndNewSink(t *testing.T) {
	Register("stub_internal", func(l *slog.Logger) Sink { return &stubSink{logger: l} })

	assert.True(t, IsRegistered("stub_internal"))
	assert.Contains(t, ListSinks(), "stub_internal")

	s, err := NewSink(core.SinkConfig{Type: "stub_internal"}, nil)
	require.NoError(t, err)
	require.IsType(t, &stubSink{}, s)
	assert.NotNil(t, s.(*stubSink).logger, "nil logger is replaced with a discard logger")
}

func TestNewSink_Errors(t *testing.T) {
	_, err := NewSink(core.SinkConfig{}, nil)
	assert.EqualError(t, err, "sink type not specified")

	_, err = NewSink(core.SinkConfig{Type: "does_not_exist"}, nil)
	var unknown *UnknownSinkError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "does_not_exist", unknown.Type)
}

func TestListSinks_Sorted(t *testing.T) {
	Register("zz_internal", func(*slog.Logger) Sink { return &stubSink{} })
	Register("aa_internal", func(*slog.Logger) Sink { return &stubSink{} })

	names := ListSinks()
	assert.IsNonDecreasing(t, names)
}
