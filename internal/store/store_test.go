package store

import (
	"context"
	"errors"
	"testing"

	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/report"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() *report.Report {
	loc := token.Location{Source: "unit.yaml", Line: 4, Column: 2}
	cycle := diagnostics.NewError(diagnostics.ErrT005, loc, "Recursion during type class instantiation.")
	fatal := diagnostics.NewError(diagnostics.ErrF004, loc, "Attempt to type identifier referring to unexpected node.")
	fatal.Fatal = true
	return &report.Report{
		RunID:   uuid.New(),
		Source:  "unit.yaml",
		Aborted: true,
		Annotations: []report.Annotation{
			{Node: 3, Kind: "VariableDeclaration", Location: "unit.yaml:1:3", Type: "word"},
			{Node: 1, Kind: "FunctionDefinition", Location: "unit.yaml:1:1", Type: "word -> bool"},
		},
		Members:     []report.Member{{Owner: "Flag", Name: "abs", Type: "word -> Flag"}},
		Literals:    []report.Literal{{Node: 7, Text: "1e3", Value: "1000"}},
		Diagnostics: []*diagnostics.DiagnosticError{cycle, fatal},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	r := sampleReport()
	require.NoError(t, s.Save(ctx, r))

	run, err := s.LoadRun(ctx, r.RunID)
	require.NoError(t, err)
	assert.Equal(t, "unit.yaml", run.Source)
	assert.False(t, run.OK)
	assert.True(t, run.Aborted)
	assert.False(t, run.CreatedAt.IsZero())

	diags, err := s.LoadDiagnostics(ctx, r.RunID)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, Diagnostic{
		Code:     diagnostics.ErrT005,
		Location: "unit.yaml:4:2",
		Message:  "Recursion during type class instantiation.",
	}, diags[0])
	assert.True(t, diags[1].Fatal)

	annotations, err := s.Annotations(ctx, r.RunID)
	require.NoError(t, err)
	require.Len(t, annotations, 2)
	assert.Equal(t, r.Annotations[1], annotations[0], "annotations come back ordered by node")
}

func TestStore_RunsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	first, second := sampleReport(), sampleReport()
	second.Diagnostics = nil
	second.Aborted = false
	second.OK = true
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	diags, err := s.LoadDiagnostics(ctx, second.RunID)
	require.NoError(t, err)
	assert.Empty(t, diags)

	run, err := s.LoadRun(ctx, second.RunID)
	require.NoError(t, err)
	assert.True(t, run.OK)
}

func TestStore_UnknownRun(t *testing.T) {
	s := openMemory(t)
	_, err := s.LoadDiagnostics(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStore_AnnotationsOfUnknownRun(t *testing.T) {
	s := openMemory(t)
	annotations, err := s.Annotations(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrRunNotFound)
	assert.Nil(t, annotations)
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	r := sampleReport()
	require.NoError(t, s.Save(ctx, r))
	require.Error(t, s.Save(ctx, r))

	diags, err := s.LoadDiagnostics(ctx, r.RunID)
	require.NoError(t, err)
	assert.Len(t, diags, 2)
}
