package pipeline

import (
	"context"
	"log/slog"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/inference"
	"github.com/funvibe/classinfer/internal/registration"
	"github.com/funvibe/classinfer/internal/report"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the state shared between stages.
type PipelineContext struct {
	Context  context.Context
	FilePath string
	Options  *config.Options
	Logger   *slog.Logger

	Unit     *ast.SourceUnit
	Arena    *ast.Arena
	Registry *registration.Registry
	Inferer  *inference.Inferer
	Reporter *diagnostics.Reporter
	Report   *report.Report

	// Aborted is set when inference stopped on a fatal diagnostic.
	Aborted bool
	// Errors holds failures that are not diagnostics (I/O, storage).
	Errors []error
}

func NewPipelineContext(filePath string, opts *config.Options) *PipelineContext {
	return &PipelineContext{
		Context:  context.Background(),
		FilePath: filePath,
		Options:  opts,
		Reporter: diagnostics.NewReporter(),
	}
}

// HasErrors reports whether any stage produced a diagnostic or an error.
func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0 || ctx.Reporter.HasErrors()
}
