package pipeline

import (
	"errors"
	"fmt"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/inference"
	"github.com/funvibe/classinfer/internal/registration"
	"github.com/funvibe/classinfer/internal/report"
	"github.com/funvibe/classinfer/internal/store"
	"github.com/funvibe/classinfer/internal/typesystem"
)

// LoadProcessor reads the YAML syntax tree at ctx.FilePath unless a unit
// was supplied directly.
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Unit != nil {
		return ctx
	}
	unit, arena, err := ast.LoadFile(ctx.FilePath)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Unit, ctx.Arena = unit, arena
	return ctx
}

// RegistrationProcessor declares constructors and classes.
type RegistrationProcessor struct{}

func (RegistrationProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Unit == nil {
		return ctx
	}
	reg, err := registration.Register(ctx.Arena, typesystem.New(), ctx.Reporter)
	if err != nil {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("registering %s: %w", ctx.FilePath, err))
		return ctx
	}
	ctx.Registry = reg
	return ctx
}

// InferenceProcessor types every node of the unit.
type InferenceProcessor struct{}

func (InferenceProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Registry == nil {
		return ctx
	}
	in := inference.New(ctx.Arena, ctx.Registry, ctx.Reporter, inference.Options{
		MaxLiteralBits: ctx.Options.MaxLiteralBits,
		Logger:         ctx.Logger,
	})
	ctx.Inferer = in
	if _, err := in.Analyze(ctx.Unit); err != nil {
		if !errors.Is(err, diagnostics.ErrAborted) {
			ctx.Errors = append(ctx.Errors, err)
		}
		ctx.Aborted = true
	}
	return ctx
}

// ReportProcessor flattens the run into a report.
type ReportProcessor struct{}

func (ReportProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Arena == nil {
		return ctx
	}
	ctx.Report = report.Build(ctx.FilePath, ctx.Arena, ctx.Inferer, ctx.Reporter.Errors(), ctx.Aborted)
	return ctx
}

// StoreProcessor persists the report. A nil Store disables it.
type StoreProcessor struct {
	Store *store.Store
}

func (p StoreProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if p.Store == nil || ctx.Report == nil {
		return ctx
	}
	if err := p.Store.Save(ctx.Context, ctx.Report); err != nil {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

// Check returns the standard stages: load, register, infer and report,
// followed by persistence when s is not nil.
func Check(s *store.Store) *Pipeline {
	return New(
		LoadProcessor{},
		RegistrationProcessor{},
		InferenceProcessor{},
		ReportProcessor{},
		StoreProcessor{Store: s},
	)
}
