package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		if err := ctx.Context.Err(); err != nil {
			ctx.Errors = append(ctx.Errors, err)
			break
		}
		// Stages run after diagnostics so that every unit gets a report;
		// a stage whose input is missing does nothing.
		ctx = processor.Process(ctx)
	}
	return ctx
}
