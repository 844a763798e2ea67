package apps

import (
	"github.com/GriffinCanCode/tactility/internal/domain/app"
	"github.com/GriffinCanCode/tactility/internal/shared/bundle"
)

// Launch parameters and result keys of the input dialog
const (
	ParamTitle   = "title"
	ParamPrefill = "prefill"
	ResultInput  = "input"
)

// InputDialogManifest describes the text input dialog. It is hidden from
// the launcher; other apps start it and read ResultInput in OnResult.
func InputDialogManifest() app.Manifest {
	return app.Manifest{
		ID:       InputDialogID,
		Name:     "Input",
		Category: app.CategoryHidden,
		Factory: func() app.App {
			return &InputDialog{}
		},
	}
}

// Prompt is the dialog state stored as the context data
type Prompt struct {
	Title string
	Text  string
}

type InputDialog struct {
	app.Base
}

func (d *InputDialog) OnStart(ctx *app.Context) {
	params := ctx.Params()
	title, _ := params.GetString(ParamTitle)
	prefill, _ := params.GetString(ParamPrefill)
	ctx.SetData(Prompt{Title: title, Text: prefill})
}

// PromptOf returns the dialog state of ctx
func PromptOf(ctx *app.Context) (Prompt, bool) {
	p, ok := ctx.Data().(Prompt)
	return p, ok
}

// Submit completes the dialog with text and asks the loader to close it
func Submit(ctx *app.Context, text string) bool {
	data := bundle.New()
	data.PutString(ResultInput, text)
	ctx.SetResult(app.ResultOk, data)
	return finish(ctx)
}

// Cancel closes the dialog without input
func Cancel(ctx *app.Context) bool {
	ctx.SetResult(app.ResultCancelled, nil)
	return finish(ctx)
}

func finish(ctx *app.Context) bool {
	starter := ctx.Starter()
	if starter == nil {
		return false
	}
	return starter.Stop()
}

func bundleOf(params map[string]string) *bundle.Bundle {
	if len(params) == 0 {
		return nil
	}
	return bundle.FromStrings(params)
}
