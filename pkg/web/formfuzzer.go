/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formfuzzer.go
Description: Input fuzzing for discovered forms. Substitutes every fuzz vector into every
non-submit input in document order, submits through the page fetcher and lets leak detection run
over each response. Submissions are real and change application state.
*/

package web

import (
	"context"

	"github.com/sirupsen/logrus"
)

// FuzzResult summarizes fuzzing of one form
type FuzzResult struct {
	Form        FormRecord `json:"form"`
	Submissions int        `json:"submissions"`
	Failures    int        `json:"failures"`
	Skipped     bool       `json:"skipped"`
	Reason      string     `json:"reason,omitempty"`
}

// FormFuzzer submits fuzz vectors into form inputs
type FormFuzzer struct {
	fetcher *PageFetcher
	logger  logrus.FieldLogger
}

// NewFormFuzzer creates a fuzzer that submits through fetcher
func NewFormFuzzer(fetcher *PageFetcher, logger logrus.FieldLogger) *FormFuzzer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FormFuzzer{fetcher: fetcher, logger: logger}
}

// Fuzz loads the form's page, then for each named non-submit input and each
// vector sets that input to the vector and triggers the submit control. A form
// without a submit control is skipped with a warning. Submission failures are
// counted and do not stop the remaining vectors; only loading the page or
// cancellation aborts.
func (f *FormFuzzer) Fuzz(ctx context.Context, form FormRecord, vectors []string) (FuzzResult, error) {
	result := FuzzResult{Form: form}
	log := f.logger.WithFields(logrus.Fields{"url": form.Page.String(), "form": form.Index})

	if _, ok := form.SubmitControl(); !ok {
		log.Warn("Form has no submit control, skipping")
		result.Skipped = true
		result.Reason = ErrMissingSubmitControl.Error()
		return result, nil
	}
	if len(vectors) == 0 {
		result.Skipped = true
		result.Reason = "no fuzz vectors"
		return result, nil
	}

	page, err := f.fetcher.Fetch(ctx, form.Page.String())
	if err != nil {
		return result, err
	}
	forms := page.Forms()
	if form.Index < 0 || form.Index >= len(forms) {
		log.Warn("Form no longer present on page, skipping")
		result.Skipped = true
		result.Reason = ErrFormGone.Error()
		return result, nil
	}
	handle := forms[form.Index]

	for _, input := range form.Inputs {
		if input.IsSubmit() || input.Name == "" {
			continue
		}
		for _, vector := range vectors {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Submissions++
			if _, err := f.fetcher.Submit(ctx, handle, map[string]string{input.Name: vector}); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.Failures++
				log.WithFields(logrus.Fields{"input": input.Name, "error": err}).Warn("Fuzz submission failed")
			}
		}
	}

	log.WithFields(logrus.Fields{"submissions": result.Submissions, "failures": result.Failures}).Info("Form fuzzed")
	return result, nil
}
