package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/mercury-reader/internal/render"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

// asyncParser is implemented by *mercury.Client; stubs without it are parsed one by one.
type asyncParser interface {
	ParseAsync(ctx context.Context, target string, opts ...mercury.ParseOption) <-chan mercury.Result
}

// Run executes the read command. All URLs are requested concurrently and printed in
// argument order; a failure is reported and the remaining articles still print.
func (c *ReadCmd) Run(deps *Dependencies) error {
	format, err := mercury.ParseContentType(c.Format)
	if err != nil {
		return err
	}
	opts := []mercury.ParseOption{mercury.WithFormat(format)}
	if c.FetchAll {
		opts = append(opts, mercury.WithFetchAllPages(true))
	}

	p, err := deps.Parser()
	if err != nil {
		return err
	}

	ctx := deps.Ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	pending := make([]<-chan mercury.Result, len(c.URLs))
	for i, u := range c.URLs {
		if ap, ok := p.(asyncParser); ok {
			pending[i] = ap.ParseAsync(ctx, u, opts...)
			continue
		}
		ch := make(chan mercury.Result, 1)
		a, err := p.Parse(ctx, u, opts...)
		ch <- mercury.Result{Article: a, Err: err}
		pending[i] = ch
	}

	renderOpts := render.Options{Width: c.Width, Format: format}
	var errs []error
	for i, ch := range pending {
		res := <-ch
		if res.Err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %v\n", c.URLs[i], res.Err)
			errs = append(errs, res.Err)
			continue
		}
		if err := render.Write(deps.Stdout, res.Article, render.Output(c.Output), renderOpts); err != nil {
			return fmt.Errorf("render %s: %w", c.URLs[i], err)
		}
	}
	return errors.Join(errs...)
}
