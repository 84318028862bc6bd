// Package forge drives the two modes of the tool. Heal asks the model for a
// replacement selector and optionally patches a file with it. Generate grows
// the page object and writes a new test for a goal.
package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/v0xg/testforge/internal/ai"
	"github.com/v0xg/testforge/internal/config"
	"github.com/v0xg/testforge/internal/crawler"
	"github.com/v0xg/testforge/internal/patch"
)

// TestFileSuffix is appended to the name derived from a goal.
const TestFileSuffix = ".spec.ts"

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Forge runs heal and generate against one model and one project layout.
type Forge struct {
	gen    Generator
	paths  config.PathsConfig
	logger *zap.Logger
	out    io.Writer
}

// New returns a Forge writing progress to out.
func New(gen Generator, paths config.PathsConfig, logger *zap.Logger, out io.Writer) *Forge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Forge{
		gen:    gen,
		paths:  paths,
		logger: logger,
		out:    out,
	}
}

// TestFileName derives the test file name for goal: lower-cased, spaces and
// path separators turned into underscores.
func TestFileName(goal string) string {
	name := strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(goal)
	return strings.ToLower(name) + TestFileSuffix
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// HealRequest names the broken selector and where to look for its replacement.
type HealRequest struct {
	Selector   string
	Markup     string
	TargetFile string // optional; empty means report only
}

// HealResult is what a heal run produced.
type HealResult struct {
	Suggestion string
	Attempted  bool // a file patch was tried
	Outcome    patch.Outcome
	Err        error
}

// Heal asks the model for a replacement of req.Selector and, when a target
// file is given, rewrites every occurrence in it. Model and file failures are
// reported and returned in the result; only an incomplete request is an error.
func (f *Forge) Heal(ctx context.Context, req HealRequest) (*HealResult, error) {
	if req.Selector == "" {
		return nil, errors.New("heal mode requires a selector")
	}
	if req.Markup == "" {
		return nil, errors.New("heal mode requires page markup")
	}

	f.logger.Info("Healing selector",
		zap.String("selector", req.Selector),
		zap.Int("markup_chars", len(req.Markup)),
		zap.String("target", req.TargetFile))

	res := &HealResult{}

	f.step("Asking model to heal %q", req.Selector)
	raw, err := f.gen.Generate(ctx, ai.BuildHealPrompt(req.Selector, req.Markup))
	suggestion, single := ai.SanitizeSelector(raw)
	switch {
	case err != nil:
	case suggestion == "":
		err = &ai.ModelError{Provider: "model", Err: ai.ErrEmptyResponse}
	case !single:
		err = &ai.ModelError{Provider: "model", Err: ai.ErrMalformedResponse}
	}
	if err != nil {
		f.failed()
		f.modelFailure(err)
		res.Err = err
		return res, nil
	}
	f.done()

	res.Suggestion = suggestion
	f.logger.Debug("Selector suggested", zap.String("old", req.Selector), zap.String("new", res.Suggestion))

	if req.TargetFile == "" {
		f.ok("Suggested fix: %s (pass --file to apply automatically)", res.Suggestion)
		return res, nil
	}

	res.Attempted = true
	res.Outcome, res.Err = patch.ApplyFix(req.TargetFile, req.Selector, res.Suggestion)
	f.logger.Info("Fix outcome", zap.Stringer("outcome", res.Outcome), zap.Error(res.Err))

	switch res.Outcome {
	case patch.Applied:
		f.ok("Fix applied to %s", req.TargetFile)
		fmt.Fprintf(f.out, "  old: %s\n  new: %s\n", req.Selector, res.Suggestion)
	case patch.FileNotFound:
		f.fail("Target file not found: %s", req.TargetFile)
	case patch.SelectorNotFound:
		f.warn("Could not find %q in %s. Manual check required (suggested: %s)", req.Selector, req.TargetFile, res.Suggestion)
	default:
		f.fail("Could not save %s: %v", req.TargetFile, res.Err)
	}
	return res, nil
}

// GenerateRequest describes the test to write.
type GenerateRequest struct {
	Goal     string
	URL      string
	Elements []crawler.Element // optional page scan for the test prompt
}

// GenerateResult reports both sub-steps of a generate run.
type GenerateResult struct {
	PageObjectChecked bool
	Injection         patch.Outcome
	InjectionErr      error

	TestPath    string
	TestSkipped bool // a file already existed at TestPath
	TestWritten bool
	TestErr     error
}

// Generate first offers the goal to the page object (injecting a method if
// the model writes one), then writes a new test for the goal unless one
// already exists under the derived name.
func (f *Forge) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Goal == "" || req.URL == "" {
		return nil, errors.New("generate mode requires both a goal and a url")
	}

	f.logger.Info("Generating", zap.String("goal", req.Goal), zap.String("url", req.URL))
	res := &GenerateResult{}

	f.growPageObject(ctx, req.Goal, res)

	res.TestPath = filepath.Join(f.paths.TestsDir, TestFileName(req.Goal))
	if fileExists(res.TestPath) {
		res.TestSkipped = true
		f.warn("Test file %s exists. Skipping.", res.TestPath)
		return res, nil
	}

	f.step("Generating test case")
	raw, err := f.gen.Generate(ctx, ai.BuildTestPrompt(ai.TestRequest{
		Goal:       req.Goal,
		URL:        req.URL,
		PageObject: f.paths.PageObjectName,
		Elements:   req.Elements,
	}))
	code := ai.Sanitize(raw)
	if err == nil && code == "" {
		err = &ai.ModelError{Provider: "model", Err: ai.ErrEmptyResponse}
	}
	if err != nil {
		f.failed()
		f.modelFailure(err)
		res.TestErr = err
		return res, nil
	}
	f.done()

	if err := patch.WriteNewFile(res.TestPath, []byte(code)); err != nil {
		res.TestErr = err
		f.logger.Warn("Test write failed", zap.String("path", res.TestPath), zap.Error(err))
		f.fail("Could not save %s: %v", res.TestPath, err)
		return res, nil
	}
	res.TestWritten = true
	f.ok("New test: %s", res.TestPath)

	return res, nil
}

// growPageObject asks whether the page object already covers goal and injects
// the method the model writes if it does not.
func (f *Forge) growPageObject(ctx context.Context, goal string, res *GenerateResult) {
	path := f.paths.PageObjectFile
	if path == "" || !fileExists(path) {
		f.logger.Debug("No page object", zap.String("path", path))
		return
	}

	current, err := os.ReadFile(path)
	if err != nil {
		res.Injection, res.InjectionErr = patch.ReadFailed, err
		f.fail("Could not read page object %s: %v", path, err)
		return
	}
	res.PageObjectChecked = true

	f.step("Checking page object %s", filepath.Base(path))
	raw, err := f.gen.Generate(ctx, ai.BuildPageMethodPrompt(goal, string(current)))
	if err != nil {
		f.failed()
		f.modelFailure(err)
		res.InjectionErr = err
		return
	}
	f.done()

	if strings.Contains(raw, ai.ExistingMarker) {
		res.Injection = patch.NoOpAlreadyExists
		f.ok("Page object already covers this goal")
		return
	}

	res.Injection, res.InjectionErr = patch.InjectMethod(path, raw)
	f.logger.Info("Injection outcome", zap.Stringer("outcome", res.Injection), zap.Error(res.InjectionErr))

	switch res.Injection {
	case patch.Injected:
		f.ok("Injected new method into %s", path)
	case patch.NoOpAlreadyExists:
		f.ok("Page object already covers this goal")
	case patch.NoOpEmpty:
		f.warn("Model returned no method to inject")
	case patch.MalformedTarget:
		f.fail("No closing brace in %s, cannot place the new method", path)
	case patch.FileNotFound:
		f.fail("Page object disappeared: %s", path)
	default:
		f.fail("Could not save %s: %v", path, res.InjectionErr)
	}
}
