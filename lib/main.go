// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


// Package lib is the compile driver. It ties the importer, the passes and the
// code generator together for one model.
package lib

import (
	"context"
	"fmt"
	"os"

	"github.com/purpleidea/nnc/codegen"
	"github.com/purpleidea/nnc/dump"
	"github.com/purpleidea/nnc/evaluator"
	"github.com/purpleidea/nnc/importer"
	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/prometheus"
	"github.com/purpleidea/nnc/target"
	"github.com/purpleidea/nnc/transform"
	"github.com/purpleidea/nnc/transform/mutators"
	"github.com/purpleidea/nnc/transform/rules"
	"github.com/purpleidea/nnc/typeinfer"
	"github.com/purpleidea/nnc/util"
	"github.com/purpleidea/nnc/util/errwrap"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v2"
)

const (
	// MaxDumpLevel is the highest dump level, which dumps every rewrite.
	MaxDumpLevel = 3

	// DataFlowPassName is the name of the pass over the functions.
	DataFlowPassName = "dataflow"

	// PrimFuncPassName is the name of the pass over the primitive functions.
	PrimFuncPassName = "primfunc"
)

// Config is the user facing configuration of a compile. It's filled in by the
// cli parser.
type Config struct {
	Target      string `arg:"-t,--target,required" help:"target architecture, eg: cpu, k210"`
	InputFormat string `arg:"-i,--input-format,required" help:"input format, eg: ir, tflite"`

	DumpLevel int    `arg:"--dump-level" default:"0" help:"dump the ir to .il files, from 0 (nothing) to 3 (every rewrite)"`
	DumpDir   string `arg:"--dump-dir" default:"." help:"directory to dump into"`

	ConfigFile    string `arg:"--config" help:"yaml file with the compile options"`
	Workers       int    `arg:"--workers" help:"number of functions to optimize at once (0 uses the options)"`
	MaxIterations int    `arg:"--max-iterations" help:"cap on the rounds of every fixpoint loop (0 uses the options)"`

	MetricsTextfile string `arg:"--metrics-textfile" help:"write the metrics to this file after each compile"`

	Watch bool `arg:"--watch" help:"compile again whenever the input file changes"`
}

// Main is the main struct for running a compile. Run Validate, Init and then
// Run on it.
type Main struct {
	Config *Config

	Program string // the name of this program, usually set at compile time
	Version string // the version of this program, usually set at compile time

	Input  string // path of the model to compile
	Output string // path of the artifact to write

	// Fs holds the input, the output, the options file and the dumps.
	Fs afero.Fs

	// Tracer receives a span for every pass. It may be nil.
	Tracer trace.Tracer

	Debug bool
	Logf  func(format string, v ...interface{})

	options  *interfaces.Options
	target   interfaces.Target
	importer interfaces.Importer
	manager  *transform.PassManager
	metrics  *prometheus.Prometheus
}

// Validate checks the configuration before anything happens.
func (obj *Main) Validate() error {
	if obj.Config == nil {
		return fmt.Errorf("the Config is missing")
	}
	if obj.Input == "" {
		return fmt.Errorf("the Input is empty")
	}
	if obj.Output == "" {
		return fmt.Errorf("the Output is empty")
	}
	if obj.Fs == nil {
		return fmt.Errorf("the Fs is missing")
	}
	if obj.Logf == nil {
		return fmt.Errorf("the Logf function is missing")
	}
	if l := obj.Config.DumpLevel; l < 0 || l > MaxDumpLevel {
		return fmt.Errorf("the dump level must be between 0 and %d, got %d", MaxDumpLevel, l)
	}
	if obj.Config.Workers < 0 {
		return fmt.Errorf("the number of workers can't be negative")
	}
	if obj.Config.MaxIterations < 0 {
		return fmt.Errorf("the max iterations can't be negative")
	}
	return nil
}

// Init resolves everything the compile needs. Nothing is read from the input
// and nothing is written before this succeeds.
func (obj *Main) Init() error {
	var err error
	if obj.options, err = obj.loadOptions(); err != nil {
		return err
	}
	if obj.target, err = target.Lookup(obj.Config.Target); err != nil {
		return errwrap.Wrapf(err, "invalid target")
	}
	if obj.importer, err = importer.Lookup(obj.Config.InputFormat); err != nil {
		return errwrap.Wrapf(err, "can't import")
	}
	if obj.manager, err = buildPassManager(obj.options); err != nil {
		return errwrap.Wrapf(err, "invalid options")
	}
	obj.metrics = &prometheus.Prometheus{}
	if err := obj.metrics.Init(); err != nil {
		return errwrap.Wrapf(err, "can't start the metrics")
	}
	if obj.Debug {
		obj.Logf("target: %s, format: %s, workers: %d, dumps: %s", obj.target.Name(), obj.importer.Format(), obj.options.Workers, obj.options.DumpFlags)
	}
	return nil
}

// loadOptions starts from the defaults, applies the options file if there is
// one, and then the flags which were set.
func (obj *Main) loadOptions() (*interfaces.Options, error) {
	options := interfaces.DefaultOptions()
	if p := obj.Config.ConfigFile; p != "" {
		data, err := afero.ReadFile(obj.Fs, p)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't read the options")
		}
		if err := yaml.UnmarshalStrict(data, options); err != nil {
			return nil, errwrap.Wrapf(err, "can't parse the options in `%s`", p)
		}
	}
	if obj.Config.Workers > 0 {
		options.Workers = obj.Config.Workers
	}
	if obj.Config.MaxIterations > 0 {
		options.MaxIterations = obj.Config.MaxIterations
	}
	if obj.Config.DumpLevel > 0 {
		options.DumpFlags = interfaces.DumpFlagsFromLevel(obj.Config.DumpLevel)
	}
	if err := options.Validate(); err != nil {
		return nil, errwrap.Wrapf(err, "invalid options")
	}
	return options, nil
}

// buildPassManager builds the passes out of the rule and mutator names.
func buildPassManager(options *interfaces.Options) (*transform.PassManager, error) {
	rs, err := rules.LookupAll(options.Rules)
	if err != nil {
		return nil, err
	}
	prim := transform.NewPrimFuncPass(PrimFuncPassName)
	if err := mutators.AddAll(prim, options.Mutators); err != nil {
		return nil, err
	}
	manager := transform.NewPassManager()
	manager.FunctionPasses = []transform.Pass[*ir.Function]{
		transform.NewDataFlowPass(DataFlowPassName, rs...),
	}
	manager.PrimFunctionPasses = []transform.Pass[*ir.PrimFunction]{
		prim,
	}
	return manager, nil
}

// session builds the session of one compile.
func (obj *Main) session() *interfaces.Session {
	sess := &interfaces.Session{
		Target:  obj.target,
		Options: obj.options.Copy(),
		Evaluator: &evaluator.Evaluator{
			Debug: obj.Debug,
			Logf:  util.PrefixLogf("evaluator: ", obj.Logf),
		},
		TypeInferencer: &typeinfer.Inferencer{
			Debug: obj.Debug,
			Logf:  util.PrefixLogf("typeinfer: ", obj.Logf),
		},
		Metrics: obj.metrics,
		Tracer:  obj.Tracer,
		Debug:   obj.Debug,
		Logf:    util.PrefixLogf("transform: ", obj.Logf),
	}
	if obj.options.DumpFlags != interfaces.DumpNone {
		d := dump.New(obj.Fs, obj.Config.DumpDir, util.PrefixLogf("dump: ", obj.Logf))
		d.Debug = obj.Debug
		sess.Dumper = d
	}
	return sess
}

// Run compiles once, or keeps compiling on every change of the input if the
// config asks to watch it.
func (obj *Main) Run(ctx context.Context) error {
	if obj.Config.Watch {
		return obj.watch(ctx)
	}
	return obj.Compile(ctx)
}

// Compile reads the input and writes the artifact.
func (obj *Main) Compile(ctx context.Context) error {
	data, err := afero.ReadFile(obj.Fs, obj.Input)
	if err != nil {
		return errwrap.Wrapf(err, "can't read the input")
	}
	sess := obj.session()

	module, err := obj.importer.Import(ctx, data)
	if err != nil {
		return errwrap.Wrapf(err, "can't import `%s`", obj.Input)
	}
	dumpModule(sess, module, "ir_import")

	for _, fn := range module.Functions {
		if err := sess.TypeInferencer.Infer(fn); err != nil {
			return errwrap.Wrapf(err, "type inference of `%s` failed", fn.FuncName())
		}
	}
	dumpModule(sess, module, "ir_infertype")
	obj.Logf("imported %d function(s)", len(module.Functions))

	optimized, err := transform.Run[*ir.Module](ctx, sess, obj.manager, module)
	if err != nil {
		return err
	}

	builder := &codegen.ModelBuilder{
		Target: obj.target,
		Debug:  obj.Debug,
		Logf:   util.PrefixLogf("codegen: ", obj.Logf),
	}
	model, err := builder.Build(optimized)
	if err != nil {
		return errwrap.Wrapf(err, "codegen failed")
	}
	if err := obj.write(model); err != nil {
		return errwrap.Wrapf(err, "can't write `%s`", obj.Output)
	}
	obj.Logf("wrote: %s", obj.Output)

	if p := obj.Config.MetricsTextfile; p != "" {
		if err := obj.metrics.WriteTextfile(p); err != nil {
			return errwrap.Wrapf(err, "can't write the metrics")
		}
	}
	return nil
}

// write serializes the model into the output. A partial file is removed.
func (obj *Main) write(model *codegen.LinkedModel) (reterr error) {
	f, err := obj.Fs.OpenFile(obj.Output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			reterr = errwrap.Append(reterr, err)
		}
		if reterr != nil {
			obj.Fs.Remove(obj.Output) // ignore error
		}
	}()
	return model.Serialize(f)
}

// dumpModule writes every function into the directory of its unit.
func dumpModule(sess *interfaces.Session, module *ir.Module, label string) {
	if !sess.DumpEnabled(interfaces.DumpImportOps) {
		return
	}
	for _, fn := range module.Functions {
		sess.Unit(fn.FuncName()).Dump(interfaces.DumpImportOps, fn, label)
	}
}
