// Package backend is the only place in this module that imports the
// CP-SAT model builder directly. Everything above it — pkg/model,
// pkg/solver, pkg/schedule — talks to the narrow Builder/Response
// capability declared here, so swapping the underlying CP-SAT
// implementation never touches constraint-construction code.
package backend

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"
)

// LinearArgument is anything that can appear on either side of a linear
// constraint or inside the objective: an IntVar, a BoolVar, or a
// LinearExpr.
type LinearArgument interface {
	toCP() cpmodel.LinearArgument
}

// IntVar is an integer decision variable.
type IntVar struct{ v cpmodel.IntVar }

func (iv IntVar) toCP() cpmodel.LinearArgument { return iv.v }

// WithName attaches a debug name to the variable.
func (iv IntVar) WithName(name string) IntVar {
	iv.v = iv.v.WithName(name)
	return iv
}

// Index exposes the underlying variable index. Solved values are read
// through Response.Value, which does not need it.
func (iv IntVar) Index() int32 { return int32(iv.v.Index()) }

// BoolVar is a Boolean decision variable (or its negation).
type BoolVar struct{ v cpmodel.BoolVar }

func (bv BoolVar) toCP() cpmodel.LinearArgument { return bv.v }

// Not returns the logical negation of bv.
func (bv BoolVar) Not() BoolVar { return BoolVar{v: bv.v.Not()} }

// WithName attaches a debug name to the variable.
func (bv BoolVar) WithName(name string) BoolVar {
	bv.v = bv.v.WithName(name)
	return bv
}

// IntervalVar is an interval variable spanning [start, start+size).
type IntervalVar struct{ v cpmodel.IntervalVar }

// LinearExpr is a sum of weighted variables plus a constant offset.
type LinearExpr struct{ e *cpmodel.LinearExpr }

func (le LinearExpr) toCP() cpmodel.LinearArgument { return le.e }

// Add appends a unit-weighted term to the expression and returns it.
func (le LinearExpr) Add(arg LinearArgument) LinearExpr {
	le.e.Add(arg.toCP())
	return le
}

// AddTerm appends a weighted term to the expression and returns it.
func (le LinearExpr) AddTerm(arg LinearArgument, coeff int64) LinearExpr {
	le.e.AddTerm(arg.toCP(), coeff)
	return le
}

// NewLinearExpr returns an empty linear expression.
func NewLinearExpr() LinearExpr { return LinearExpr{e: cpmodel.NewLinearExpr()} }

// ConstVar returns a linear expression holding the constant v.
func ConstVar(v int64) LinearExpr { return LinearExpr{e: cpmodel.NewConstant(v)} }

// Sum returns a linear expression summing every argument with unit
// weight.
func Sum(args ...LinearArgument) LinearExpr {
	e := cpmodel.NewLinearExpr()
	for _, a := range args {
		e.Add(a.toCP())
	}
	return LinearExpr{e: e}
}

// BoolToLinear exposes a BoolVar as a LinearArgument explicitly, for
// call sites that read more clearly with the conversion spelled out.
func BoolToLinear(bv BoolVar) LinearArgument { return bv }

// BoolsToLinear converts a slice of BoolVar into a slice of
// LinearArgument, for variadic call sites like AddMaxEquality.
func BoolsToLinear(bvs []BoolVar) []LinearArgument {
	out := make([]LinearArgument, len(bvs))
	for i, bv := range bvs {
		out[i] = bv
	}
	return out
}

// Constraint is a reference to a constraint already added to the model.
type Constraint struct{ c cpmodel.Constraint }

// OnlyEnforceIf makes the constraint conditional on every literal being
// true.
func (c Constraint) OnlyEnforceIf(bvs ...BoolVar) Constraint {
	raw := make([]cpmodel.BoolVar, len(bvs))
	for i, bv := range bvs {
		raw[i] = bv.v
	}
	c.c = c.c.OnlyEnforceIf(raw...)
	return c
}

// Builder is the narrow capability this module needs from a CP-SAT
// model builder: declare variables, add constraints (optionally
// reified), and set the objective. Nothing else in the module may
// reach past this interface to the underlying solver package.
type Builder interface {
	NewIntVar(lb, ub int64) IntVar
	NewBoolVar() BoolVar
	NewIntervalVar(start, size, end LinearArgument) IntervalVar
	NewFixedSizeIntervalVar(start LinearArgument, size int64) IntervalVar

	AddEquality(lhs, rhs LinearArgument) Constraint
	AddLessOrEqual(lhs, rhs LinearArgument) Constraint
	AddLessThan(lhs, rhs LinearArgument) Constraint
	AddGreaterOrEqual(lhs, rhs LinearArgument) Constraint
	AddGreaterThan(lhs, rhs LinearArgument) Constraint
	AddNotEqual(lhs, rhs LinearArgument) Constraint

	AddImplication(a, b BoolVar) Constraint
	AddBoolOr(bvs ...BoolVar) Constraint
	AddAtMostOne(bvs ...BoolVar) Constraint
	AddExactlyOne(bvs ...BoolVar) Constraint
	AddMaxEquality(target LinearArgument, exprs ...LinearArgument) Constraint

	AddNoOverlap(intervals ...IntervalVar) Constraint

	Minimize(obj LinearArgument)

	// Solve compiles every variable and constraint declared so far into
	// a CP-SAT model and runs the solver with the given options.
	Solve(opts SolveOptions) (*Response, error)
}

// CpSatBuilder is the sole Builder implementation, wrapping a real
// CP-SAT model builder. It is the only type in the module that reaches
// into github.com/google/or-tools/ortools/sat/go/cpmodel.
type CpSatBuilder struct {
	cp *cpmodel.Builder
}

// NewBuilder returns a fresh, empty model builder.
func NewBuilder() *CpSatBuilder {
	return &CpSatBuilder{cp: cpmodel.NewCpModelBuilder()}
}

func (b *CpSatBuilder) NewIntVar(lb, ub int64) IntVar { return IntVar{v: b.cp.NewIntVar(lb, ub)} }
func (b *CpSatBuilder) NewBoolVar() BoolVar           { return BoolVar{v: b.cp.NewBoolVar()} }

func (b *CpSatBuilder) NewIntervalVar(start, size, end LinearArgument) IntervalVar {
	return IntervalVar{v: b.cp.NewIntervalVar(start.toCP(), size.toCP(), end.toCP())}
}

func (b *CpSatBuilder) NewFixedSizeIntervalVar(start LinearArgument, size int64) IntervalVar {
	return IntervalVar{v: b.cp.NewFixedSizeIntervalVar(start.toCP(), size)}
}

func (b *CpSatBuilder) AddEquality(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddEquality(lhs.toCP(), rhs.toCP())}
}
func (b *CpSatBuilder) AddLessOrEqual(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddLessOrEqual(lhs.toCP(), rhs.toCP())}
}
func (b *CpSatBuilder) AddLessThan(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddLessThan(lhs.toCP(), rhs.toCP())}
}
func (b *CpSatBuilder) AddGreaterOrEqual(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddGreaterOrEqual(lhs.toCP(), rhs.toCP())}
}
func (b *CpSatBuilder) AddGreaterThan(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddGreaterThan(lhs.toCP(), rhs.toCP())}
}
func (b *CpSatBuilder) AddNotEqual(lhs, rhs LinearArgument) Constraint {
	return Constraint{c: b.cp.AddNotEqual(lhs.toCP(), rhs.toCP())}
}

func (b *CpSatBuilder) AddImplication(a, bv BoolVar) Constraint {
	return Constraint{c: b.cp.AddImplication(a.v, bv.v)}
}

func (b *CpSatBuilder) AddBoolOr(bvs ...BoolVar) Constraint {
	return Constraint{c: b.cp.AddBoolOr(rawBools(bvs)...)}
}
func (b *CpSatBuilder) AddAtMostOne(bvs ...BoolVar) Constraint {
	return Constraint{c: b.cp.AddAtMostOne(rawBools(bvs)...)}
}
func (b *CpSatBuilder) AddExactlyOne(bvs ...BoolVar) Constraint {
	return Constraint{c: b.cp.AddExactlyOne(rawBools(bvs)...)}
}

func (b *CpSatBuilder) AddMaxEquality(target LinearArgument, exprs ...LinearArgument) Constraint {
	rawExprs := make([]cpmodel.LinearArgument, len(exprs))
	for i, e := range exprs {
		rawExprs[i] = e.toCP()
	}
	return Constraint{c: b.cp.AddMaxEquality(target.toCP(), rawExprs...)}
}

func (b *CpSatBuilder) AddNoOverlap(intervals ...IntervalVar) Constraint {
	raw := make([]cpmodel.IntervalVar, len(intervals))
	for i, iv := range intervals {
		raw[i] = iv.v
	}
	return Constraint{c: b.cp.AddNoOverlap(raw...)}
}

func (b *CpSatBuilder) Minimize(obj LinearArgument) { b.cp.Minimize(obj.toCP()) }

func rawBools(bvs []BoolVar) []cpmodel.BoolVar {
	raw := make([]cpmodel.BoolVar, len(bvs))
	for i, bv := range bvs {
		raw[i] = bv.v
	}
	return raw
}

// SolveOptions mirrors the tunable fields of a CP-SAT search: a wall-
// clock time limit, a worker count, and an optional deterministic seed.
type SolveOptions struct {
	MaxTimeSeconds float64
	Workers        int32
	RandomSeed     *int32
}

// Status is a solver outcome, decoupled from the underlying proto enum.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusModelInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Response is a decoded CP-SAT solver response.
type Response struct {
	status     Status
	objective  float64
	walltime   float64
	raw        *cmpb.CpSolverResponse
}

func (r *Response) Status() Status         { return r.status }
func (r *Response) ObjectiveValue() float64 { return r.objective }
func (r *Response) WallTimeSeconds() float64 { return r.walltime }

// Value returns the solved value of an integer variable.
func (r *Response) Value(v IntVar) int64 {
	return cpmodel.SolutionIntegerValue(r.raw, v.v)
}

// BoolValue returns the solved truth value of a Boolean variable.
func (r *Response) BoolValue(v BoolVar) bool {
	return cpmodel.SolutionBooleanValue(r.raw, v.v)
}

func (b *CpSatBuilder) Solve(opts SolveOptions) (*Response, error) {
	m, err := b.cp.Model()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate CP model: %w", err)
	}

	params := &sppb.SatParameters{}
	if opts.MaxTimeSeconds > 0 {
		params.MaxTimeInSeconds = proto.Float64(opts.MaxTimeSeconds)
	}
	if opts.Workers > 0 {
		params.NumWorkers = proto.Int32(opts.Workers)
	}
	if opts.RandomSeed != nil {
		params.RandomSeed = proto.Int32(*opts.RandomSeed)
	}

	resp, err := cpmodel.SolveCpModelWithParameters(m, params)
	if err != nil {
		return nil, fmt.Errorf("CP-SAT solve failed: %w", err)
	}

	status := StatusUnknown
	switch resp.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL:
		status = StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		status = StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		status = StatusInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		status = StatusModelInvalid
	}

	return &Response{
		status:    status,
		objective: resp.GetObjectiveValue(),
		walltime:  resp.GetWallTime(),
		raw:       resp,
	}, nil
}
