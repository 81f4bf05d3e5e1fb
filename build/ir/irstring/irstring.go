// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package irstring builds a textual representation of the IR.
//
// The representation is close to the MLIR generic syntax of the corresponding
// operations. It is deterministic: printing the same function twice returns the
// same string, which makes it suitable to compare IR in tests.
package irstring

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/memflat/base/fmt"
	"github.com/gx-org/memflat/base/iter"
	"github.com/gx-org/memflat/base/uname"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/annotations"
)

// Printer assigns names to values and prints operations.
// Names are assigned when a value is first printed.
type Printer struct {
	unique *uname.Unique
	names  map[*ir.Value]string
	next   int
}

// NewPrinter returns a new printer without any named value.
func NewPrinter() *Printer {
	return &Printer{
		unique: uname.New(),
		names:  make(map[*ir.Value]string),
	}
}

// Func returns the textual representation of a function.
func Func(fn *ir.Func) string {
	return NewPrinter().Func(fn)
}

// Op returns the textual representation of an operation.
func Op(op ir.Op) string {
	return NewPrinter().Op(op)
}

func (p *Printer) nameWithRoot(v *ir.Value, root string) string {
	if name, ok := p.names[v]; ok {
		return name
	}
	name := "%" + p.unique.Name(root)
	p.names[v] = name
	return name
}

func (p *Printer) rootOf(v *ir.Value) string {
	switch def := v.DefiningOp().(type) {
	case *ir.ConstantIndexOp:
		return "c" + strconv.FormatInt(def.Value, 10)
	case *ir.ConstantOp:
		return "cst"
	case *ir.ExtractStridedMetadataOp:
		switch i := v.Index(); {
		case i == 0:
			return "base_buffer"
		case i == 1:
			return "offset"
		case i < 2+len(def.Sizes()):
			return "sizes"
		default:
			return "strides"
		}
	case nil:
		if parent := v.ParentBlock().ParentOp(); parent != nil {
			return "iv"
		}
		return "arg" + strconv.Itoa(v.Index())
	}
	root := strconv.Itoa(p.next)
	p.next++
	return root
}

// Name returns the name of a value, assigning a new name if necessary.
func (p *Printer) Name(v *ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	if name, ok := p.names[v]; ok {
		return name
	}
	return p.nameWithRoot(v, p.rootOf(v))
}

func (p *Printer) valueNames(vals []*ir.Value) string {
	return iter.JoinStrings(iter.Map(p.Name, slices.Values(vals)), ", ")
}

func (p *Printer) mixed(fs []ir.FoldResult) string {
	return "[" + iter.JoinStrings(iter.Map(p.foldResult, slices.Values(fs)), ", ") + "]"
}

func (p *Printer) foldResult(f ir.FoldResult) string {
	if c, ok := f.Const(); ok {
		return strconv.FormatInt(c, 10)
	}
	if !f.IsValid() {
		return "<invalid>"
	}
	return p.Name(f.Value())
}

func typeString(t ir.Type) string {
	return t.String()
}

func types(vals []*ir.Value) string {
	return iter.JoinStrings(iter.Map(func(v *ir.Value) string {
		return typeString(v.Type())
	}, slices.Values(vals)), ", ")
}

// Func returns the textual representation of a function.
func (p *Printer) Func(fn *ir.Func) string {
	var b strings.Builder
	args := iter.JoinStrings(iter.Map(func(arg *ir.Value) string {
		return p.Name(arg) + ": " + typeString(arg.Type())
	}, slices.Values(fn.Args())), ", ")
	fmt.Fprintf(&b, "func @%s(%s) {\n", fn.Name, args)
	b.WriteString(gxfmt.Indent(p.block(fn.Body)))
	b.WriteString("}")
	return b.String()
}

func (p *Printer) block(blk *ir.Block) string {
	var b strings.Builder
	for _, op := range blk.Ops() {
		b.WriteString(p.Op(op))
		b.WriteString("\n")
	}
	return b.String()
}

func attrString(attrs *annotations.Attributes) string {
	if attrs.Len() == 0 {
		return ""
	}
	return " " + attrs.String()
}

func elemLiteral(dt dtype.DataType, x float64) string {
	switch dt {
	case dtype.Bool:
		return strconv.FormatBool(x != 0)
	case dtype.Float32, dtype.Float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(x), 10)
	}
}

func (p *Printer) constant(op *ir.ConstantOp) string {
	typ := op.Result(0).Type()
	elem, _ := ir.ElemType(typ).(ir.ScalarType)
	lits := make([]string, len(op.Values))
	for i, x := range op.Values {
		lits[i] = elemLiteral(elem.DType, x)
	}
	if _, ok := typ.(*ir.VectorType); !ok {
		return strings.Join(lits, ", ")
	}
	if len(lits) == 1 {
		return "dense<" + lits[0] + ">"
	}
	return "dense<[" + strings.Join(lits, ", ") + "]>"
}

func (p *Printer) access(view *ir.Value, indices []*ir.Value) string {
	return p.Name(view) + "[" + p.valueNames(indices) + "]"
}

func (p *Printer) prefetchFlags(op *ir.PrefetchOp) string {
	rw := "read"
	if op.IsWrite {
		rw = "write"
	}
	cache := "instr"
	if op.IsDataCache {
		cache = "data"
	}
	return fmt.Sprintf("%s, locality<%d>, %s", rw, op.Locality, cache)
}

// body returns the operands and the type signature of an operation.
func (p *Printer) body(op ir.Op) (operands, signature string) {
	switch opT := op.(type) {
	case *ir.ConstantIndexOp:
		return strconv.FormatInt(opT.Value, 10), "index"
	case *ir.ConstantOp:
		return p.constant(opT), typeString(opT.Result(0).Type())
	case *ir.BinaryOp:
		return p.valueNames(opT.Operands()), "index"
	case *ir.ApplyOp:
		syms := make([]string, len(opT.Operands()))
		for i := range syms {
			syms[i] = fmt.Sprintf("s%d", i)
		}
		return fmt.Sprintf("affine_map<()[%s] -> (%s)>()[%s]", strings.Join(syms, ", "), opT.Expr.String(), p.valueNames(opT.Operands())), ""
	case *ir.AllocOp:
		return "(" + p.valueNames(opT.Operands()) + ")", typeString(opT.Result(0).Type())
	case *ir.ExtractStridedMetadataOp:
		return p.Name(opT.Source()), typeString(opT.Source().Type()) + " -> " + types(opT.Results())
	case *ir.ReinterpretCastOp:
		operands = fmt.Sprintf("%s to offset: %s, sizes: %s, strides: %s",
			p.Name(opT.Source()),
			p.mixed([]ir.FoldResult{opT.MixedOffset()}),
			p.mixed(opT.MixedSizes()),
			p.mixed(opT.MixedStrides()))
		return operands, typeString(opT.Source().Type()) + " to " + typeString(opT.Result(0).Type())
	case *ir.SubViewOp:
		operands = fmt.Sprintf("%s%s %s %s",
			p.Name(opT.Source()),
			p.mixed(opT.MixedOffsets()),
			p.mixed(opT.MixedSizes()),
			p.mixed(opT.MixedStrides()))
		return operands, typeString(opT.Source().Type()) + " to " + typeString(opT.Result(0).Type())
	case *ir.LoadOp:
		return p.access(opT.TargetView(), opT.AccessIndices()), typeString(opT.TargetView().Type())
	case *ir.StoreOp:
		return p.Name(opT.ValueToStore()) + ", " + p.access(opT.TargetView(), opT.AccessIndices()),
			typeString(opT.TargetView().Type())
	case *ir.PrefetchOp:
		return p.access(opT.TargetView(), opT.AccessIndices()) + ", " + p.prefetchFlags(opT),
			typeString(opT.TargetView().Type())
	case *ir.VectorLoadOp:
		return p.access(opT.TargetView(), opT.AccessIndices()),
			typeString(opT.TargetView().Type()) + ", " + typeString(opT.Result(0).Type())
	case *ir.VectorStoreOp:
		return p.Name(opT.ValueToStore()) + ", " + p.access(opT.TargetView(), opT.AccessIndices()),
			typeString(opT.TargetView().Type()) + ", " + typeString(opT.ValueToStore().Type())
	case *ir.MaskedLoadOp:
		return p.access(opT.TargetView(), opT.AccessIndices()) + ", " + p.valueNames([]*ir.Value{opT.Mask(), opT.PassThru()}),
			types([]*ir.Value{opT.TargetView(), opT.Mask(), opT.PassThru()}) + " into " + typeString(opT.Result(0).Type())
	case *ir.MaskedStoreOp:
		return p.access(opT.TargetView(), opT.AccessIndices()) + ", " + p.valueNames([]*ir.Value{opT.Mask(), opT.ValueToStore()}),
			types([]*ir.Value{opT.TargetView(), opT.Mask(), opT.ValueToStore()})
	case *ir.TransferReadOp:
		return p.access(opT.TargetView(), opT.AccessIndices()) + ", " + p.Name(opT.Padding()),
			typeString(opT.TargetView().Type()) + ", " + typeString(opT.Result(0).Type())
	case *ir.TransferWriteOp:
		return p.Name(opT.ValueToStore()) + ", " + p.access(opT.TargetView(), opT.AccessIndices()),
			typeString(opT.ValueToStore().Type()) + ", " + typeString(opT.TargetView().Type())
	case *ir.ReturnOp:
		return "", ""
	}
	return "(" + p.valueNames(op.Operands()) + ")", "(" + types(op.Operands()) + ") -> (" + types(op.Results()) + ")"
}

func (p *Printer) forOp(op *ir.ForOp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scf.for %s = %s to %s step %s%s {\n",
		p.Name(op.InductionVar()),
		p.Name(op.Lower()),
		p.Name(op.Upper()),
		p.Name(op.Step()),
		attrString(op.Attrs()),
	)
	b.WriteString(gxfmt.Indent(p.block(op.Body())))
	b.WriteString("}")
	return b.String()
}

// Op returns the textual representation of an operation.
func (p *Printer) Op(op ir.Op) string {
	if forOp, ok := op.(*ir.ForOp); ok {
		return p.forOp(forOp)
	}
	var b strings.Builder
	if results := op.Results(); len(results) > 0 {
		b.WriteString(p.valueNames(results))
		b.WriteString(" = ")
	}
	b.WriteString(op.Name())
	operands, signature := p.body(op)
	if operands != "" {
		b.WriteString(" ")
		b.WriteString(operands)
	}
	b.WriteString(attrString(op.Attrs()))
	if signature != "" {
		b.WriteString(" : ")
		b.WriteString(signature)
	}
	return b.String()
}
