package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{NewLogic(4), "logic<4>"},
		{NewLogic(1), "logic"},
		{Type{Kind: TypeBit, Signed: true, Width: Shape{8}, Array: Shape{2}}, "signed bit<8>[2]"},
		{Type{Kind: TypeLogic, Width: Shape{4, Unknown}}, "logic<4, ?>"},
		{Type{Kind: TypeStruct, Members: []Member{{"a", NewLogic(1)}, {"b", NewBit(2)}}}, "struct {a: logic<1>, b: bit<2>}"},
		{Type{Kind: TypeClockPosedge}, "clock_posedge"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestType_TotalWidth(t *testing.T) {
	st := Type{Kind: TypeStruct, Members: []Member{{"a", NewLogic(3)}, {"b", NewBit(5)}}}
	w, ok := st.TotalWidth()
	require.True(t, ok)
	assert.Equal(t, 8, w)

	un := Type{Kind: TypeUnion, Members: []Member{{"a", NewLogic(3)}, {"b", NewBit(5)}}, Width: Shape{2}}
	w, _ = un.TotalWidth()
	assert.Equal(t, 10, w)

	_, ok = Type{Kind: TypeLogic, Width: Shape{Unknown}}.TotalWidth()
	assert.False(t, ok)
	assert.True(t, st.Is2State() == false)
}

func TestModule_String(t *testing.T) {
	tok := syntax.Token{}
	clk := NewVariable(0, VarPath{"clk"}, VarInput, Type{Kind: TypeClock}, AffModule, tok)
	rst := NewVariable(1, VarPath{"rst"}, VarInput, Type{Kind: TypeReset}, AffModule, tok)
	a := NewVariable(2, VarPath{"a"}, VarVariable, NewLogic(4), AffModule, tok)
	b := NewVariable(3, VarPath{"b"}, VarVariable, Type{Kind: TypeBit, Width: Shape{2}, Array: Shape{2}}, AffModule, tok)

	ref := func(v *Variable) *Term {
		return &Term{Factor: NewVariableFactor(v.ID, nil, nil, Comptime{Type: v.Type})}
	}
	dst := func(v *Variable) *AssignDestination { return &AssignDestination{ID: v.ID, Path: v.Path} }

	m := &Module{Body: Body{
		Name:      "Top",
		Ports:     []Port{{VarPath{"clk"}, 0}, {VarPath{"rst"}, 1}},
		Variables: map[VarID]*Variable{0: clk, 1: rst, 2: a, 3: b},
		Functions: map[VarID]*Function{},
		Declarations: []Declaration{
			&FfDeclaration{
				Clock: FfClock{ID: 0},
				Reset: &FfReset{ID: 1},
				Statements: []Statement{&IfResetStatement{
					TrueSide:  []Statement{&AssignStatement{Dst: []*AssignDestination{dst(a)}, Expr: lit("4'h0")}},
					FalseSide: []Statement{&AssignStatement{Dst: []*AssignDestination{dst(a)}, Expr: &Binary{X: ref(a), Op: value.Add, Y: lit("4'h1")}}},
				}},
			},
			&CombDeclaration{Statements: []Statement{
				&AssignStatement{Dst: []*AssignDestination{{ID: 3, Index: []Expression{lit("0")}}}, Expr: lit("2'h3")},
			}},
		},
	}}

	want := `module Top {
  input var0(clk): clock = 'hx;
  input var1(rst): reset = 'hx;
  var var2(a): logic<4> = 'hx;
  var var3(b): bit<2>[2] = {'h0, 'h0};

  ff (var0, var1) {
    if_reset {
      var2 = 0;
    } else {
      var2 = (var2 + 1);
    }
  }
  comb {
    var3[00000000] = 3;
  }
}
`
	assert.Equal(t, want, m.String())

	id, ok := m.PortID(VarPath{"rst"})
	assert.True(t, ok)
	assert.Equal(t, VarID(1), id)
}

func TestInstDeclaration_String(t *testing.T) {
	tok := syntax.Token{}
	sub := &Module{Body: Body{
		Name:      "Sub",
		Ports:     []Port{{VarPath{"i"}, 0}, {VarPath{"o"}, 1}},
		Variables: map[VarID]*Variable{0: NewVariable(0, VarPath{"i"}, VarInput, NewLogic(1), AffModule, tok), 1: NewVariable(1, VarPath{"o"}, VarOutput, NewLogic(1), AffModule, tok)},
	}}
	inst := &InstDeclaration{
		Name:      "u",
		Inputs:    []InstInput{{ID: []VarID{0}, Expr: lit("1'b1")}},
		Outputs:   []InstOutput{{ID: []VarID{1}, Dst: []*AssignDestination{{ID: 4}}}},
		Component: sub,
	}
	w := &writer{}
	inst.write(w)
	assert.Equal(t, `inst u (
  var0 <- 1;
  var1 -> var4;
) {
  module Sub {
    input var0(i): logic = 'hx;
    output var1(o): logic = 'hx;
  }
}
`, w.String())
}

func TestMarshalCanonical(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{"b": 1, "a": []any{"x<y", true}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x<y",true],"b":1}`, string(b))

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestDumpComponent(t *testing.T) {
	tok := syntax.Token{}
	m := &Module{Body: Body{
		Name:      "M",
		Ports:     []Port{{VarPath{"a"}, 0}},
		Variables: map[VarID]*Variable{0: NewVariable(0, VarPath{"a"}, VarInput, NewBit(2), AffModule, tok)},
	}}
	b, err := MarshalCanonical(DumpComponent(m))
	require.NoError(t, err)
	assert.Equal(t,
		`{"declarations":[],"kind":"module","name":"M","ports":[{"id":0,"path":"a"}],"variables":[{"affiliation":"module","id":0,"kind":"input","path":"a","type":"bit<2>","values":["'h0"]}]}`,
		string(b))
}
