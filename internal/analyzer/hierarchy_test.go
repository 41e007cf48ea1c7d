package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
)

func parse(t *testing.T, src string) []*syntax.File {
	t.Helper()
	f, err := syntax.Parse("test.veryl", src)
	require.NoError(t, err)
	return []*syntax.File{f}
}

func TestAnalyzeHierarchy_Tree(t *testing.T) {
	errs := AnalyzeHierarchy(parse(t, `
module Top {
    inst a: Leaf;
    inst b: Leaf;
    inst c: Mid;
}
module Mid {
    inst a: Leaf;
}
module Leaf {}
`))
	assert.Empty(t, errs)
}

func TestAnalyzeHierarchy_SelfInstance(t *testing.T) {
	errs := AnalyzeHierarchy(parse(t, `
module A {
    inst u: A;
}
`))
	require.Len(t, errs, 1)
	assert.Equal(t, diag.RecursiveHierarchy, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "A -> A")
	assert.Equal(t, 3, errs[0].Token.Line)
	assert.Equal(t, "test.veryl", errs[0].Path)
}

func TestAnalyzeHierarchy_MutualRecursion(t *testing.T) {
	errs := AnalyzeHierarchy(parse(t, `
module Top {
    inst u: A;
}
module A {
    inst u: B;
}
module B {
    :blk {
        inst u: C;
    }
}
module C {
    inst u: A;
}
`))
	require.Len(t, errs, 1)
	assert.Equal(t, diag.RecursiveHierarchy, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "A -> B -> C -> A")
}

func TestAnalyzeHierarchy_ConditionalRecursionIsLeftToElaboration(t *testing.T) {
	errs := AnalyzeHierarchy(parse(t, `
module Tree #(
    param N: u32 = 4,
) {
    if N > 1 :g {
        inst l: Tree #(N: N / 2);
        inst r: Tree #(N: N / 2);
    }
}
`))
	assert.Empty(t, errs)
}

func TestAnalyzeHierarchy_GenericParameterIsNotAnEdge(t *testing.T) {
	errs := AnalyzeHierarchy(parse(t, `
module Wrap::<M: inst ProtoM> {
    inst u: M;
}
module M {
    inst w: Wrap::<M>;
}
`))
	assert.Empty(t, errs)
}

func TestAnalyzeHierarchy_StableOrder(t *testing.T) {
	src := `
module B {
    inst u: B;
}
module A {
    inst u: A;
}
`
	for i := 0; i < 5; i++ {
		errs := AnalyzeHierarchy(parse(t, src))
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0].Message, "B -> B")
		assert.Contains(t, errs[1].Message, "A -> A")
	}
}
