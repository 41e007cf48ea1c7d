package symbol

import (
	"math/bits"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

func encodingOf(attrs []syntax.Attribute) EnumEncoding {
	attr, ok := syntax.FindAttr(attrs, "enum_encoding")
	if !ok {
		return EncodingSequential
	}
	switch attr.Arg(0) {
	case "onehot", "one_hot":
		return EncodingOneHot
	case "gray":
		return EncodingGray
	}
	return EncodingSequential
}

// expected returns the implicit value of member i. prev is the value of the
// previous member, when known.
func (enc EnumEncoding) expected(i int, prev uint64, prevKnown bool) (uint64, bool) {
	switch enc {
	case EncodingOneHot:
		if i == 0 {
			return 1, true
		}
		return prev << 1, prevKnown
	case EncodingGray:
		n := uint64(i)
		return n ^ (n >> 1), true
	}
	if i == 0 {
		return 0, true
	}
	return prev + 1, prevKnown
}

func widthOf(v uint64) int { return bits.Len64(v) }

// enum inserts an enum with its members, evaluating every member value, and
// a mangled Enum_member symbol per member in the enclosing namespace.
func (c *creator) enum(d *syntax.EnumDecl) ID {
	if c.inInterface() {
		c.errs.Addf(diag.InvalidTypeDeclaration, d.Name, "%s cannot be declared in an interface", d.Name.Text)
	}
	props := &EnumProps{Decl: d, Encoding: encodingOf(d.Attrs)}
	id := c.insert(&Symbol{Token: d.Name, Kind: KindEnum, Public: d.Public, Doc: d.Doc, Attrs: d.Attrs, Props: props})
	if id == 0 {
		return 0
	}

	ev := NewEvaluator(c.sess, c.ns)
	baseWidth := 0
	if d.Base != nil {
		if w, ok := ev.TypeWidth(d.Base); ok {
			baseWidth = w
		}
	}

	c.push(d.Name.Text)
	var (
		prev      uint64
		prevKnown bool
		maxWidth  int
	)
	for i, m := range d.Members {
		mp := &EnumMemberProps{Enum: id}
		want, wantOK := props.Encoding.expected(i, prev, prevKnown)
		switch {
		case m.Value != nil:
			v, ok := ev.Eval(m.Value)
			if !ok {
				c.errs.Addf(diag.UnevaluatableEnumVariant, m.Name, "value of %s cannot be evaluated", m.Name.Text)
				break
			}
			if v.IsXZ() {
				if props.Encoding != EncodingSequential {
					c.errs.Addf(diag.UnevaluatableEnumVariant, m.Name, "value of %s contains x or z", m.Name.Text)
				}
				mp.Value = v
				break
			}
			u, _ := v.ToUint()
			valid := true
			switch props.Encoding {
			case EncodingOneHot:
				valid = bits.OnesCount64(u) == 1
			case EncodingGray:
				valid = !wantOK || u == want
			}
			if !valid {
				c.errs.Addf(diag.InvalidEnumVariantValue, m.Name, "%s is not a valid value under the enum encoding", m.Name.Text)
			}
			mp.Value, mp.Known = value.New(u, 64, false), true
		case wantOK:
			mp.Value, mp.Known = value.New(want, 64, false), true
		default:
			c.errs.Addf(diag.UnevaluatableEnumVariant, m.Name, "value of %s cannot be inferred", m.Name.Text)
		}

		if mp.Known {
			u, _ := mp.Value.ToUint()
			w := widthOf(u)
			if baseWidth > 0 && w > baseWidth {
				c.errs.Addf(diag.TooLargeEnumVariant, m.Name, "%s does not fit in %d bits", m.Name.Text, baseWidth)
			}
			maxWidth = max(maxWidth, w)
			prev, prevKnown = u, true
		} else {
			prevKnown = false
		}

		if mid := c.insert(&Symbol{Token: m.Name, Kind: KindEnumMember, Doc: m.Doc, Props: mp}); mid != 0 {
			props.Members = append(props.Members, mid)
		}
	}
	c.pop()

	props.Width = max(1, baseWidth, maxWidth)
	if props.Encoding == EncodingOneHot && baseWidth == 0 {
		props.Width = max(props.Width, len(d.Members))
	}
	for _, mid := range props.Members {
		m := c.sess.Get(mid)
		mp := m.Props.(*EnumMemberProps)
		if mp.Known {
			mp.Value = mp.Value.Resize(props.Width)
		}
		tok := m.Token
		tok.Text = d.Name.Text + "_" + m.Name()
		c.insert(&Symbol{Token: tok, Kind: KindEnumMemberMangled, Props: &MangledProps{Member: mid}})
	}
	return id
}
