package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes plain Go values (string, int, bool, []any,
// map[string]any) as canonical JSON: object keys sorted by UTF-16 code
// units, strings NFC-normalized, no HTML escaping. null and floats are
// rejected so two equal dumps always compare byte-for-byte.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalString(val)
	case int:
		return []byte(strconv.Itoa(val)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case []any:
		return marshalArray(val)
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalArray(arr)
	case map[string]any:
		return marshalObject(val)
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	}
	return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte(` `), []byte(" "))
	out = bytes.ReplaceAll(out, []byte(` `), []byte(" "))
	return out, nil
}

func marshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func lessUTF16(a, b string) bool {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// DumpComponent converts a component to plain values for MarshalCanonical.
func DumpComponent(c Component) map[string]any {
	out := map[string]any{"name": c.ComponentName()}
	var body *Body
	switch x := c.(type) {
	case *Module:
		out["kind"] = "module"
		body = &x.Body
	case *Interface:
		out["kind"] = "interface"
		body = &x.Body
	default:
		out["kind"] = "systemverilog"
		return out
	}

	ports := make([]any, len(body.Ports))
	for i, p := range body.Ports {
		ports[i] = map[string]any{"path": p.Path.String(), "id": int(p.ID)}
	}
	out["ports"] = ports

	ids := make([]int, 0, len(body.Variables))
	for id := range body.Variables {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	vars := make([]any, 0, len(ids))
	for _, id := range ids {
		v := body.Variables[VarID(id)]
		vals := make([]any, len(v.Values))
		for i, x := range v.Values {
			vals[i] = "'h" + x.HexDigits()
		}
		vars = append(vars, map[string]any{
			"id":          id,
			"path":        v.Path.String(),
			"kind":        v.Kind.String(),
			"type":        v.Type.String(),
			"affiliation": v.Affiliation.String(),
			"values":      vals,
		})
	}
	out["variables"] = vars

	decls := make([]any, len(body.Declarations))
	for i, d := range body.Declarations {
		w := &writer{}
		d.write(w)
		decls[i] = strings.TrimSuffix(w.String(), "\n")
	}
	out["declarations"] = decls
	return out
}
