package builtins

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

// cellFromYaml converts a yaml.Unmarshal result into cells: mappings
// become lists of (key . value) pairs, sequences become lists, scalars
// their corresponding variants, null the empty list.
func cellFromYaml(in *machine.Interpreter, data any) *heap.Cell {
	switch v := data.(type) {
	case nil:
		return nil
	case bool:
		return heap.Bool(in.Mem, v)
	case int:
		return heap.Int(in.Mem, int64(v))
	case int64:
		return heap.Int(in.Mem, v)
	case float64:
		return heap.Float(in.Mem, v)
	case string:
		return strs.FromString(in.Mem, v)
	case []any:
		items := make([]*heap.Cell, len(v))
		for i, item := range v {
			items[i] = cellFromYaml(in, item)
		}
		return heap.SliceToList(in.Mem, items)
	case map[string]any:
		var out *heap.Cell
		for _, key := range sortedKeys(v) {
			pair := heap.Cons(in.Mem, strs.FromString(in.Mem, key), cellFromYaml(in, v[key]))
			out = heap.Cons(in.Mem, pair, out)
		}
		return heap.Reverse(out)
	}
	return strs.FromString(in.Mem, "")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// yamlFromCell is the inverse direction, for YamlEncode: a list whose
// items are all (string . value) pairs round-trips as a mapping,
// any other list as a sequence.
func yamlFromCell(in *machine.Interpreter, c *heap.Cell) any {
	switch tagOf(c) {
	case heap.TagList:
		if c == nil {
			return nil
		}
		if mapping, ok := asMapping(in, c); ok {
			return mapping
		}
		var out []any
		for item := c; item != nil; item = item.Next {
			out = append(out, yamlFromCell(in, item.Item))
		}
		return out
	case heap.TagInt:
		return c.I
	case heap.TagFloat:
		return c.F
	case heap.TagBool:
		return c.B
	case heap.TagStringChunk:
		return strs.Text(c)
	case heap.TagSymbol:
		return heap.IdentifierText(c.Next)
	case heap.TagIdentifier:
		return heap.IdentifierText(c)
	}
	return nil
}

func asMapping(in *machine.Interpreter, list *heap.Cell) (map[string]any, bool) {
	out := map[string]any{}
	for item := list; item != nil; item = item.Next {
		pair := item.Item
		if pair == nil || pair.Tag != heap.TagList || !isString(pair.Item) || pair.Next == nil {
			return nil, false
		}
		out[strs.Text(pair.Item)] = yamlFromCell(in, pair.Next)
	}
	return out, true
}

func yamlOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		op("YamlDecode", "(string -- value) parse YAML", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "YamlDecode"); st != nil {
				return st
			}
			s := in.Pop()
			if !isString(s) {
				return fail(in, "type error: YamlDecode needs a string, got %s", tagOf(s))
			}
			var data any
			if err := yaml.Unmarshal([]byte(strs.Text(s)), &data); err != nil {
				return fail(in, "YAML parse error: %v", err)
			}
			in.Push(cellFromYaml(in, data))
			return nil
		}),
		op("YamlEncode", "(value -- string) render as YAML", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "YamlEncode"); st != nil {
				return st
			}
			out, err := yaml.Marshal(yamlFromCell(in, in.Pop()))
			if err != nil {
				return fail(in, "YAML encode error: %v", err)
			}
			in.Push(strs.FromString(in.Mem, string(out)))
			return nil
		}),
	}
}
