package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind 多维表格字段值的类型标签
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

// Value 多维表格返回的单元格值。远端列集合不固定，所以按 tagged union 建模，
// 由调用方按需取 Text / Number / List。
type Value struct {
	Kind   ValueKind
	Str    string
	Num    float64
	Bool   bool
	List   []Value
	Object map[string]Value
}

// RawRecord 多维表格里的一行记录
type RawRecord struct {
	RecordID    string           `json:"record_id"`
	CreatedTime Value            `json:"created_time"`
	Fields      map[string]Value `json:"fields"`
}

// Field 取列值，缺失时返回 KindNull
func (r RawRecord) Field(name string) Value {
	return r.Fields[name]
}

// Has 列存在且不为 null
func (r RawRecord) Has(name string) bool {
	return !r.Fields[name].IsNull()
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func ListValue(items ...Value) Value { return Value{Kind: KindList, List: items} }

func ObjectValue(m map[string]Value) Value {
	return Value{Kind: KindObject, Object: m}
}

// FromAny 把 encoding/json 解出来的任意值转成 Value
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Value{}
	case string:
		return StringValue(v)
	case float64:
		return NumberValue(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return StringValue(v.String())
		}
		return NumberValue(f)
	case int:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case bool:
		return BoolValue(v)
	case []any:
		items := make([]Value, 0, len(v))
		for _, item := range v {
			items = append(items, FromAny(item))
		}
		return Value{Kind: KindList, List: items}
	case map[string]any:
		m := make(map[string]Value, len(v))
		for k, item := range v {
			m[k] = FromAny(item)
		}
		return ObjectValue(m)
	default:
		return Value{}
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// Any 转回普通 Go 值
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, 0, len(v.List))
		for _, item := range v.List {
			out = append(out, item.Any())
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			out[k] = item.Any()
		}
		return out
	default:
		return nil
	}
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Text 把值压平成字符串。
// 富文本字段是 [{type,text}] 片段数组，直接拼接；多选之类的标量数组用逗号连接；
// 超链接对象取 link。false 视为空串。
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return ""
	case KindList:
		var b strings.Builder
		prevScalar := false
		for _, item := range v.List {
			s := item.Text()
			if s == "" {
				continue
			}
			scalar := item.Kind != KindObject
			if scalar && prevScalar {
				b.WriteString(",")
			}
			b.WriteString(s)
			prevScalar = scalar
		}
		return b.String()
	case KindObject:
		for _, key := range []string{"link", "text", "name", "url"} {
			if s := v.Object[key].Text(); s != "" {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}

// Items 列表值逐项返回；标量当作单元素列表
func (v Value) Items() []Value {
	switch v.Kind {
	case KindList:
		return v.List
	case KindNull:
		return nil
	default:
		return []Value{v}
	}
}

// Get 对象值取子字段
func (v Value) Get(key string) Value {
	if v.Kind != KindObject {
		return Value{}
	}
	return v.Object[key]
}
