// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Elem types = nil | string | Elem

const TextTag = "#text"
const FragmentTag = "#fragment"

const ChildrenPropKey = "children"
const KeyPropKey = "key"

// immutable description of one widget and its children.  built fresh on every
// render, never mutated in place after construction.
type Elem struct {
	Tag      string         `json:"tag"`
	Props    map[string]any `json:"props,omitempty"`
	Children []Elem         `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

func (e *Elem) Key() string {
	keyVal, ok := e.Props[KeyPropKey]
	if !ok {
		return ""
	}
	keyStr, ok := keyVal.(string)
	if ok {
		return keyStr
	}
	sval, ok := numToString(keyVal)
	if ok {
		return sval
	}
	return ""
}

func (e *Elem) WithKey(key string) *Elem {
	if e == nil {
		return nil
	}
	if e.Props == nil {
		e.Props = make(map[string]any)
	}
	e.Props[KeyPropKey] = key
	return e
}

func TextElem(text string) Elem {
	return Elem{Tag: TextTag, Text: text}
}

func mergeProps(props *map[string]any, newProps map[string]any) {
	if *props == nil {
		*props = make(map[string]any)
	}
	for k, v := range newProps {
		if v == nil {
			delete(*props, k)
			continue
		}
		(*props)[k] = v
	}
}

// E builds an element from prop maps (merged) and child parts (flattened in order).
func E(tag string, parts ...any) *Elem {
	rtn := &Elem{Tag: tag}
	for _, part := range parts {
		if part == nil {
			continue
		}
		props, ok := part.(map[string]any)
		if ok {
			mergeProps(&rtn.Props, props)
			continue
		}
		rtn.Children = append(rtn.Children, PartToElems(part)...)
	}
	return rtn
}

func P(propName string, propVal any) map[string]any {
	return map[string]any{propName: propVal}
}

func Classes(classes ...any) string {
	var parts []string
	for _, class := range classes {
		switch c := class.(type) {
		case nil:
			continue
		case string:
			if c != "" {
				parts = append(parts, c)
			}
		}
		// Ignore any other types
	}
	return strings.Join(parts, " ")
}

func If(cond bool, part any) any {
	if cond {
		return part
	}
	return nil
}

func IfElse(cond bool, part any, elsePart any) any {
	if cond {
		return part
	}
	return elsePart
}

func ForEach[T any](items []T, fn func(T, int) any) []any {
	elems := make([]any, 0, len(items))
	for idx, item := range items {
		elems = append(elems, fn(item, idx))
	}
	return elems
}

func numToString(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// PartToElems normalizes one child part.  strings and numbers become #text
// elements, slices flatten, nil drops out.  an absent children list and an
// empty one are equivalent everywhere downstream.
func PartToElems(part any) []Elem {
	if part == nil {
		return nil
	}
	switch part := part.(type) {
	case string:
		return []Elem{TextElem(part)}
	case bool:
		// matches react
		if part {
			return []Elem{TextElem("true")}
		}
		return nil
	case *Elem:
		if part == nil {
			return nil
		}
		return []Elem{*part}
	case Elem:
		return []Elem{part}
	case []Elem:
		return part
	case []*Elem:
		var rtn []Elem
		for _, e := range part {
			if e == nil {
				continue
			}
			rtn = append(rtn, *e)
		}
		return rtn
	}
	sval, ok := numToString(part)
	if ok {
		return []Elem{TextElem(sval)}
	}
	partVal := reflect.ValueOf(part)
	if partVal.Kind() == reflect.Slice {
		var rtn []Elem
		for i := 0; i < partVal.Len(); i++ {
			rtn = append(rtn, PartToElems(partVal.Index(i).Interface())...)
		}
		return rtn
	}
	stringer, ok := part.(fmt.Stringer)
	if ok {
		return []Elem{TextElem(stringer.String())}
	}
	jsonStr, jsonErr := json.Marshal(part)
	if jsonErr == nil {
		return []Elem{TextElem(string(jsonStr))}
	}
	return []Elem{TextElem("invalid:" + reflect.TypeOf(part).String())}
}

// Flatten expands fragments so the reconciler and differ only ever see
// concrete widget tags and #text nodes.
func Flatten(elems []Elem) []Elem {
	var rtn []Elem
	for _, elem := range elems {
		if elem.Tag == FragmentTag {
			rtn = append(rtn, Flatten(elem.Children)...)
			continue
		}
		rtn = append(rtn, elem)
	}
	return rtn
}

func isFuncVal(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// StripFuncProps returns a deep copy with function-valued props removed.
// handler props cannot round-trip through JSON; persistence and the devtools
// wire format use the stripped form.
func StripFuncProps(elem *Elem) *Elem {
	if elem == nil {
		return nil
	}
	rtn := &Elem{Tag: elem.Tag, Text: elem.Text}
	if len(elem.Props) > 0 {
		rtn.Props = make(map[string]any, len(elem.Props))
		for k, v := range elem.Props {
			if isFuncVal(v) {
				continue
			}
			rtn.Props[k] = v
		}
		if len(rtn.Props) == 0 {
			rtn.Props = nil
		}
	}
	for idx := range elem.Children {
		child := StripFuncProps(&elem.Children[idx])
		rtn.Children = append(rtn.Children, *child)
	}
	return rtn
}

func ElemToJson(elem *Elem) ([]byte, error) {
	if elem == nil {
		return nil, fmt.Errorf("cannot marshal nil elem")
	}
	return json.Marshal(StripFuncProps(elem))
}

func ElemFromJson(data []byte) (*Elem, error) {
	var elem Elem
	if err := json.Unmarshal(data, &elem); err != nil {
		return nil, fmt.Errorf("error unmarshalling elem: %w", err)
	}
	return &elem, nil
}
