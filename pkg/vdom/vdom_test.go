package vdom

import (
	"strings"
	"testing"
)

func TestElemBuilding(t *testing.T) {
	elem := E("box",
		P("title", "main"),
		P("border", true),
		E("text", "hello"),
		E("list", P("items", []string{"a", "b"})),
	)
	if elem.Tag != "box" {
		t.Fatalf("elem.Tag: %s (expected 'box')", elem.Tag)
	}
	if elem.Props["title"] != "main" {
		t.Fatalf("title prop: %v", elem.Props["title"])
	}
	if len(elem.Children) != 2 {
		t.Fatalf("children: %d (expected 2)", len(elem.Children))
	}
	if elem.Children[0].Tag != "text" || elem.Children[1].Tag != "list" {
		t.Fatalf("child tags: %s, %s", elem.Children[0].Tag, elem.Children[1].Tag)
	}
	if elem.Children[0].Children[0].Tag != TextTag {
		t.Fatalf("text child not normalized: %s", elem.Children[0].Children[0].Tag)
	}
	if elem.Children[0].Children[0].Text != "hello" {
		t.Fatalf("text content: %q", elem.Children[0].Children[0].Text)
	}
}

func TestPartToElems(t *testing.T) {
	elems := PartToElems(nil)
	if elems != nil {
		t.Fatalf("nil part should produce no elems")
	}
	elems = PartToElems("hi")
	if len(elems) != 1 || elems[0].Tag != TextTag || elems[0].Text != "hi" {
		t.Fatalf("string part: %v", elems)
	}
	elems = PartToElems(42)
	if len(elems) != 1 || elems[0].Text != "42" {
		t.Fatalf("int part: %v", elems)
	}
	elems = PartToElems(false)
	if elems != nil {
		t.Fatalf("false should render nothing, got %v", elems)
	}
	elems = PartToElems([]any{"a", E("text", "b"), nil})
	if len(elems) != 2 {
		t.Fatalf("mixed slice: %v", elems)
	}
}

func TestKeys(t *testing.T) {
	elem := E("box", P(KeyPropKey, "k1"))
	if elem.Key() != "k1" {
		t.Fatalf("key: %q", elem.Key())
	}
	elem = E("box", P(KeyPropKey, 7))
	if elem.Key() != "7" {
		t.Fatalf("numeric key: %q", elem.Key())
	}
	elem = E("box")
	if elem.Key() != "" {
		t.Fatalf("missing key should be empty, got %q", elem.Key())
	}
	elem = E("box").WithKey("k2")
	if elem.Key() != "k2" {
		t.Fatalf("WithKey: %q", elem.Key())
	}
}

func TestFlatten(t *testing.T) {
	frag := Elem{Tag: FragmentTag, Children: []Elem{
		*E("text", "a"),
		{Tag: FragmentTag, Children: []Elem{*E("text", "b")}},
	}}
	elems := Flatten([]Elem{*E("box"), frag})
	if len(elems) != 3 {
		t.Fatalf("flatten: %d elems (expected 3)", len(elems))
	}
	if elems[1].Tag != "text" || elems[2].Tag != "text" {
		t.Fatalf("flatten tags: %v", elems)
	}
}

func TestStripFuncProps(t *testing.T) {
	called := false
	elem := E("list",
		P("items", []string{"a"}),
		P("onSelect", func() { called = true }),
		E("text", P("onPress", func() {}), "x"),
	)
	stripped := StripFuncProps(elem)
	if _, ok := stripped.Props["onSelect"]; ok {
		t.Fatalf("func prop survived strip")
	}
	if stripped.Props["items"] == nil {
		t.Fatalf("non-func prop dropped")
	}
	if _, ok := stripped.Children[0].Props["onPress"]; ok {
		t.Fatalf("child func prop survived strip")
	}
	// original must be untouched
	if _, ok := elem.Props["onSelect"]; !ok {
		t.Fatalf("strip mutated the original elem")
	}
	_ = called
}

func TestElemJson(t *testing.T) {
	elem := E("box", P("width", 10), E("text", "hi"))
	data, err := ElemToJson(elem)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ElemFromJson(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Tag != "box" || len(back.Children) != 1 {
		t.Fatalf("round trip: %v", back)
	}
	if back.Children[0].Children[0].Text != "hi" {
		t.Fatalf("round trip text: %v", back.Children[0])
	}
}

func TestBindBasic(t *testing.T) {
	elem, err := Bind(`<box title="main"><text>hello</text></box>`, nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if elem.Tag != "box" || elem.Props["title"] != "main" {
		t.Fatalf("bind elem: %v", elem)
	}
	if len(elem.Children) != 1 || elem.Children[0].Tag != "text" {
		t.Fatalf("bind children: %v", elem.Children)
	}
}

func TestBindParams(t *testing.T) {
	fn := func() {}
	extra := E("gauge", P("percent", 50))
	elem, err := Bind(`
<box>
	<list onSelect="#param:selectFn"/>
	<bindparam key="extra"/>
</box>
`, map[string]any{"selectFn": fn, "extra": extra})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(elem.Children) != 2 {
		t.Fatalf("children: %d (expected 2)", len(elem.Children))
	}
	if elem.Children[0].Props["onSelect"] == nil {
		t.Fatalf("param prop not bound")
	}
	if elem.Children[1].Tag != "gauge" {
		t.Fatalf("bindparam splice: %v", elem.Children[1])
	}
}

func TestBindJsonAttrs(t *testing.T) {
	elem, err := Bind(`<list items={["a","b","c"]} selected={1}/>`, nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	items, ok := elem.Props["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("items: %v", elem.Props["items"])
	}
	sel, ok := elem.Props["selected"].(float64)
	if !ok || sel != 1 {
		t.Fatalf("selected: %v", elem.Props["selected"])
	}
}

func TestBindErrors(t *testing.T) {
	_, err := Bind(`<box><text>hello</box>`, nil)
	if err == nil {
		t.Fatalf("mismatched tags should error")
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Bind(`<bindparam key="x">bad</bindparam>`, nil)
	if err == nil {
		t.Fatalf("non-self-closing bindparam should error")
	}
}
