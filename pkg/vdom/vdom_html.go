// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wavetermdev/htmltoken"
)

// tokenizes an HTML-ish template and binds it to Elems.  attribute values of
// the form "#param:name" pull the live value out of the params map (so handler
// funcs and non-string options can be used from templates), attrs written as
// attr={...} parse as JSON, and a self-closing <bindparam key="name"/> splices
// child elements in.

const bindParamTag = "bindparam"
const paramAttrPrefix = "#param:"

func appendChildToStack(stack []*Elem, child *Elem) {
	if child == nil {
		return
	}
	if len(stack) == 0 {
		return
	}
	parent := stack[len(stack)-1]
	parent.Children = append(parent.Children, *child)
}

func popElemStack(stack []*Elem) []*Elem {
	if len(stack) <= 1 {
		return stack
	}
	curElem := stack[len(stack)-1]
	appendChildToStack(stack[:len(stack)-1], curElem)
	return stack[:len(stack)-1]
}

func curElemTag(stack []*Elem) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1].Tag
}

func finalizeStack(stack []*Elem) *Elem {
	if len(stack) == 0 {
		return nil
	}
	for len(stack) > 1 {
		stack = popElemStack(stack)
	}
	rtnElem := stack[0]
	if len(rtnElem.Children) == 0 {
		return nil
	}
	if len(rtnElem.Children) == 1 {
		return &rtnElem.Children[0]
	}
	return rtnElem
}

func getAttr(token htmltoken.Token, key string) string {
	for _, attr := range token.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func attrToProp(attrVal string, isJson bool, params map[string]any) any {
	if isJson {
		var val any
		err := json.Unmarshal([]byte(attrVal), &val)
		if err != nil {
			return nil
		}
		unmStrVal, ok := val.(string)
		if !ok {
			return val
		}
		attrVal = unmStrVal
		// fallthrough using the json str val
	}
	if strings.HasPrefix(attrVal, paramAttrPrefix) {
		paramKey := attrVal[len(paramAttrPrefix):]
		paramVal, ok := params[paramKey]
		if !ok {
			return nil
		}
		return paramVal
	}
	return attrVal
}

func tokenToElem(token htmltoken.Token, params map[string]any) *Elem {
	elem := &Elem{Tag: token.Data}
	if len(token.Attr) > 0 {
		elem.Props = make(map[string]any)
	}
	for _, attr := range token.Attr {
		if attr.Key == "" || attr.Val == "" {
			continue
		}
		propVal := attrToProp(attr.Val, attr.IsJson, params)
		if propVal == nil {
			continue
		}
		elem.Props[attr.Key] = propVal
	}
	return elem
}

func isWsChar(char rune) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

func isFirstCharLt(s string) bool {
	for _, char := range s {
		if isWsChar(char) {
			continue
		}
		return char == '<'
	}
	return false
}

func isLastCharGt(s string) bool {
	for i := len(s) - 1; i >= 0; i-- {
		char := rune(s[i])
		if isWsChar(char) {
			continue
		}
		return char == '>'
	}
	return false
}

func isAllWhitespace(s string) bool {
	for _, char := range s {
		if !isWsChar(char) {
			return false
		}
	}
	return true
}

// trims a line's edges only when the adjacent non-whitespace char belongs to
// markup, which keeps intentional spacing inside text runs intact.
func trimWhitespaceConditionally(s string) string {
	if isAllWhitespace(s) {
		return ""
	}
	if isFirstCharLt(s) {
		s = strings.TrimLeftFunc(s, isWsChar)
	}
	if isLastCharGt(s) {
		s = strings.TrimRightFunc(s, isWsChar)
	}
	return s
}

func processWhitespace(htmlStr string) string {
	lines := strings.Split(htmlStr, "\n")
	var newLines []string
	for _, line := range lines {
		trimmedLine := trimWhitespaceConditionally(line + "\n")
		if trimmedLine == "" {
			continue
		}
		newLines = append(newLines, trimmedLine)
	}
	return strings.Join(newLines, "")
}

func processTextStr(s string) string {
	if s == "" {
		return ""
	}
	if isAllWhitespace(s) {
		return " "
	}
	return strings.TrimSpace(s)
}

func Bind(htmlStr string, params map[string]any) (*Elem, error) {
	htmlStr = processWhitespace(htmlStr)
	r := strings.NewReader(htmlStr)
	iter := htmltoken.NewTokenizer(r)
	var elemStack []*Elem
	elemStack = append(elemStack, &Elem{Tag: FragmentTag})
outer:
	for {
		tokenType := iter.Next()
		token := iter.Token()
		switch tokenType {
		case htmltoken.StartTagToken:
			if token.Data == bindParamTag {
				return nil, errors.New("bindparam tag must be self closing")
			}
			elem := tokenToElem(token, params)
			elemStack = append(elemStack, elem)
		case htmltoken.EndTagToken:
			if token.Data == bindParamTag {
				return nil, errors.New("bindparam tag must be self closing")
			}
			if len(elemStack) <= 1 {
				return nil, fmt.Errorf("end tag %q without start tag", token.Data)
			}
			if curElemTag(elemStack) != token.Data {
				return nil, fmt.Errorf("end tag %q does not match start tag %q", token.Data, curElemTag(elemStack))
			}
			elemStack = popElemStack(elemStack)
		case htmltoken.SelfClosingTagToken:
			if token.Data == bindParamTag {
				keyAttr := getAttr(token, "key")
				for _, elem := range PartToElems(params[keyAttr]) {
					appendChildToStack(elemStack, &elem)
				}
				continue
			}
			elem := tokenToElem(token, params)
			appendChildToStack(elemStack, elem)
		case htmltoken.TextToken:
			textStr := processTextStr(token.Data)
			if textStr == "" {
				continue
			}
			elem := TextElem(textStr)
			appendChildToStack(elemStack, &elem)
		case htmltoken.CommentToken:
			continue
		case htmltoken.DoctypeToken:
			return nil, errors.New("doctype not supported")
		case htmltoken.ErrorToken:
			if iter.Err() == io.EOF {
				break outer
			}
			return nil, iter.Err()
		}
	}
	return finalizeStack(elemStack), nil
}
