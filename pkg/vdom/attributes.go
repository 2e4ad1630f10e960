package vdom

import (
	"fmt"
	"strings"
)

// Attribute creates an attribute with an arbitrary key. Values are
// stringified when applied; booleans follow presence semantics.
func Attribute(key string, value any) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return Attribute("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Attribute("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute (named to avoid conflict with Style element).
func StyleAttr(style string) Attr { return Attribute("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return Attribute("data-"+key, value) }

// TestID sets data-testid, the attribute dom.Node.QuerySelector tests use.
func TestID(id string) Attr { return Data("testid", id) }

// Key creates a key attribute for reconciliation.
func Key(key any) Attr { return Attribute("key", fmt.Sprintf("%v", key)) }

// Links and forms

func Href(url string) Attr         { return Attribute("href", url) }
func Name(name string) Attr        { return Attribute("name", name) }
func Type(typ string) Attr         { return Attribute("type", typ) }
func Value(value string) Attr      { return Attribute("value", value) }
func Placeholder(text string) Attr { return Attribute("placeholder", text) }
func For(id string) Attr           { return Attribute("for", id) }

// Boolean attributes

func Disabled(b bool) Attr { return Attribute("disabled", b) }
func Checked(b bool) Attr  { return Attribute("checked", b) }
func Hidden(b bool) Attr   { return Attribute("hidden", b) }
