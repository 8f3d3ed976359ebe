package soap

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"strconv"
)

// XML schema types attached to every body field.
const (
	TypeString  = "xsd:string"
	TypeBase64  = "xsd:base64Binary"
	TypeBoolean = "xsd:boolean"
	TypeInteger = "xsd:int"
)

// Field is a single typed parameter of a SOAP operation.
type Field struct {
	Name  string
	Type  string
	Value string
}

// Body is the ordered list of parameters sent to a SOAP operation.
//
// The zero value is an empty body, ready to use.
type Body struct {
	fields []Field
}

// NewBody returns an empty Body.
func NewBody() *Body {
	return &Body{}
}

// String appends a string field.
func (b *Body) String(name, value string) *Body {
	return b.add(name, TypeString, value)
}

// Text appends a binary field, encoded in base64.
func (b *Body) Text(name string, value []byte) *Body {
	return b.add(name, TypeBase64, base64.StdEncoding.EncodeToString(value))
}

// Boolean appends a boolean field.
func (b *Body) Boolean(name string, value bool) *Body {
	return b.add(name, TypeBoolean, strconv.FormatBool(value))
}

// Integer appends an integer field.
func (b *Body) Integer(name string, value int) *Body {
	return b.add(name, TypeInteger, strconv.Itoa(value))
}

// Fields returns a copy of the fields, in insertion order.
func (b *Body) Fields() []Field {
	if b == nil {
		return nil
	}
	return append([]Field(nil), b.fields...)
}

func (b *Body) add(name, typ, value string) *Body {
	b.fields = append(b.fields, Field{Name: name, Type: typ, Value: value})
	return b
}

// writeTo renders the fields as XML elements.
func (b *Body) writeTo(buf *bytes.Buffer) error {
	if b == nil {
		return nil
	}
	for _, f := range b.fields {
		buf.WriteString("<" + f.Name + ` xsi:type="` + f.Type + `">`)
		if err := xml.EscapeText(buf, []byte(f.Value)); err != nil {
			return err
		}
		buf.WriteString("</" + f.Name + ">")
	}
	return nil
}

// Render returns the body fields as XML.
func (b *Body) Render() (string, error) {
	var buf bytes.Buffer
	if err := b.writeTo(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
