package models

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

// ErrTrailingContent — после корневого элемента есть что-то кроме пробелов,
// комментариев и инструкций обработки.
var ErrTrailingContent = errors.New("xml: content after root element")

// Node — элемент XML-документа без привязки к какой-либо схеме.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []Node     `xml:",any"`
}

// Attr возвращает значение атрибута по локальному имени.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Text возвращает текст узла без пробелов по краям.
func (n *Node) Text() string {
	return strings.TrimSpace(n.Content)
}

// Find ищет первый потомок (в глубину) с заданным локальным именем.
func (n *Node) Find(local string) *Node {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == local {
			return c
		}
		if found := c.Find(local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll возвращает всех потомков с заданным локальным именем в порядке документа.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == local {
			out = append(out, c)
		}
		out = append(out, c.FindAll(local)...)
	}
	return out
}

// Document — разобранный XML-ответ ленты вместе с исходным телом.
type Document struct {
	URL  string
	Raw  []byte
	Root Node
}

// ParseDocument декодирует body в дерево Node. Кодировка берётся из
// XML-декларации (ISO-8859-1, windows-1252 и т.п. перекодируются в UTF-8).
func ParseDocument(url string, body []byte) (*Document, error) {
	doc := &Document{URL: url, Raw: body}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc.Root); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return doc, nil
}

func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return ErrTrailingContent
			}
		default:
			return ErrTrailingContent
		}
	}
}

// Find ищет элемент по локальному имени, включая корень.
func (d *Document) Find(local string) *Node {
	if d.Root.XMLName.Local == local {
		return &d.Root
	}
	return d.Root.Find(local)
}

// FindAll возвращает все элементы с локальным именем, включая корень.
func (d *Document) FindAll(local string) []*Node {
	var out []*Node
	if d.Root.XMLName.Local == local {
		out = append(out, &d.Root)
	}
	return append(out, d.Root.FindAll(local)...)
}

// Feed интерпретирует документ как RSS/Atom.
// Для нестандартных документов (например, расписания служб) вернёт ошибку.
func (d *Document) Feed() (*gofeed.Feed, error) {
	return gofeed.NewParser().Parse(bytes.NewReader(d.Raw))
}
