// Package abcd parses ABCD XML documents into raw per-unit value trees.
// Parsing does not depend on a field catalog: every leaf element with
// text is collected under its path relative to the Unit (or DataSet)
// element. Unknown elements are never an error, only an unparsable byte
// stream is.
package abcd

import (
	"encoding/xml"
	"errors"
	"io"
	"iter"
	"strings"

	"golang.org/x/net/html/charset"
)

// Known ABCD versions.
const (
	Version206 = "2.06"
	Version21  = "2.1"
)

// RawValues maps a path relative to the Unit or DataSet element
// (element names joined by "/", for example "Gathering/Country/Name") to
// the values found at this path in document order.
type RawValues map[string][]string

// RawUnit is the content of one Unit element.
type RawUnit struct {
	// Document is the name of the document the unit comes from.
	Document string
	// Index is the position of the unit within the document, starting
	// from 0. Together with Document it gives a stable positional key.
	Index int
	// Values are the texts of the unit's leaf elements.
	Values RawValues
}

// Stream is a lazy parser of one document. It can be consumed once.
type Stream struct {
	r        io.Reader
	document string
	dataset  RawValues
	version  string
	consumed bool
}

// Parse creates a Stream for a document. Nothing is read until Units
// is iterated.
func Parse(r io.Reader, document string) *Stream {
	return &Stream{
		r:        r,
		document: document,
		dataset:  make(RawValues),
	}
}

// Dataset returns values of the DataSet element that are outside of
// Units. It is complete after Units are drained.
func (s *Stream) Dataset() RawValues {
	return s.dataset
}

// Version returns the ABCD version detected from the namespace of the
// document, or an empty string.
func (s *Stream) Version() string {
	return s.version
}

// Units returns the sequence of units of the document. Parsing stops at
// the first structural XML error, which is yielded as MalformedXMLError.
func (s *Stream) Units() iter.Seq2[RawUnit, error] {
	return func(yield func(RawUnit, error) bool) {
		if s.consumed {
			yield(RawUnit{}, StreamConsumedError(s.document))
			return
		}
		s.consumed = true

		dec := xml.NewDecoder(s.r)
		dec.CharsetReader = charset.NewReaderLabel

		st := newState()
		for {
			tok, err := dec.Token()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(RawUnit{}, MalformedXMLError(s.document, err))
				return
			}

			switch t := tok.(type) {
			case xml.StartElement:
				if s.version == "" {
					s.version = detectVersion(t)
				}
				st.start(t.Name.Local)
			case xml.CharData:
				st.text(t)
			case xml.EndElement:
				unit, done := st.end(s.dataset)
				if !done {
					continue
				}
				unit.Document = s.document
				if !yield(unit, nil) {
					return
				}
			}
		}
	}
}

// state keeps track of the element stack while tokens are read.
type state struct {
	stack   []string
	texts   [][]byte
	dataset int
	unit    int
	index   int
	values  RawValues
}

func newState() *state {
	return &state{dataset: -1, unit: -1}
}

func (st *state) start(name string) {
	st.stack = append(st.stack, name)
	depth := len(st.stack) - 1
	if len(st.texts) < len(st.stack) {
		st.texts = append(st.texts, nil)
	}
	st.texts[depth] = st.texts[depth][:0]

	switch {
	case st.dataset < 0 && name == "DataSet":
		st.dataset = depth
	case st.dataset >= 0 && st.unit < 0 && name == "Unit" &&
		depth > st.dataset+1 && st.stack[depth-1] == "Units":
		st.unit = depth
		st.values = make(RawValues)
	}
}

func (st *state) text(data []byte) {
	if len(st.stack) == 0 {
		return
	}
	depth := len(st.stack) - 1
	st.texts[depth] = append(st.texts[depth], data...)
}

// end closes the current element. When a Unit element is closed, the
// unit is returned with true.
func (st *state) end(dataset RawValues) (RawUnit, bool) {
	depth := len(st.stack) - 1
	if depth < 0 {
		return RawUnit{}, false
	}
	defer func() {
		st.stack = st.stack[:depth]
	}()

	val := strings.TrimSpace(string(st.texts[depth]))

	switch {
	case st.unit >= 0 && depth == st.unit:
		res := RawUnit{Index: st.index, Values: st.values}
		st.index++
		st.unit = -1
		st.values = nil
		return res, true
	case st.unit >= 0 && depth > st.unit:
		if val != "" {
			key := strings.Join(st.stack[st.unit+1:], "/")
			st.values[key] = append(st.values[key], val)
		}
	case st.dataset >= 0 && depth == st.dataset:
		st.dataset = -1
	case st.dataset >= 0 && depth > st.dataset:
		rel := st.stack[st.dataset+1:]
		if val != "" && rel[0] != "Units" {
			key := strings.Join(rel, "/")
			dataset[key] = append(dataset[key], val)
		}
	}
	return RawUnit{}, false
}

func detectVersion(t xml.StartElement) string {
	spaces := []string{t.Name.Space}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			spaces = append(spaces, a.Value)
		}
	}
	for _, v := range spaces {
		switch {
		case strings.HasSuffix(v, "/abcd/2.06"):
			return Version206
		case strings.HasSuffix(v, "/abcd/2.1"):
			return Version21
		}
	}
	return ""
}
