package xlsx

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
)

// EventKind identifies a worksheet parse event.
type EventKind int

const (
	EventRowStart EventKind = iota + 1
	EventCellStart
	EventValueStart
	EventText
	EventValueEnd
	EventRowEnd
)

// Event is one step of a worksheet token stream, as consumed by Assembler.
type Event struct {
	Kind  EventKind
	Tag   string // "v" or "t" for value events
	Row   int    // row r attribute on EventRowStart, 0 when absent
	Ref   string // cell r attribute on EventCellStart, "" when absent
	Type  string // cell t attribute
	Style string // cell s attribute
	Text  string // character data on EventText
}

// Tokenizer turns a worksheet part into Events. Only sheetData content is
// reported; character data is reported only inside <v> and inline <t>
// elements, so formula text and phonetic runs never surface.
type Tokenizer struct {
	dec      *xml.Decoder
	inData   bool
	inValue  bool
	inInline bool
	phonetic int
}

// NewTokenizer returns a Tokenizer reading a worksheet XML part from r.
func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{dec: xml.NewDecoder(r)}
}

// Next returns the next event, or io.EOF at the end of the part.
func (t *Tokenizer) Next() (Event, error) {
	for {
		tok, err := t.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "sheetData" {
				t.inData = true
				continue
			}
			if !t.inData {
				continue
			}
			switch el.Name.Local {
			case "row":
				n, _ := strconv.Atoi(attr(el, "r"))
				return Event{Kind: EventRowStart, Row: n}, nil
			case "c":
				return Event{
					Kind:  EventCellStart,
					Ref:   attr(el, "r"),
					Type:  attr(el, "t"),
					Style: attr(el, "s"),
				}, nil
			case "is":
				t.inInline = true
			case "rPh":
				t.phonetic++
			case "v":
				t.inValue = true
				return Event{Kind: EventValueStart, Tag: "v"}, nil
			case "t":
				if t.inInline && t.phonetic == 0 {
					t.inValue = true
					return Event{Kind: EventValueStart, Tag: "t"}, nil
				}
			}

		case xml.CharData:
			if t.inValue {
				return Event{Kind: EventText, Text: string(el)}, nil
			}

		case xml.EndElement:
			if !t.inData {
				continue
			}
			switch el.Name.Local {
			case "sheetData":
				t.inData = false
			case "row":
				return Event{Kind: EventRowEnd}, nil
			case "is":
				t.inInline = false
			case "rPh":
				t.phonetic--
			case "v":
				t.inValue = false
				return Event{Kind: EventValueEnd, Tag: "v"}, nil
			case "t":
				if t.inValue {
					t.inValue = false
					return Event{Kind: EventValueEnd, Tag: "t"}, nil
				}
			}
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
