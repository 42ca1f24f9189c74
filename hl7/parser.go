package hl7

import (
	"strings"
)

// Default encoding characters, used only when the header declares fewer than
// four of them.
const (
	defaultRepetition   = "~"
	defaultEscape       = "\\"
	defaultSubcomponent = "&"
)

// A header must populate at least the message control ID field for the
// message metadata to be derivable.
const minHeaderFields = 10

// Parse tokenizes a raw HL7 v2.x message into a Message. The delimiter set
// is taken from the header segment of each message; nothing is hardcoded
// beyond the defaults for absent encoding characters. Parse never returns a
// partially built Message: on any failure the result is nil and the error is
// an *Error with KindMalformed.
func Parse(raw string) (*Message, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, newError(KindMalformed, nil, "empty HL7 message")
	}

	segments := splitSegments(trimmed)
	if len(segments) == 0 {
		return nil, newError(KindMalformed, nil, "message contains no segments")
	}

	header := segments[0]
	delims, err := deriveDelimiters(header)
	if err != nil {
		return nil, err
	}

	headerFields := headerFieldValues(header, delims)
	info, err := headerInfo(headerFields, delims)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Info:     *info,
		Segments: make([]Segment, 0, len(segments)),
	}
	for _, rawSegment := range segments {
		msg.Segments = append(msg.Segments, parseSegment(rawSegment, delims))
	}
	return msg, nil
}

// splitSegments detects the segment separator and cuts the message into
// non-empty segment lines. CRLF wins over bare LF, which is only used when
// no CR appears at all; CR is the HL7 default.
func splitSegments(trimmed string) []string {
	separator := "\r"
	if strings.Contains(trimmed, "\r\n") {
		separator = "\r\n"
	} else if strings.Contains(trimmed, "\n") && !strings.Contains(trimmed, "\r") {
		separator = "\n"
	}

	var segments []string
	for _, line := range strings.Split(trimmed, separator) {
		line = strings.TrimSpace(line)
		if line != "" {
			segments = append(segments, line)
		}
	}
	return segments
}

// deriveDelimiters reads the field separator from the character following
// the 3-letter segment code and the remaining four delimiters from the
// encoding-characters field right after it.
func deriveDelimiters(header string) (Delimiters, error) {
	if len(header) < 4 {
		return Delimiters{}, newError(KindMalformed, nil,
			"header segment %q too short to declare delimiters", header)
	}
	fieldSep := string(header[3])

	encoding := strings.Split(header[4:], fieldSep)[0]
	if encoding == "" {
		return Delimiters{}, newError(KindMalformed, nil,
			"header segment declares no component separator")
	}

	d := Delimiters{
		Field:        fieldSep,
		Component:    string(encoding[0]),
		Repetition:   defaultRepetition,
		Escape:       defaultEscape,
		Subcomponent: defaultSubcomponent,
	}
	if len(encoding) > 1 {
		d.Repetition = string(encoding[1])
	}
	if len(encoding) > 2 {
		d.Escape = string(encoding[2])
	}
	if len(encoding) > 3 {
		d.Subcomponent = string(encoding[3])
	}
	return d, nil
}

// headerFieldValues returns the header's field values indexed by HL7 field
// position. Position 1 is the field separator itself and position 2 the
// encoding characters, so the value of field n (n >= 2) is the n-1th token
// of the raw segment.
func headerFieldValues(header string, d Delimiters) []string {
	tokens := strings.Split(header, d.Field)
	fields := make([]string, len(tokens)+1)
	fields[1] = d.Field
	for i := 1; i < len(tokens); i++ {
		fields[i+1] = tokens[i]
	}
	return fields
}

// Header metadata lives at fixed field positions.
const (
	headerSendingApplication   = 3
	headerSendingFacility      = 4
	headerReceivingApplication = 5
	headerReceivingFacility    = 6
	headerMessageDate          = 7
	headerMessageType          = 9
	headerMessageControlID     = 10
	headerVersion              = 12
)

func headerInfo(fields []string, d Delimiters) (*MessageInfo, error) {
	// fields[0] is unused; len-1 is the highest populated position.
	if len(fields)-1 < minHeaderFields {
		return nil, newError(KindMalformed, nil,
			"header segment has %d fields, need at least %d", len(fields)-1, minHeaderFields)
	}

	info := &MessageInfo{
		MessageType:          fields[headerMessageType],
		MessageControlID:     fields[headerMessageControlID],
		MessageDate:          fields[headerMessageDate],
		SendingApplication:   fields[headerSendingApplication],
		SendingFacility:      fields[headerSendingFacility],
		ReceivingApplication: fields[headerReceivingApplication],
		ReceivingFacility:    fields[headerReceivingFacility],
		Encoding:             d,
	}
	if len(fields)-1 >= headerVersion {
		version := fields[headerVersion]
		info.Version = &version
	}
	return info, nil
}

func parseSegment(rawSegment string, d Delimiters) Segment {
	tokens := strings.Split(rawSegment, d.Field)
	id := tokens[0]

	// The header counts its own field separator as field 1, so its value
	// tokens shift up one position relative to every other segment.
	values := tokens[1:]
	if id == "MSH" {
		shifted := make([]string, 0, len(values)+1)
		shifted = append(shifted, d.Field)
		shifted = append(shifted, values...)
		values = shifted
	}

	segment := Segment{
		ID:     id,
		Fields: make([]Field, 0, len(values)),
	}
	for i, value := range values {
		segment.Fields = append(segment.Fields, Field{
			Position:   i + 1,
			Value:      value,
			Components: splitComponents(value, d),
		})
	}
	return segment
}

// fieldShape is the terminal form of a field value under the delimiter set.
type fieldShape int

const (
	// shapePlain has neither repetition nor component separators.
	shapePlain fieldShape = iota
	// shapeComponents has component separators but no repetitions.
	shapeComponents
	// shapeRepetitions has repetition separators; each group is then either
	// plain or a component list.
	shapeRepetitions
)

func classifyField(value string, d Delimiters) fieldShape {
	switch {
	case strings.Contains(value, d.Repetition):
		return shapeRepetitions
	case strings.Contains(value, d.Component):
		return shapeComponents
	default:
		return shapePlain
	}
}

// splitComponents decomposes one field value. Component positions restart at
// 1 within each repetition group. An empty plain value emits nothing, so a
// missing field stays distinguishable from a present-but-empty one, while
// delimiter-only values still emit their empty components.
func splitComponents(value string, d Delimiters) []Component {
	components := make([]Component, 0, 1)

	switch classifyField(value, d) {
	case shapeRepetitions:
		for _, group := range strings.Split(value, d.Repetition) {
			if strings.Contains(group, d.Component) {
				components = appendComponentList(components, group, d)
			} else if group != "" {
				components = append(components, newComponent(1, group, d))
			}
		}
	case shapeComponents:
		components = appendComponentList(components, value, d)
	case shapePlain:
		if value != "" {
			components = append(components, newComponent(1, value, d))
		}
	}
	return components
}

func appendComponentList(components []Component, group string, d Delimiters) []Component {
	for i, value := range strings.Split(group, d.Component) {
		components = append(components, newComponent(i+1, value, d))
	}
	return components
}

func newComponent(position int, value string, d Delimiters) Component {
	c := Component{
		Position:      position,
		Value:         value,
		Subcomponents: make([]Subcomponent, 0),
	}
	if strings.Contains(value, d.Subcomponent) {
		for _, sub := range strings.Split(value, d.Subcomponent) {
			c.Subcomponents = append(c.Subcomponents, Subcomponent{Value: sub})
		}
	}
	return c
}
