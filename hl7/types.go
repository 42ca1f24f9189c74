package hl7

// Delimiters holds the five encoding characters declared by the header
// segment. They are derived once per message and never change afterwards.
type Delimiters struct {
	Field        string `json:"fieldSeparator"`
	Component    string `json:"componentSeparator"`
	Repetition   string `json:"repetitionSeparator"`
	Escape       string `json:"escapeCharacter"`
	Subcomponent string `json:"subcomponentSeparator"`
}

// MessageInfo carries the metadata extracted from the header segment.
type MessageInfo struct {
	MessageType          string     `json:"messageType"`
	MessageControlID     string     `json:"messageControlId"`
	MessageDate          string     `json:"messageDate"`
	Version              *string    `json:"version"`
	SendingApplication   string     `json:"sendingApplication"`
	SendingFacility      string     `json:"sendingFacility"`
	ReceivingApplication string     `json:"receivingApplication"`
	ReceivingFacility    string     `json:"receivingFacility"`
	Encoding             Delimiters `json:"encoding"`
}

// Message is the fully tokenized form of one HL7 v2.x message. It is built
// bottom-up by Parse and not mutated afterwards.
type Message struct {
	Info     MessageInfo `json:"messageInfo"`
	Segments []Segment   `json:"segments"`
}

// Segment is one logical line of the message, identified by its 3-letter code.
type Segment struct {
	ID     string  `json:"segmentId"`
	Fields []Field `json:"fields"`
}

// Field is a position-addressed value within a segment. Position numbering is
// 1-based and matches the wire order.
type Field struct {
	Position   int         `json:"fieldPosition"`
	Value      string      `json:"value"`
	Components []Component `json:"components"`
}

// Component is one level of sub-structure within a field. Positions restart
// at 1 within each repetition group.
type Component struct {
	Position      int            `json:"componentPosition"`
	Value         string         `json:"value"`
	Subcomponents []Subcomponent `json:"subcomponents"`
}

// Subcomponent is the leaf of the tree.
type Subcomponent struct {
	Value string `json:"value"`
}

// Segment returns the first segment with the given ID, or nil.
func (m *Message) Segment(id string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			return &m.Segments[i]
		}
	}
	return nil
}

// Field returns the field at the given 1-based position, or nil when the
// segment has no such field.
func (s *Segment) Field(position int) *Field {
	for i := range s.Fields {
		if s.Fields[i].Position == position {
			return &s.Fields[i]
		}
	}
	return nil
}

// Component returns the first component at the given 1-based position, or
// nil. Repeated fields may hold several components at the same position; use
// the Components slice directly to see all of them.
func (f *Field) Component(position int) *Component {
	for i := range f.Components {
		if f.Components[i].Position == position {
			return &f.Components[i]
		}
	}
	return nil
}

// PatientRecord is the demographic projection of a patient identification
// segment. Pointer fields stay nil when the corresponding field is absent
// from the segment, which is distinct from an empty value.
type PatientRecord struct {
	Identifiers []Identifier `json:"identifiers"`
	Names       []HumanName  `json:"names"`
	BirthDate   *string      `json:"birthDate"`
	Gender      *string      `json:"gender"`
	Addresses   []Address    `json:"addresses"`
}

// Identifier is one patient identifier with its optional type code and
// assigning system.
type Identifier struct {
	Value  string  `json:"value"`
	Type   *string `json:"type"`
	System *string `json:"system"`
}

type HumanName struct {
	Family *string `json:"family"`
	Given  *string `json:"given"`
	Middle *string `json:"middle"`
	Prefix *string `json:"prefix"`
	Suffix *string `json:"suffix"`
}

type Address struct {
	Street      *string `json:"street"`
	OtherStreet *string `json:"otherStreet"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postalCode"`
	Country     *string `json:"country"`
}
