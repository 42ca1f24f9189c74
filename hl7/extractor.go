package hl7

// PIDSegmentID identifies the patient identification segment.
const PIDSegmentID = "PID"

// Patient identification fields by semantic role, keyed to the wire
// positions so no caller spells the numbers out.
const (
	pidIdentifierList = 3
	pidPatientName    = 5
	pidBirthDate      = 7
	pidSex            = 8
	pidAddress        = 11
)

// Patient name component positions. Suffix precedes prefix on the wire.
const (
	nameFamily = 1
	nameGiven  = 2
	nameMiddle = 3
	nameSuffix = 4
	namePrefix = 5
)

// Address component positions.
const (
	addressStreet      = 1
	addressOtherStreet = 2
	addressCity        = 3
	addressState       = 4
	addressPostalCode  = 5
	addressCountry     = 6
)

// Identifier component positions within the identifier list field.
const (
	identifierValue  = 1
	identifierSystem = 4
	identifierType   = 5
)

// ExtractPatient projects the first patient identification segment of an
// already tokenized message into a PatientRecord. It never re-parses raw
// text and never returns a partially filled record: a message without a PID
// segment yields an *Error with KindSegmentNotFound.
func ExtractPatient(msg *Message) (*PatientRecord, error) {
	pid := msg.Segment(PIDSegmentID)
	if pid == nil {
		return nil, newError(KindSegmentNotFound, nil,
			"PID segment not found in HL7 message")
	}

	record := &PatientRecord{
		Identifiers: extractIdentifiers(pid.Field(pidIdentifierList)),
		Names:       make([]HumanName, 0, 1),
		Addresses:   make([]Address, 0, 1),
	}

	if name := extractName(pid.Field(pidPatientName)); name != nil {
		record.Names = append(record.Names, *name)
	}
	if address := extractAddress(pid.Field(pidAddress)); address != nil {
		record.Addresses = append(record.Addresses, *address)
	}
	if f := pid.Field(pidBirthDate); f != nil {
		record.BirthDate = &f.Value
	}
	if f := pid.Field(pidSex); f != nil {
		record.Gender = &f.Value
	}
	return record, nil
}

// extractIdentifiers emits one identifier per component at the value
// position. The type code and assigning system are looked up across the
// whole field, not just the repetition group holding the value, matching the
// permissive legacy association rule.
func extractIdentifiers(field *Field) []Identifier {
	identifiers := make([]Identifier, 0, 1)
	if field == nil {
		return identifiers
	}

	var idType, idSystem *string
	for i := range field.Components {
		c := &field.Components[i]
		switch c.Position {
		case identifierType:
			idType = &c.Value
		case identifierSystem:
			idSystem = &c.Value
		}
	}

	for i := range field.Components {
		c := &field.Components[i]
		if c.Position == identifierValue {
			identifiers = append(identifiers, Identifier{
				Value:  c.Value,
				Type:   idType,
				System: idSystem,
			})
		}
	}
	return identifiers
}

func extractName(field *Field) *HumanName {
	if field == nil {
		return nil
	}
	name := &HumanName{}
	for i := range field.Components {
		c := &field.Components[i]
		switch c.Position {
		case nameFamily:
			setIfUnset(&name.Family, c.Value)
		case nameGiven:
			setIfUnset(&name.Given, c.Value)
		case nameMiddle:
			setIfUnset(&name.Middle, c.Value)
		case nameSuffix:
			setIfUnset(&name.Suffix, c.Value)
		case namePrefix:
			setIfUnset(&name.Prefix, c.Value)
		}
	}
	return name
}

func extractAddress(field *Field) *Address {
	if field == nil {
		return nil
	}
	address := &Address{}
	for i := range field.Components {
		c := &field.Components[i]
		switch c.Position {
		case addressStreet:
			setIfUnset(&address.Street, c.Value)
		case addressOtherStreet:
			setIfUnset(&address.OtherStreet, c.Value)
		case addressCity:
			setIfUnset(&address.City, c.Value)
		case addressState:
			setIfUnset(&address.State, c.Value)
		case addressPostalCode:
			setIfUnset(&address.PostalCode, c.Value)
		case addressCountry:
			setIfUnset(&address.Country, c.Value)
		}
	}
	return address
}

// setIfUnset keeps the first repetition's value when a field repeats.
func setIfUnset(dst **string, value string) {
	if *dst == nil {
		v := value
		*dst = &v
	}
}
