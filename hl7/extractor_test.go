package hl7

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *Message {
	t.Helper()
	msg, err := Parse(raw)
	require.NoError(t, err)
	return msg
}

func TestExtractPatient_Full(t *testing.T) {
	record, err := ExtractPatient(mustParse(t, sampleMessage()))
	require.NoError(t, err)

	require.Len(t, record.Identifiers, 1)
	id := record.Identifiers[0]
	assert.Equal(t, "12345", id.Value)
	require.NotNil(t, id.Type)
	assert.Equal(t, "MR", *id.Type)
	require.NotNil(t, id.System)
	assert.Equal(t, "HOSP", *id.System)

	require.Len(t, record.Names, 1)
	name := record.Names[0]
	require.NotNil(t, name.Family)
	assert.Equal(t, "DOE", *name.Family)
	require.NotNil(t, name.Given)
	assert.Equal(t, "JOHN", *name.Given)
	require.NotNil(t, name.Middle)
	assert.Equal(t, "M", *name.Middle)
	assert.Nil(t, name.Prefix)
	assert.Nil(t, name.Suffix)

	require.NotNil(t, record.BirthDate)
	assert.Equal(t, "19800101", *record.BirthDate)
	require.NotNil(t, record.Gender)
	assert.Equal(t, "M", *record.Gender)

	require.Len(t, record.Addresses, 1)
	address := record.Addresses[0]
	require.NotNil(t, address.Street)
	assert.Equal(t, "123 MAIN ST", *address.Street)
	require.NotNil(t, address.City)
	assert.Equal(t, "SPRINGFIELD", *address.City)
	require.NotNil(t, address.State)
	assert.Equal(t, "IL", *address.State)
	require.NotNil(t, address.PostalCode)
	assert.Equal(t, "62701", *address.PostalCode)
	require.NotNil(t, address.Country)
	assert.Equal(t, "USA", *address.Country)
}

func TestExtractPatient_NoPIDSegment(t *testing.T) {
	record, err := ExtractPatient(mustParse(t, sampleMSH))
	require.Error(t, err)
	assert.Nil(t, record)

	var hl7Err *Error
	require.True(t, errors.As(err, &hl7Err))
	assert.Equal(t, KindSegmentNotFound, hl7Err.Kind)
	assert.Contains(t, hl7Err.Error(), "PID segment not found")
}

func TestExtractPatient_MissingFieldsStayUnset(t *testing.T) {
	record, err := ExtractPatient(mustParse(t, sampleMSH+"\r"+"PID|1||12345"))
	require.NoError(t, err)

	require.Len(t, record.Identifiers, 1)
	assert.Equal(t, "12345", record.Identifiers[0].Value)
	assert.Nil(t, record.Identifiers[0].Type)
	assert.Nil(t, record.Identifiers[0].System)

	assert.Empty(t, record.Names)
	assert.Empty(t, record.Addresses)
	assert.Nil(t, record.BirthDate)
	assert.Nil(t, record.Gender)
}

func TestExtractPatient_EmptyFieldIsNotMissing(t *testing.T) {
	// Birth date present but empty keeps its empty value instead of nil.
	record, err := ExtractPatient(mustParse(t, sampleMSH+"\r"+"PID|1||12345||DOE^JOHN|||M"))
	require.NoError(t, err)

	require.NotNil(t, record.BirthDate)
	assert.Equal(t, "", *record.BirthDate)
	require.NotNil(t, record.Gender)
	assert.Equal(t, "M", *record.Gender)
}

func TestExtractPatient_SuffixBeforePrefix(t *testing.T) {
	record, err := ExtractPatient(mustParse(t, sampleMSH+"\r"+"PID|1||1||DOE^JOHN^M^JR^DR"))
	require.NoError(t, err)

	require.Len(t, record.Names, 1)
	name := record.Names[0]
	require.NotNil(t, name.Suffix)
	assert.Equal(t, "JR", *name.Suffix)
	require.NotNil(t, name.Prefix)
	assert.Equal(t, "DR", *name.Prefix)
}

func TestExtractPatient_RepeatedIdentifiersShareTypeAndSystem(t *testing.T) {
	// The type and system lookup scans the whole field, so with repeated
	// identifiers the last declared type/system pair wins for all of them.
	record, err := ExtractPatient(mustParse(t, sampleMSH+"\r"+"PID|1||111^^^SYSA^MR~222^^^SYSB^SS"))
	require.NoError(t, err)

	require.Len(t, record.Identifiers, 2)
	assert.Equal(t, "111", record.Identifiers[0].Value)
	assert.Equal(t, "222", record.Identifiers[1].Value)
	for _, id := range record.Identifiers {
		require.NotNil(t, id.Type)
		assert.Equal(t, "SS", *id.Type)
		require.NotNil(t, id.System)
		assert.Equal(t, "SYSB", *id.System)
	}
}

func TestExtractPatient_FirstNameRepetitionWins(t *testing.T) {
	record, err := ExtractPatient(mustParse(t, sampleMSH+"\r"+"PID|1||1||DOE^JOHN~SMITH^JANE"))
	require.NoError(t, err)

	require.Len(t, record.Names, 1)
	name := record.Names[0]
	require.NotNil(t, name.Family)
	assert.Equal(t, "DOE", *name.Family)
	require.NotNil(t, name.Given)
	assert.Equal(t, "JOHN", *name.Given)
}

func TestExtractPatient_NeverPartial(t *testing.T) {
	msg := mustParse(t, sampleMSH+"\r"+"OBX|1|TX|NOTE")
	record, err := ExtractPatient(msg)
	require.Error(t, err)
	assert.Nil(t, record)
}
