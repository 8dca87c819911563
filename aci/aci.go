// Package aci implements the administrative request/response protocol spoken
// by platform components. Actions are sent as HTTP GET requests and answered
// with an XML envelope:
//
//	<autn:response xmlns:autn="http://schemas.autonomy.com/aci/">
//	  <action>GETVERSION</action>
//	  <response>SUCCESS</response>
//	  <responsedata>...</responsedata>
//	</autn:response>
package aci

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Action is the name of an ACI action. Names are fixed by the platform
type Action string

const (
	GetVersion       Action = "GetVersion"
	GetChildren      Action = "GetChildren"
	GetStatus        Action = "GetStatus"
	LanguageSettings Action = "LanguageSettings"
)

const (
	responseSuccess = "SUCCESS"
	responseError   = "ERROR"
)

// ErrEmptyResponse is returned when decoding a response with no body
var ErrEmptyResponse = errors.New("empty ACI response")

// Response is the raw answer to an action
type Response struct {
	StatusCode int
	Body       []byte
}

type envelope struct {
	XMLName  xml.Name `xml:"response"`
	Action   string   `xml:"action"`
	Response string   `xml:"response"`
	Data     struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"responsedata"`
}

// Decode parses the envelope and unmarshals the response data into v. An
// ERROR envelope is returned as an *Error. v may be nil when only the outcome
// of the action matters.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return ErrEmptyResponse
	}

	var env envelope
	if err := xml.Unmarshal(r.Body, &env); err != nil {
		return fmt.Errorf("parsing ACI response: %w", err)
	}

	switch strings.ToUpper(strings.TrimSpace(env.Response)) {
	case responseSuccess:
	case responseError:
		aciErr := new(Error)
		if err := unmarshalData(env.Data.Inner, &struct {
			Error *Error `xml:"error"`
		}{Error: aciErr}); err != nil {
			return fmt.Errorf("parsing ACI error response: %w", err)
		}
		return aciErr
	default:
		return fmt.Errorf("unexpected ACI response status %q for action %q", env.Response, env.Action)
	}

	if v == nil {
		return nil
	}

	if err := unmarshalData(env.Data.Inner, v); err != nil {
		return fmt.Errorf("parsing %v response data: %w", env.Action, err)
	}

	return nil
}

// responsedata is not a complete document on its own: it may hold several
// sibling elements, so it is wrapped before being unmarshalled
func unmarshalData(inner []byte, v any) error {
	doc := make([]byte, 0, len(inner)+len("<responsedata></responsedata>"))
	doc = append(doc, "<responsedata>"...)
	doc = append(doc, inner...)
	doc = append(doc, "</responsedata>"...)

	return xml.Unmarshal(doc, v)
}

// Error is an ERROR envelope returned by a server
type Error struct {
	ErrorID          string `xml:"errorid"`
	RawErrorID       string `xml:"rawerrorid"`
	ErrorString      string `xml:"errorstring"`
	ErrorDescription string `xml:"errordescription"`
	ErrorCode        string `xml:"errorcode"`
	ErrorTime        string `xml:"errortime"`
}

func (e *Error) Error() string {
	switch {
	case e.ErrorDescription != "" && e.ErrorString != "":
		return fmt.Sprintf("ACI error %v: %v", e.ErrorString, e.ErrorDescription)
	case e.ErrorString != "":
		return "ACI error " + e.ErrorString
	case e.ErrorID != "":
		return "ACI error " + e.ErrorID
	default:
		return "ACI error"
	}
}
