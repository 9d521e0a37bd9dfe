package epdq

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

type ncResponse struct {
	XMLName     xml.Name `xml:"ncresponse"`
	OrderID     string   `xml:"orderID,attr"`
	PayID       string   `xml:"PAYID,attr"`
	PayIDSub    string   `xml:"PAYIDSUB,attr"`
	Status      string   `xml:"STATUS,attr"`
	NCError     string   `xml:"NCERROR,attr"`
	NCErrorPlus string   `xml:"NCERRORPLUS,attr"`
}

func decodeResponse(body []byte) (*ncResponse, error) {
	var resp ncResponse
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *ncResponse) authoriseStatus() provider.AuthoriseStatus {
	switch r.Status {
	case "5":
		return provider.AuthoriseAuthorised
	case "2":
		return provider.AuthoriseRejected
	case "46":
		return provider.AuthoriseRequires3DS
	case "51":
		return provider.AuthoriseSubmitted
	case "1":
		return provider.AuthoriseCancelled
	default:
		return provider.AuthoriseError
	}
}

func (r *ncResponse) hasError() bool {
	code := strings.TrimSpace(r.NCError)
	return code != "" && code != "0"
}

// reference identifies a maintenance operation on a payment.
func (r *ncResponse) reference() string {
	if r.PayIDSub == "" {
		return r.PayID
	}
	return r.PayID + "/" + r.PayIDSub
}

// modificationResult interprets a maintenance response; complete and pending
// are the STATUS values the operation resolves to.
func (r *ncResponse) modificationResult(complete, pending string) (*provider.ModificationResponse, error) {
	switch {
	case r.Status == complete:
		return &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: r.reference()}, nil
	case r.Status == pending:
		return &provider.ModificationResponse{Status: provider.ModificationPending, Reference: r.reference()}, nil
	case r.hasError():
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "epdq error %s: %s", r.NCError, r.NCErrorPlus)
	default:
		return nil, provider.NewGatewayError(provider.GenericGatewayError, "epdq returned unexpected status %q", r.Status)
	}
}
