package worldpay

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

//go:embed templates/*.xml
var templateFS embed.FS

const contentType = "application/xml"

var orderTemplates = template.Must(template.New("worldpay").
	Funcs(template.FuncMap{"xml": escapeXML}).
	ParseFS(templateFS, "templates/*.xml"))

type orderData struct {
	MerchantCode string
	OrderCode    string
	Description  string
	Currency     string
	Amount       int64
	Reference    string
	Card         provider.Card
	Date         time.Time
}

func escapeXML(value string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(value)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderOrder(operation provider.OrderType, data *orderData) (*provider.GatewayOrder, error) {
	var buf bytes.Buffer
	if err := orderTemplates.ExecuteTemplate(&buf, string(operation)+".xml", data); err != nil {
		return nil, fmt.Errorf("render %s order: %w", operation, err)
	}
	return provider.NewGatewayOrder(operation, buf.Bytes(), contentType), nil
}
