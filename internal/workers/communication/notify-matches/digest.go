// internal/workers/communication/notify-matches/digest.go
package notifymatches

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

type digestProgram struct {
	Name          string
	Provider      string
	FundingAmount string
	Score         int
}

type digestData struct {
	BusinessID string
	PortalURL  string
	Programs   []digestProgram
}

const digestSubject = "Funding programs matched to your business"

var digestText = template.Must(template.New("text").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(
	`We found {{len .Programs}} funding program(s) your business qualifies for:
{{range $i, $p := .Programs}}
{{inc $i}}. {{$p.Name}}{{if $p.Provider}} ({{$p.Provider}}){{end}} - match {{$p.Score}}/100{{if $p.FundingAmount}}, {{$p.FundingAmount}}{{end}}{{end}}
{{if .PortalURL}}
Review and apply: {{.PortalURL}}
{{end}}`))

var digestHTML = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<p>We found {{len .Programs}} funding program(s) your business qualifies for:</p>
<ol>{{range .Programs}}
<li><strong>{{.Name}}</strong>{{if .Provider}} ({{.Provider}}){{end}}: match {{.Score}}/100{{if .FundingAmount}}, {{.FundingAmount}}{{end}}</li>{{end}}
</ol>{{if .PortalURL}}
<p><a href="{{.PortalURL}}">Review and apply</a></p>{{end}}`))

var digestSMS = template.Must(template.New("sms").Parse(
	`{{len .Programs}} funding program(s) match your business. Top: {{(index .Programs 0).Name}} ({{(index .Programs 0).Score}}/100).{{if .PortalURL}} {{.PortalURL}}{{end}}`))

type renderedDigest struct {
	Subject string
	Text    string
	HTML    string
	SMS     string
}

// renderDigest renders all channel bodies. data must hold at least one program.
func renderDigest(data digestData) (*renderedDigest, error) {
	var text, html, sms bytes.Buffer
	if err := digestText.Execute(&text, data); err != nil {
		return nil, err
	}
	if err := digestHTML.Execute(&html, data); err != nil {
		return nil, err
	}
	if err := digestSMS.Execute(&sms, data); err != nil {
		return nil, err
	}
	return &renderedDigest{
		Subject: digestSubject,
		Text:    text.String(),
		HTML:    html.String(),
		SMS:     sms.String(),
	}, nil
}
