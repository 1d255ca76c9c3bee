// Package notify renders and delivers the emails of the signup flows: the
// alert administrators receive for a new request, the activation email of an
// approved user and the generic rejection email.
//
// Rendering is separate from delivery. A Mailer builds a Message and hands it
// to a Transport (SendGrid, SMTP or the log).
package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/mssola/useragent"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Message is one rendered email.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type alertView struct {
	Product    string
	Name       string
	Email      string
	IP         string
	Device     string
	Created    string
	ApproveURL string
	RejectURL  string
}

type userView struct {
	Product string
	Greet   string
	Link    string
}

var (
	alertText = texttemplate.Must(texttemplate.New("alert").Parse(
		`A new signup request is waiting for review on {{.Product}}.

Name:    {{.Name}}
Email:   {{.Email}}
{{- if .IP}}
IP:      {{.IP}}{{end}}
{{- if .Device}}
Device:  {{.Device}}{{end}}
Created: {{.Created}}

Approve: {{.ApproveURL}}
Reject:  {{.RejectURL}}
`))

	alertHTML = htmltemplate.Must(htmltemplate.New("alert").Parse(
		`<p>A new signup request is waiting for review on {{.Product}}.</p>
<table>
<tr><td>Name</td><td>{{.Name}}</td></tr>
<tr><td>Email</td><td>{{.Email}}</td></tr>
{{if .IP}}<tr><td>IP</td><td>{{.IP}}</td></tr>{{end}}
{{if .Device}}<tr><td>Device</td><td>{{.Device}}</td></tr>{{end}}
<tr><td>Created</td><td>{{.Created}}</td></tr>
</table>
<p><a href="{{.ApproveURL}}">Approve</a> | <a href="{{.RejectURL}}">Reject</a></p>
`))

	activationText = texttemplate.Must(texttemplate.New("activation").Parse(
		`Hello {{.Greet}},

Your request to join {{.Product}} has been approved.
Follow this link to activate your account and choose a password:

{{.Link}}
`))

	activationHTML = htmltemplate.Must(htmltemplate.New("activation").Parse(
		`<p>Hello {{.Greet}},</p>
<p>Your request to join {{.Product}} has been approved.</p>
<p><a href="{{.Link}}">Activate your account</a></p>
`))

	rejectionText = texttemplate.Must(texttemplate.New("rejection").Parse(
		`Hello {{.Greet}},

Thank you for your interest in {{.Product}}. We are unable to approve your
request at this time.
`))

	rejectionHTML = htmltemplate.Must(htmltemplate.New("rejection").Parse(
		`<p>Hello {{.Greet}},</p>
<p>Thank you for your interest in {{.Product}}. We are unable to approve your request at this time.</p>
`))
)

// titler capitalizes display names in greetings.
var titler = cases.Title(language.Und, cases.NoLower)

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return titler.String(name)
}

// SummarizeUserAgent reduces a User-Agent header to "Browser version on OS".
// Bots are labelled as such; an empty header yields "".
func SummarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot: " + name
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(name + " " + version))
	if osName := ua.OS(); osName != "" {
		b.WriteString(" on ")
		b.WriteString(osName)
	}
	if ua.Mobile() {
		b.WriteString(" (mobile)")
	}
	if b.Len() == 0 {
		return raw
	}
	return b.String()
}

func render(text *texttemplate.Template, html *htmltemplate.Template, data any) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", text.Name(), err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", html.Name(), err)
	}
	return tb.String(), hb.String(), nil
}
