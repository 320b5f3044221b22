package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/dmitrijs2005/pennyplan/internal/common"
)

// Method is how an account was created.
type Method string

const (
	MethodPassword Method = "password"
	MethodGoogle   Method = "google"
)

//go:embed templates/*
var templateFS embed.FS

var (
	welcomeHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/welcome.html"))
	welcomeText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/welcome.txt"))
)

// WelcomeSubject is the subject line of the welcome email.
const WelcomeSubject = "Welcome to " + common.ProductName + "!"

type welcomeData struct {
	Product string
	Name    string
	Method  Method
}

// RenderWelcome builds the welcome email for a new account.
func RenderWelcome(to, name string, method Method) (Message, error) {
	data := welcomeData{Product: common.ProductName, Name: name, Method: method}

	var html bytes.Buffer
	if err := welcomeHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}

	var text bytes.Buffer
	if err := welcomeText.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: WelcomeSubject,
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}
