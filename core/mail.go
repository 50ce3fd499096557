package core

import (
	"bytes"
	"context"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/masomo-console/fs"
)

var (
	templates tmplCache
	tmplMu    sync.Mutex
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		SchoolName   string
		TextContent  string
		HTMLContent  string
	}

	// ContextData is what templates are executed with.
	ContextData struct {
		SchoolName string
		Data       interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently and waits for all of them.
		SendMessages(ctx context.Context, messages ...*EmailMessage) error
	}
)

// RenderTemplate executes the `name` text and html templates found under templates/ in the app FS.
// A missing variant renders as an empty string.
func RenderTemplate(name string, data ContextData) (text, html string, err error) {
	entry, err := getTemplate(name)
	if err != nil {
		return "", "", err
	}

	var buff bytes.Buffer
	if entry.text != nil {
		if err = entry.text.Execute(&buff, data); err != nil {
			return "", "", errors.Wrapf(err, "executing %s.txt", name)
		}
		text = buff.String()
	}
	if entry.html != nil {
		buff.Reset()
		if err = entry.html.Execute(&buff, data); err != nil {
			return "", "", errors.Wrapf(err, "executing %s.gohtml", name)
		}
		html = buff.String()
	}
	return text, html, nil
}

func getTemplate(name string) (*tmplCacheEntry, error) {
	tmplMu.Lock()
	defer tmplMu.Unlock()

	if templates == nil {
		templates = make(tmplCache)
	}
	if entry, ok := templates[name]; ok {
		return entry, nil
	}

	entry := new(tmplCacheEntry)
	txtPath, htmlPath := "templates/"+name+".txt", "templates/"+name+".gohtml"
	if exists(txtPath) {
		tmpl, err := texttmpl.ParseFS(appfs.FS, "templates/_base.txt", txtPath)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", txtPath)
		}
		entry.text = tmpl.Option("missingkey=error")
	}
	if exists(htmlPath) {
		tmpl, err := htmltmpl.ParseFS(appfs.FS, "templates/_base.gohtml", htmlPath)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", htmlPath)
		}
		entry.html = tmpl.Option("missingkey=error")
	}
	if entry.text == nil && entry.html == nil {
		return nil, errors.Errorf("template %q not found", name)
	}
	templates[name] = entry
	return entry, nil
}

func exists(path string) bool {
	_, err := fs.Stat(appfs.FS, path)
	return err == nil
}

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	text, html, err := RenderTemplate(m.TemplateName, ContextData{SchoolName: m.SchoolName, Data: m.TemplateData})
	if err != nil {
		return err
	}
	if m.BodyStr == "" {
		m.TextContent = text
	}
	m.HTMLContent = html
	return nil
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filename)
	}

	// base64 encode content
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = encoder.Write(content); err != nil {
		return err
	}
	if err = encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
