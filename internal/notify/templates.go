package notify

import (
	"bytes"
	"html/template"
	"time"
)

var publishedTmpl = template.Must(template.New("published").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hello {{.Name}},</p>
<p>A new course evaluation is open: <strong>{{.Title}}</strong>.</p>
{{if .Deadline}}<p>Please respond before {{.Deadline}}.</p>{{end}}
<p>Your answers are stored under a pseudonym and cannot be traced back to you.</p>
<p><a href="{{.Link}}">Open the questionnaire</a></p>
</body></html>`))

var submittedTmpl = template.Must(template.New("submitted").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>A new submission was recorded for <strong>{{.Title}}</strong> ({{.Answered}} answer{{if ne .Answered 1}}s{{end}}).</p>
<p><a href="{{.Link}}">View results</a></p>
</body></html>`))

type publishedData struct {
	Name     string
	Title    string
	Deadline string
	Link     string
}

type submittedData struct {
	Title    string
	Answered int
	Link     string
}

func renderPublished(name, title string, deadline *time.Time, link string) (string, error) {
	d := publishedData{Name: name, Title: title, Link: link}
	if deadline != nil {
		d.Deadline = deadline.UTC().Format("02 Jan 2006 15:04 MST")
	}
	var buf bytes.Buffer
	if err := publishedTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderSubmitted(title string, answered int, link string) (string, error) {
	var buf bytes.Buffer
	if err := submittedTmpl.Execute(&buf, submittedData{Title: title, Answered: answered, Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
