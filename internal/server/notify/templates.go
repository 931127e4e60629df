package notify

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const Subject = "New files uploaded to your folder"

type templateData struct {
	Name   string
	Folder string
	Files  []string
}

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Hello {{.Name}},

New files have been uploaded to your folder ({{.Folder}}):

{{range .Files}}- {{.}}
{{end}}
Regards,
gophdrop
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #3bafbf; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .file-list { background-color: white; padding: 15px; border-radius: 5px; margin: 15px 0; }
        .footer { text-align: center; padding: 20px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>New files</h1></div>
        <div class="content">
            <p>Hello <strong>{{.Name}}</strong>,</p>
            <p>New files have been uploaded to your folder:</p>
            <p><strong>Folder:</strong> {{.Folder}}</p>
            <div class="file-list">
                <p><strong>Uploaded files:</strong></p>
                <ul>
{{- range .Files}}
                    <li>{{.}}</li>
{{- end}}
                </ul>
            </div>
        </div>
        <div class="footer"><p>This is an automated notification.</p></div>
    </div>
</body>
</html>
`))
