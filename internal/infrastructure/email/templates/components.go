// Package templates provides email content blocks
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// ShareReportEmailProps carries the fields for the forecast share email.
type ShareReportEmailProps struct {
	SenderNote   string
	ShareURL     string
	ModelLabel   string
	Horizon      int
	ExpiresHours int
}

var shareReportTemplate = template.Must(template.New("shareReport").Parse(`
<h2 style="margin: 0 0 16px 0; color: #1a1d23;">A forecast was shared with you</h2>
{{if .SenderNote}}<p style="color: #3d4148;">&ldquo;{{.SenderNote}}&rdquo;</p>{{end}}
<p style="color: #3d4148;">
  You have been given read access to the forecast <strong>{{.ModelLabel}}</strong>
  ({{.Horizon}} period horizon).
</p>
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="margin: 24px 0;">
  <tr>
    <td style="border-radius: 6px; background-color: #0867ec;">
      <a href="{{.ShareURL}}" target="_blank" style="display: inline-block; padding: 12px 24px; color: #ffffff; text-decoration: none; border-radius: 6px;">View forecast</a>
    </td>
  </tr>
</table>
<p style="color: #9a9ea6; font-size: 14px;">
  This link expires in {{.ExpiresHours}} hours and shows forecast output only,
  never the underlying uploaded data.
</p>
`))

// GetShareReportEmailContent renders the share email body.
func GetShareReportEmailContent(props ShareReportEmailProps) string {
	var buf bytes.Buffer
	if err := shareReportTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: failed to render share report email: %v", err)
		return ""
	}
	return buf.String()
}
