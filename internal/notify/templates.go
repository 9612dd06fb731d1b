package notify

import (
	"bytes"
	"html/template"
)

var templates = template.Must(template.New("emails").Parse(`
{{define "saved_search"}}<h2>New match for "{{.SearchName}}"</h2>
<p>A listing matching your saved search just hit the market.</p>
{{with .Property}}<table cellpadding="4">
{{if .PrimaryImage}}<tr><td colspan="2"><img src="{{.PrimaryImage}}" width="480" alt="{{.Address}}"></td></tr>{{end}}
<tr><td><strong>{{.PriceFormatted}}</strong></td><td>{{.Address}}</td></tr>
<tr><td>{{.Beds}} bd · {{.Baths}} ba{{if .Sqft}} · {{.Sqft}} sqft{{end}}</td><td>{{.PropertyType}}</td></tr>
</table>
{{if .URL}}<p><a href="{{.URL}}">View listing</a></p>{{end}}{{end}}
<p style="color:#888">You get these emails {{.Frequency}}. Manage alerts in your account.</p>{{end}}

{{define "lead"}}<h2>New {{.Kind}} lead</h2>
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;{{if .Phone}} · {{.Phone}}{{end}}</p>
{{if .MLSNumber}}<p>Listing: {{.MLSNumber}}</p>{{end}}
{{if .Source}}<p>Source: {{.Source}}</p>{{end}}
{{if .PageURL}}<p>Page: {{.PageURL}}</p>{{end}}
<blockquote>{{.Message}}</blockquote>{{end}}

{{define "tour"}}<h2>Tour request</h2>
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;{{if .Phone}} · {{.Phone}}{{end}}</p>
<p>{{.Address}} ({{.MLSNumber}})</p>
<p>Type: {{.TourType}}{{if .PreferredDate}} · Preferred: {{.PreferredDate}}{{end}}</p>
<blockquote>{{.Message}}</blockquote>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
