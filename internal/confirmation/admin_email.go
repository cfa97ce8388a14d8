package confirmation

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

const adminEmailDateLayout = "Mon Jan 2 2006 15:04:05 MST"

var adminEmailTemplate = template.Must(template.New("admin_email").Parse(`
{{- define "field"}}{{.Label}}:<br>{{.Value}}<br><br>{{end -}}
{{- range .Fields}}{{template "field" .}}
{{end -}}
`))

type adminEmailField struct {
	Label string
	Value string
}

// adminReport is the audit record mailed to the program admins when a tripler confirms
type adminReport struct {
	OrganizationName string
	Tripler          *schema.Tripler
	AmbassadorName   string
	ClaimedAt        time.Time
}

func (r adminReport) fields() []adminEmailField {
	t := r.Tripler
	address := t.Address.Data()
	triplees := t.TripleeList()

	fields := []adminEmailField{
		{"Organization Name", r.OrganizationName},
		{"Voter ID", optional(t.VoterID)},
		{"First Name", t.FirstName},
		{"Last Name", optional(t.LastName)},
		{"Street Address", address.Address1},
		{"Zip", address.Zip},
		{"Date Claimed", formatDate(&r.ClaimedAt)},
		{"Date Confirmed", formatDate(t.ConfirmedAt)},
		{"Ambassador", r.AmbassadorName},
		{"Phone Number", t.Phone},
	}
	for i := 0; i < domain.RequiredTriplees; i++ {
		value := ""
		if i < len(triplees) {
			value = triplees[i].Summary()
		}
		fields = append(fields, adminEmailField{fmt.Sprintf("Triplee %d", i+1), value})
	}

	verification := make([]string, 0, len(t.Verification))
	for _, v := range t.Verification {
		verification = append(verification, v.Source+": "+v.Name)
	}
	carriers := make([]string, 0, len(t.CarrierInfo))
	for _, c := range t.CarrierInfo {
		entry := c.CarrierName
		if c.IsBlocked {
			entry += " (blocked)"
		}
		carriers = append(carriers, entry)
	}

	return append(fields,
		adminEmailField{"Verification", strings.Join(verification, ", ")},
		adminEmailField{"Carrier", strings.Join(carriers, ", ")},
	)
}

// render returns the HTML body; every value is escaped
func (r adminReport) render() (string, error) {
	var sb strings.Builder
	err := adminEmailTemplate.Execute(&sb, struct{ Fields []adminEmailField }{r.fields()})
	if err != nil {
		return "", fmt.Errorf("failed to render admin email: %w", err)
	}
	return sb.String(), nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(adminEmailDateLayout)
}
