package messages

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// Name identifies an outbound message template
type Name string

const (
	TriplerConfirmation        Name = "tripler_confirmation"
	TriplerReminder            Name = "tripler_reminder"
	TriplerReconfirmation      Name = "tripler_reconfirmation"
	TriplerUpgrade             Name = "tripler_upgrade"
	AmbassadorTriplerConfirmed Name = "ambassador_tripler_confirmed"
	RejectionForTripler        Name = "rejection_for_tripler"
	RejectionForAmbassador     Name = "rejection_for_ambassador"
	AdminEmailSubject          Name = "admin_email_subject"
)

// Data is the value every message template is executed against
type Data struct {
	TriplerFirstName      string
	AmbassadorFirstName   string
	AmbassadorLastName    string
	OrganizationName      string
	TriplerCity           string
	Triplee1              string
	Triplee2              string
	Triplee3              string
	PaymentAmount         string
	AmbassadorLandingPage string
}

// Renderer renders the configured message templates
type Renderer struct {
	program   config.ProgramConfig
	templates map[Name]*template.Template
}

// NewRenderer parses every template up front so a bad template fails at startup
func NewRenderer(program config.ProgramConfig, cfg config.MessagesConfig) (*Renderer, error) {
	sources := map[Name]string{
		TriplerConfirmation:        cfg.TriplerConfirmation,
		TriplerReminder:            cfg.TriplerReminder,
		TriplerReconfirmation:      cfg.TriplerReconfirmation,
		TriplerUpgrade:             cfg.TriplerUpgrade,
		AmbassadorTriplerConfirmed: cfg.AmbassadorTriplerConfirmed,
		RejectionForTripler:        cfg.RejectionForTripler,
		RejectionForAmbassador:     cfg.RejectionForAmbassador,
		AdminEmailSubject:          cfg.AdminEmailSubject,
	}

	r := &Renderer{
		program:   program,
		templates: make(map[Name]*template.Template, len(sources)),
	}
	for name, src := range sources {
		tmpl, err := template.New(string(name)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Program returns the program settings messages are rendered with
func (r *Renderer) Program() config.ProgramConfig {
	return r.program
}

// Render executes a template
func (r *Renderer) Render(name Name, data Data) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown message template %s", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render message template %s: %w", name, err)
	}
	return sb.String(), nil
}

// NewData fills the program, tripler and ambassador fields of a message. Either record may be nil.
func (r *Renderer) NewData(tripler *schema.Tripler, ambassador *schema.Ambassador) Data {
	data := Data{
		OrganizationName:      r.program.OrganizationName,
		AmbassadorLandingPage: r.program.AmbassadorLandingPage,
	}

	if tripler != nil {
		data.TriplerFirstName = tripler.FirstName
		data.TriplerCity = tripler.City()
		data = data.WithTriplees(tripler.TripleeList())
	}
	if ambassador != nil {
		data.AmbassadorFirstName = ambassador.FirstName
		data.AmbassadorLastName = ambassador.LastNameOrEmpty()
	}

	return data
}

// WithTriplees sets the three triplee display names
func (d Data) WithTriplees(triplees []domain.Triplee) Data {
	names := make([]string, domain.RequiredTriplees)
	for i := 0; i < len(triplees) && i < domain.RequiredTriplees; i++ {
		names[i] = triplees[i].DisplayName()
	}
	d.Triplee1, d.Triplee2, d.Triplee3 = names[0], names[1], names[2]
	return d
}
