// Package lead handles the contact, wanted and selling forms: payload
// validation, formatting and delivery to the agency through notifiers.
package lead

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/evcraddock/biens/internal/email"
)

// Kind identifies a form.
type Kind string

const (
	KindContact Kind = "contact"
	KindWanted  Kind = "wanted"
	KindSelling Kind = "selling"
)

// ErrInvalid is returned when a form payload fails schema validation.
var ErrInvalid = errors.New("invalid form")

//go:embed schemas/*.json
var schemaFS embed.FS

var compiled = map[Kind]*jsonschema.Schema{}

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	for _, kind := range []Kind{KindContact, KindWanted, KindSelling} {
		path := "schemas/" + string(kind) + ".json"
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("reading schema %s: %v", path, err))
		}
		if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("adding schema %s: %v", path, err))
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			panic(fmt.Sprintf("compiling schema %s: %v", path, err))
		}
		compiled[kind] = schema
	}
}

// ContactForm is the contact-us payload.
type ContactForm struct {
	TitleMessage string `json:"titleMessage"`
	Motif        string `json:"motif"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Contenu      string `json:"contenu"`
}

// WantedRequest describes a property a visitor is looking for.
type WantedRequest struct {
	Localisation string   `json:"localisation"`
	TypeBien     string   `json:"typeBien"`
	Superficie   *float64 `json:"superficie,omitempty"`
	Pieces       *int     `json:"pieces,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Message      string   `json:"message"`
}

// SellingRequest describes a property a visitor wants to sell.
type SellingRequest struct {
	Localisation string   `json:"localisation"`
	TypeBien     string   `json:"typeBien"`
	Superficie   *float64 `json:"superficie,omitempty"`
	Pieces       *int     `json:"pieces,omitempty"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Message      string   `json:"message"`
}

// Lead is a validated form submission ready to be delivered.
type Lead struct {
	Kind       Kind      `json:"kind"`
	ReplyTo    string    `json:"replyTo"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Payload    any       `json:"payload"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Parse validates data against the schema of kind and builds the lead.
func Parse(kind Kind, data []byte) (*Lead, error) {
	schema, ok := compiled[kind]
	if !ok {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(verr))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	l := &Lead{Kind: kind, ReceivedAt: time.Now().UTC()}
	switch kind {
	case KindContact:
		var f ContactForm
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		l.Payload, l.ReplyTo = f, f.Email
		l.Subject, l.Body = formatContact(f)
	case KindWanted:
		var f WantedRequest
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		l.Payload, l.ReplyTo = f, f.Email
		l.Subject, l.Body = formatWanted(f)
	case KindSelling:
		var f SellingRequest
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		l.Payload, l.ReplyTo = f, f.Email
		l.Subject, l.Body = formatSelling(f)
	}

	return l, nil
}

// describe returns the innermost validation messages, which name the
// offending fields.
func describe(verr *jsonschema.ValidationError) string {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return loc + ": " + verr.Message
	}
	var parts []string
	for _, c := range verr.Causes {
		parts = append(parts, describe(c))
	}
	return strings.Join(parts, "; ")
}

func formatContact(f ContactForm) (string, string) {
	subject := "Contact"
	if f.TitleMessage != "" {
		subject += ": " + f.TitleMessage
	}

	var b strings.Builder
	writeField(&b, "Motif", f.Motif)
	writeContact(&b, f.Name, f.Email, f.Phone)
	b.WriteString("\n")
	b.WriteString(f.Contenu)
	b.WriteString("\n")
	return subject, b.String()
}

func formatWanted(f WantedRequest) (string, string) {
	subject := "Recherche de bien"
	if f.TypeBien != "" {
		subject += ": " + f.TypeBien
	}
	if f.Localisation != "" {
		subject += " à " + f.Localisation
	}

	var b strings.Builder
	writeField(&b, "Type", f.TypeBien)
	writeField(&b, "Localisation", f.Localisation)
	writeProperty(&b, f.Superficie, f.Pieces)
	if f.Budget != nil {
		writeField(&b, "Budget", email.FormatAmount(*f.Budget)+" €")
	}
	writeContact(&b, f.Name, f.Email, f.Phone)
	if f.Message != "" {
		b.WriteString("\n" + f.Message + "\n")
	}
	return subject, b.String()
}

func formatSelling(f SellingRequest) (string, string) {
	subject := fmt.Sprintf("Mise en vente: %s à %s", f.TypeBien, f.Localisation)

	var b strings.Builder
	writeField(&b, "Type", f.TypeBien)
	writeField(&b, "Localisation", f.Localisation)
	writeProperty(&b, f.Superficie, f.Pieces)
	writeContact(&b, f.Name, f.Email, f.Phone)
	if f.Message != "" {
		b.WriteString("\n" + f.Message + "\n")
	}
	return subject, b.String()
}

func writeProperty(b *strings.Builder, superficie *float64, pieces *int) {
	if superficie != nil {
		writeField(b, "Superficie", email.FormatAmount(*superficie)+" m²")
	}
	if pieces != nil {
		writeField(b, "Pièces", fmt.Sprintf("%d", *pieces))
	}
}

func writeContact(b *strings.Builder, name, mail, phone string) {
	writeField(b, "Nom", name)
	writeField(b, "Email", mail)
	writeField(b, "Téléphone", phone)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
