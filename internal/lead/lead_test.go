package lead

import (
	"errors"
	"strings"
	"testing"
)

func TestParseContact(t *testing.T) {
	l, err := Parse(KindContact, []byte(`{
		"titleMessage": "Visite",
		"motif": "Achat",
		"name": "Jeanne",
		"email": "jeanne@example.com",
		"phone": "0600000000",
		"contenu": "Je souhaite visiter le T3."
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if l.Kind != KindContact {
		t.Errorf("kind = %q", l.Kind)
	}
	if l.ReplyTo != "jeanne@example.com" {
		t.Errorf("reply-to = %q", l.ReplyTo)
	}
	if l.Subject != "Contact: Visite" {
		t.Errorf("subject = %q", l.Subject)
	}
	for _, want := range []string{"Motif: Achat", "Nom: Jeanne", "Téléphone: 0600000000", "Je souhaite visiter le T3."} {
		if !strings.Contains(l.Body, want) {
			t.Errorf("body missing %q:\n%s", want, l.Body)
		}
	}
	if _, ok := l.Payload.(ContactForm); !ok {
		t.Errorf("payload type = %T, want ContactForm", l.Payload)
	}
}

func TestParseWanted(t *testing.T) {
	l, err := Parse(KindWanted, []byte(`{
		"localisation": "Lyon",
		"typeBien": "Appartement",
		"superficie": 55,
		"pieces": 3,
		"budget": 240000,
		"name": "Paul",
		"email": "paul@example.com"
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if l.Subject != "Recherche de bien: Appartement à Lyon" {
		t.Errorf("subject = %q", l.Subject)
	}
	for _, want := range []string{"Budget: 240 000 €", "Superficie: 55 m²", "Pièces: 3"} {
		if !strings.Contains(l.Body, want) {
			t.Errorf("body missing %q:\n%s", want, l.Body)
		}
	}
}

func TestParseSelling(t *testing.T) {
	l, err := Parse(KindSelling, []byte(`{
		"localisation": "Brest",
		"typeBien": "Maison",
		"name": "Ana",
		"email": "ana@example.com",
		"message": "Disponible en juin"
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if l.Subject != "Mise en vente: Maison à Brest" {
		t.Errorf("subject = %q", l.Subject)
	}
	if strings.Contains(l.Body, "Superficie") {
		t.Error("absent superficie should not be printed")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		data string
	}{
		{"malformed json", KindContact, `{"name":`},
		{"missing required", KindContact, `{"name": "a", "email": "a@example.com"}`},
		{"bad email", KindContact, `{"name": "a", "email": "not-an-email", "contenu": "x"}`},
		{"negative budget", KindWanted, `{"name": "a", "email": "a@example.com", "budget": -1}`},
		{"fractional pieces", KindWanted, `{"name": "a", "email": "a@example.com", "pieces": 2.5}`},
		{"selling without location", KindSelling, `{"name": "a", "email": "a@example.com", "typeBien": "Maison"}`},
		{"not an object", KindSelling, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.kind, []byte(tt.data)); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParseNumericFields(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"zero budget", `{"name": "a", "email": "a@example.com", "budget": 0}`, false},
		{"large budget", `{"name": "a", "email": "a@example.com", "budget": 1250000.5, "superficie": 87.25}`, false},
		{"budget as string", `{"name": "a", "email": "a@example.com", "budget": "250000"}`, true},
		{"negative area", `{"name": "a", "email": "a@example.com", "superficie": -0.5}`, true},
		{"pieces as number", `{"name": "a", "email": "a@example.com", "pieces": 4}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse(KindWanted, []byte(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("err = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if _, ok := l.Payload.(WantedRequest); !ok {
				t.Errorf("payload type = %T, want WantedRequest", l.Payload)
			}
		})
	}
}

func TestParseUnknownKind(t *testing.T) {
	_, err := Parse("newsletter", []byte(`{}`))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want unknown kind error", err)
	}
}
