package model

import "testing"

func TestPatient_City(t *testing.T) {
	tests := []struct {
		name string
		p    Patient
		want string
	}{
		{"no address", Patient{}, ""},
		{"address without city", Patient{Address: &Address{State: "Lima"}}, ""},
		{"with city", Patient{Address: &Address{City: "Lima"}}, "Lima"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.City(); got != tt.want {
				t.Errorf("City() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatient_FullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ana", "Ruiz", "Ana Ruiz"},
		{"Ana", "", "Ana"},
		{"", "Ruiz", "Ruiz"},
		{"", "", ""},
	}
	for _, tt := range tests {
		p := Patient{FirstName: tt.first, LastName: tt.last}
		if got := p.FullName(); got != tt.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestPatient_SearchFields(t *testing.T) {
	p := Patient{FirstName: "Bob", LastName: "Li", Email: "b@x.com", Phone: "555"}
	got := p.SearchFields()
	want := [5]string{"Bob", "Li", "b@x.com", "555", ""}
	if got != want {
		t.Errorf("SearchFields() = %v, want %v", got, want)
	}
}
