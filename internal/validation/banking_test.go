package validation

import (
	"strings"
	"testing"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

func TestAdvise(t *testing.T) {
	tests := []struct {
		name       string
		draft      models.UserDraft
		wantFields []models.Field
		wantMsg    string
	}{
		{
			name:  "no banking details",
			draft: models.UserDraft{},
		},
		{
			name:  "valid details",
			draft: models.UserDraft{BankName: "HDFC Bank", IFSC: "HDFC0001234", AccountNumber: "50100012345678", PAN: "ABCPE1234F"},
		},
		{
			name:       "malformed pan",
			draft:      models.UserDraft{PAN: "ABC1234"},
			wantFields: []models.Field{models.FieldPAN},
			wantMsg:    "ABCDE1234F",
		},
		{
			name:       "unusual pan holder type",
			draft:      models.UserDraft{PAN: "ABCXE1234F"},
			wantFields: []models.Field{models.FieldPAN},
			wantMsg:    "holder type",
		},
		{
			name:       "ifsc does not match bank",
			draft:      models.UserDraft{BankName: "State Bank of India", IFSC: "HDFC0001234"},
			wantFields: []models.Field{models.FieldIFSC},
			wantMsg:    "SBIN",
		},
		{
			name:       "ifsc malformed and bank missing",
			draft:      models.UserDraft{IFSC: "HDFC1234"},
			wantFields: []models.Field{models.FieldBankName, models.FieldIFSC},
		},
		{
			name:       "short account number",
			draft:      models.UserDraft{BankName: "Axis Bank", AccountNumber: "12345"},
			wantFields: []models.Field{models.FieldAccountNumber},
		},
		{
			name:  "lowercase input is normalised",
			draft: models.UserDraft{BankName: "kotak mahindra", IFSC: "kkbk0000123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := Advise(&tt.draft)
			got := warnings.Fields()
			if len(got) != len(tt.wantFields) {
				t.Fatalf("Expected warnings for %v, got %v", tt.wantFields, warnings)
			}
			for i, f := range tt.wantFields {
				if got[i] != f {
					t.Errorf("Expected %s at %d, got %s", f, i, got[i])
				}
				if warnings[f].Source != SourceAdvice {
					t.Errorf("Expected advice source for %s", f)
				}
			}
			if tt.wantMsg != "" && !strings.Contains(warnings.Message(tt.wantFields[0]), tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMsg, warnings.Message(tt.wantFields[0]))
			}
		})
	}
}
