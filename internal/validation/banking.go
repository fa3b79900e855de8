package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

var (
	panRegex     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscRegex    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountRegex = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// panHolderTypes are the valid values of the 4th PAN character
const panHolderTypes = "ABCFGHLJPT"

// bankPrefixes maps a bank name keyword to the IFSC prefix it is issued under
var bankPrefixes = []struct {
	keyword string
	prefix  string
}{
	{"state bank of india", "SBIN"},
	{"hdfc", "HDFC"},
	{"icici", "ICIC"},
	{"axis", "UTIB"},
	{"punjab national", "PUNB"},
	{"bank of baroda", "BARB"},
	{"kotak", "KKBK"},
	{"canara", "CNRB"},
	{"union bank", "UBIN"},
	{"yes bank", "YESB"},
	{"indusind", "INDB"},
	{"idfc", "IDFB"},
}

// Advise runs the banking heuristics over d. Every entry is a warning:
// these rules never block a step or a submission.
func Advise(d *models.UserDraft) ErrorSet {
	warnings := make(ErrorSet)

	if pan := strings.ToUpper(strings.TrimSpace(d.PAN)); pan != "" {
		switch {
		case !panRegex.MatchString(pan):
			warnings[models.FieldPAN] = advice("PAN should look like ABCDE1234F")
		case !strings.ContainsRune(panHolderTypes, rune(pan[3])):
			warnings[models.FieldPAN] = advice("PAN holder type character looks unusual")
		}
	}

	ifsc := strings.ToUpper(strings.TrimSpace(d.IFSC))
	if ifsc != "" {
		if !ifscRegex.MatchString(ifsc) {
			warnings[models.FieldIFSC] = advice("IFSC should be 4 letters, a zero and 6 letters or digits")
		} else if want := expectedPrefix(d.BankName); want != "" && !strings.HasPrefix(ifsc, want) {
			warnings[models.FieldIFSC] = advice(fmt.Sprintf("IFSC code does not match the bank name (expected prefix %s)", want))
		}
	}

	if acct := strings.TrimSpace(d.AccountNumber); acct != "" && !accountRegex.MatchString(acct) {
		warnings[models.FieldAccountNumber] = advice("Account number is usually 9 to 18 digits")
	}

	if (ifsc != "" || d.AccountNumber != "") && strings.TrimSpace(d.BankName) == "" {
		warnings[models.FieldBankName] = advice("Bank name is missing for the banking details")
	}

	return warnings
}

func expectedPrefix(bankName string) string {
	name := strings.ToLower(bankName)
	for _, bp := range bankPrefixes {
		if strings.Contains(name, bp.keyword) {
			return bp.prefix
		}
	}
	return ""
}

func advice(msg string) FieldError {
	return FieldError{Message: msg, Source: SourceAdvice}
}
