package colorize

import (
	"strings"
	"testing"
)

const listing = "0x00001000: vpaddd ; foo::bar()\n0x00001004: vaddps\n"

func TestListingDisabled(t *testing.T) {
	t.Setenv("ISASCAN_NO_COLOR", "1")
	got, err := Listing(listing)
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if got != listing {
		t.Errorf("Listing() with colors disabled = %q, want input unchanged", got)
	}
}

func TestListingKeepsText(t *testing.T) {
	t.Setenv("ISASCAN_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")
	got, err := Listing(listing)
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Listing() = %q, want ANSI colors", got)
	}
	if plain := stripANSI(got); plain != listing {
		t.Errorf("stripANSI(Listing()) = %q, want %q", plain, listing)
	}
}

func TestListingStyleRegistered(t *testing.T) {
	if s := getListingStyle(); s.Name != "isascan-dark" {
		t.Errorf("listing style = %q, want isascan-dark", s.Name)
	}
}
