package parser

import (
	"strings"
	"testing"
)

func TestAssemble(t *testing.T) {
	page := `TNG Statement
Date Time Status Transaction Type Description Amount Wallet Balance
01/01/2024 10:00 Successful DUITNOW
RECEIVEFROM John Doe -12.50 340.00
02/01/2024 11:30 Successful Payment
Kedai Runcit Pak Ali
-5.00 335.00

Page 1 of 2
03/01/2024 09:15 Successful Reload 100.00 435.00`

	groups := Assemble(strings.Split(page, "\n"), NewClassifier(nil))

	if len(groups) != 3 {
		t.Fatalf("groups: got %d, want 3", len(groups))
	}

	if groups[0].Start != "01/01/2024 10:00 Successful DUITNOW" {
		t.Errorf("groups[0].Start: got %q", groups[0].Start)
	}
	if len(groups[0].Continuations) != 1 || groups[0].Continuations[0] != "RECEIVEFROM John Doe -12.50 340.00" {
		t.Errorf("groups[0].Continuations: got %q", groups[0].Continuations)
	}
	if groups[0].Line != 3 {
		t.Errorf("groups[0].Line: got %d, want 3", groups[0].Line)
	}

	// Second group spans two continuation lines; the blank line and the page
	// marker after it are dropped without breaking the next group.
	if len(groups[1].Continuations) != 2 {
		t.Fatalf("groups[1].Continuations: got %d, want 2", len(groups[1].Continuations))
	}
	if groups[1].Continuations[1] != "-5.00 335.00" {
		t.Errorf("groups[1].Continuations[1]: got %q", groups[1].Continuations[1])
	}

	if groups[2].Start != "03/01/2024 09:15 Successful Reload 100.00 435.00" {
		t.Errorf("groups[2].Start: got %q", groups[2].Start)
	}
	if len(groups[2].Continuations) != 0 {
		t.Errorf("groups[2].Continuations: got %q, want none", groups[2].Continuations)
	}
	if groups[2].Line != 10 {
		t.Errorf("groups[2].Line: got %d, want 10", groups[2].Line)
	}
}

func TestAssemble_LeadingContinuationsDiscarded(t *testing.T) {
	lines := []string{
		"orphan overflow text",
		"more orphan text",
		"01/01/2024 10:00 Successful Reload 50.00",
	}

	groups := Assemble(lines, NewClassifier(nil))

	if len(groups) != 1 {
		t.Fatalf("groups: got %d, want 1", len(groups))
	}
	if len(groups[0].Continuations) != 0 {
		t.Errorf("orphan lines attached to the first group: %q", groups[0].Continuations)
	}
	if groups[0].Line != 3 {
		t.Errorf("groups[0].Line: got %d, want 3", groups[0].Line)
	}
}

func TestAssemble_NoiseOnly(t *testing.T) {
	lines := []string{
		"TNG eWallet",
		"Statement Period: 01/2024",
		"",
		"Page 1 of 1",
	}

	if groups := Assemble(lines, NewClassifier(nil)); len(groups) != 0 {
		t.Errorf("groups: got %d, want 0", len(groups))
	}
}
